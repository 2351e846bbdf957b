package sequence

import (
	"math/rand"
	"testing"

	"quantum/internal/analysis"
	"quantum/internal/catalog"
)

func track(path string, lufs, low, high float64) Track {
	return Track{
		Candidate:  catalog.Candidate{Path: path, Format: "wav"},
		Descriptor: analysis.Descriptor{IntegratedLUFS: lufs, LowShare: low, HighShare: high},
	}
}

func TestCompatibilityIdenticalTracks(t *testing.T) {
	desc := analysis.Descriptor{IntegratedLUFS: -14, LowShare: 0.3, HighShare: 0.2}
	if got := Compatibility(desc, desc); got != 100 {
		t.Fatalf("identical descriptors score %v, want 100", got)
	}
}

func TestCompatibilitySymmetricAndBounded(t *testing.T) {
	a := analysis.Descriptor{IntegratedLUFS: -8, LowShare: 0.5, HighShare: 0.1}
	b := analysis.Descriptor{IntegratedLUFS: -30, LowShare: 0.05, HighShare: 0.6}
	ab, ba := Compatibility(a, b), Compatibility(b, a)
	if ab != ba {
		t.Fatalf("compatibility not symmetric: %v vs %v", ab, ba)
	}
	if ab < 0 || ab > 100 {
		t.Fatalf("score %v outside [0,100]", ab)
	}
}

func TestCompatibilityPenalizesLoudnessJump(t *testing.T) {
	base := analysis.Descriptor{IntegratedLUFS: -14, LowShare: 0.3, HighShare: 0.2}
	near := analysis.Descriptor{IntegratedLUFS: -15, LowShare: 0.3, HighShare: 0.2}
	far := analysis.Descriptor{IntegratedLUFS: -24, LowShare: 0.3, HighShare: 0.2}
	if Compatibility(base, near) <= Compatibility(base, far) {
		t.Fatal("smaller loudness jump should score higher")
	}
}

func TestOrderTinyAlbums(t *testing.T) {
	empty := Order(nil)
	if empty.Cohesion != 100 || len(empty.Tracks) != 0 {
		t.Fatalf("empty album: cohesion %v, %d tracks", empty.Cohesion, len(empty.Tracks))
	}
	single := Order([]Track{track("/a/one.wav", -14, 0.3, 0.2)})
	if single.Cohesion != 100 || len(single.Tracks) != 1 {
		t.Fatalf("single album: cohesion %v, %d tracks", single.Cohesion, len(single.Tracks))
	}
}

func TestOrderKeepsSimilarTracksAdjacent(t *testing.T) {
	// Two quiet tracks and two loud tracks; the sequence should not
	// alternate between the clusters.
	tracks := []Track{
		track("/a/loud1.wav", -8, 0.3, 0.2),
		track("/a/quiet1.wav", -24, 0.3, 0.2),
		track("/a/loud2.wav", -8.5, 0.3, 0.2),
		track("/a/quiet2.wav", -23.5, 0.3, 0.2),
	}
	result := Order(tracks)
	if len(result.Tracks) != 4 {
		t.Fatalf("ordered %d tracks, want 4", len(result.Tracks))
	}
	transitions := 0
	for i := 1; i < len(result.Tracks); i++ {
		prev := result.Tracks[i-1].Descriptor.IntegratedLUFS
		cur := result.Tracks[i].Descriptor.IntegratedLUFS
		if (prev > -15) != (cur > -15) {
			transitions++
		}
	}
	if transitions != 1 {
		t.Fatalf("%d cluster transitions, want 1", transitions)
	}
}

func TestOrderPermutationInvariant(t *testing.T) {
	tracks := []Track{
		track("/a/01.wav", -14, 0.30, 0.20),
		track("/a/02.wav", -11, 0.40, 0.15),
		track("/a/03.wav", -18, 0.25, 0.30),
		track("/a/04.wav", -9, 0.45, 0.10),
		track("/a/05.wav", -16, 0.28, 0.25),
	}
	want := Order(tracks)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]Track(nil), tracks...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Order(shuffled)
		if got.Cohesion != want.Cohesion {
			t.Fatalf("trial %d cohesion %v, want %v", trial, got.Cohesion, want.Cohesion)
		}
		for i := range want.Tracks {
			if got.Tracks[i].Candidate.Path != want.Tracks[i].Candidate.Path {
				t.Fatalf("trial %d position %d = %s, want %s",
					trial, i, got.Tracks[i].Candidate.Path, want.Tracks[i].Candidate.Path)
			}
		}
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	tracks := []Track{
		track("/a/b.wav", -14, 0.3, 0.2),
		track("/a/a.wav", -11, 0.4, 0.1),
		track("/a/c.wav", -18, 0.2, 0.3),
	}
	paths := []string{tracks[0].Candidate.Path, tracks[1].Candidate.Path, tracks[2].Candidate.Path}
	Order(tracks)
	for i, path := range paths {
		if tracks[i].Candidate.Path != path {
			t.Fatalf("input slice mutated at %d: %s", i, tracks[i].Candidate.Path)
		}
	}
}

func TestOrderCohesionWithinBounds(t *testing.T) {
	tracks := []Track{
		track("/a/x.wav", -6, 0.6, 0.05),
		track("/a/y.wav", -30, 0.05, 0.6),
		track("/a/z.wav", -18, 0.3, 0.3),
	}
	result := Order(tracks)
	if result.Cohesion < 0 || result.Cohesion > 100 {
		t.Fatalf("cohesion %v outside [0,100]", result.Cohesion)
	}
}
