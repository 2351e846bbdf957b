package classify

import (
	"errors"
	"testing"

	"quantum/internal/catalog"
	"quantum/internal/mastering"
)

func candidates(paths ...string) []catalog.Candidate {
	out := make([]catalog.Candidate, 0, len(paths))
	for _, path := range paths {
		out = append(out, catalog.Candidate{Path: path, Format: "wav"})
	}
	return out
}

func TestClassifyEmptySetFails(t *testing.T) {
	_, err := Classify(nil, catalog.KindDirectory, Options{})
	if !errors.Is(err, mastering.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestClassifySingleFile(t *testing.T) {
	plan, err := Classify(candidates("/music/track.wav"), catalog.KindFile, Options{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategySingle {
		t.Fatalf("strategy = %s, want single", plan.Strategy)
	}
}

func TestClassifySingleFileWithOneReference(t *testing.T) {
	plan, err := Classify(candidates("/music/track.wav"), catalog.KindFile, Options{
		References: candidates("/refs/ref.wav"),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategySingle {
		t.Fatalf("strategy = %s, want single", plan.Strategy)
	}
	if len(plan.References) != 1 {
		t.Fatalf("references = %d, want 1", len(plan.References))
	}
}

func TestClassifyBlendedWithMultipleReferences(t *testing.T) {
	plan, err := Classify(candidates("/music/track.wav"), catalog.KindFile, Options{
		References: candidates("/refs/r1.wav", "/refs/r2.wav", "/refs/r3.wav"),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategyBlended {
		t.Fatalf("strategy = %s, want blended", plan.Strategy)
	}
}

func TestClassifyTooManyReferences(t *testing.T) {
	refs := candidates("/r/1.wav", "/r/2.wav", "/r/3.wav", "/r/4.wav", "/r/5.wav", "/r/6.wav")
	_, err := Classify(candidates("/music/track.wav"), catalog.KindFile, Options{References: refs})
	if !errors.Is(err, mastering.ErrTooManyReferences) {
		t.Fatalf("err = %v, want ErrTooManyReferences", err)
	}
	if !errors.Is(err, mastering.ErrInvalidReferenceCount) {
		t.Fatalf("err = %v, want ErrInvalidReferenceCount umbrella", err)
	}
}

func TestClassifyForcedBlendWithOneReferenceFails(t *testing.T) {
	_, err := Classify(candidates("/music/track.wav"), catalog.KindFile, Options{
		References: candidates("/refs/ref.wav"),
		ForceBlend: true,
	})
	if !errors.Is(err, mastering.ErrInsufficientReferences) {
		t.Fatalf("err = %v, want ErrInsufficientReferences", err)
	}
}

func TestClassifyNumberedDirectoryIsAlbum(t *testing.T) {
	plan, err := Classify(candidates(
		"/music/album/01_intro.wav",
		"/music/album/02_drop.wav",
		"/music/album/03_outro.wav",
	), catalog.KindDirectory, Options{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategyAlbum {
		t.Fatalf("strategy = %s, want album", plan.Strategy)
	}
}

func TestClassifyMixedGenresWithoutNumberingIsBatch(t *testing.T) {
	cands := []catalog.Candidate{
		{Path: "/in/trap_beat1.wav", Genre: catalog.GenreTrap},
		{Path: "/other/lofi_chill.wav", Genre: catalog.GenreHipHop},
	}
	plan, err := Classify(cands, catalog.KindDirectory, Options{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategyBatch {
		t.Fatalf("strategy = %s, want batch", plan.Strategy)
	}
}

func TestClassifyAlbumBeatsGenreEvidence(t *testing.T) {
	// Sequential numbering with divergent genre tags: positional evidence
	// wins.
	cands := []catalog.Candidate{
		{Path: "/a/01 trap banger.wav", Genre: catalog.GenreTrap},
		{Path: "/b/02 jazz interlude.wav", Genre: catalog.GenreJazz},
		{Path: "/c/03 rock finale.wav", Genre: catalog.GenreRock},
	}
	plan, err := Classify(cands, catalog.KindDirectory, Options{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategyAlbum {
		t.Fatalf("strategy = %s, want album", plan.Strategy)
	}
}

func TestClassifySharedDirectoryCollectionIsAlbum(t *testing.T) {
	plan, err := Classify(candidates(
		"/music/set/ambient_one.wav",
		"/music/set/ambient_two.wav",
		"/music/set/ambient_three.wav",
		"/music/set/ambient_four.wav",
	), catalog.KindDirectory, Options{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategyAlbum {
		t.Fatalf("strategy = %s, want album", plan.Strategy)
	}
}

func TestClassifyTwoUnrelatedFilesIsBatch(t *testing.T) {
	// Two files in one directory is below the album size floor.
	plan, err := Classify(candidates(
		"/music/misc/one.wav",
		"/music/misc/two.wav",
	), catalog.KindDirectory, Options{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if plan.Strategy != StrategyBatch {
		t.Fatalf("strategy = %s, want batch", plan.Strategy)
	}
}
