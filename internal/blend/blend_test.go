package blend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"quantum/internal/analysis"
	"quantum/internal/catalog"
	"quantum/internal/mastering"
	"quantum/internal/media/ffmpeg"
)

func refSet(n int) []catalog.Candidate {
	refs := make([]catalog.Candidate, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, catalog.Candidate{Path: fmt.Sprintf("/refs/ref%d.wav", i), Format: "wav"})
	}
	return refs
}

func flatDescriptors(n int) []analysis.Descriptor {
	descs := make([]analysis.Descriptor, n)
	for i := range descs {
		descs[i] = analysis.Descriptor{Energy: 0.1}
	}
	return descs
}

func TestBuildPlanProducesFourProfiles(t *testing.T) {
	plan, err := BuildPlan(refSet(3), flatDescriptors(3))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	labels := []string{"A", "B", "C", "D"}
	for i, profile := range plan.Profiles {
		if profile.Label != labels[i] {
			t.Fatalf("profile %d label = %s, want %s", i, profile.Label, labels[i])
		}
		if len(profile.Weights) != 3 {
			t.Fatalf("profile %s has %d weights, want 3", profile.Label, len(profile.Weights))
		}
		sum := 0.0
		for _, w := range profile.Weights {
			if w < 0 {
				t.Fatalf("profile %s has negative weight %v", profile.Label, w)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > WeightTolerance {
			t.Fatalf("profile %s weights sum to %v", profile.Label, sum)
		}
	}
}

func TestBuildPlanWeightShapes(t *testing.T) {
	plan, err := BuildPlan(refSet(3), []analysis.Descriptor{
		{Energy: 0.4},
		{Energy: 0.1},
		{Energy: 0.2},
	})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	equal := plan.Profiles[0].Weights
	for _, w := range equal {
		if math.Abs(w-1.0/3.0) > WeightTolerance {
			t.Fatalf("equal profile weight = %v", w)
		}
	}

	lead := plan.Profiles[1].Weights
	if lead[0] <= lead[1] || lead[0] <= lead[2] {
		t.Fatalf("lead-forward should favor first reference: %v", lead)
	}
	tail := plan.Profiles[2].Weights
	if tail[2] <= tail[0] || tail[2] <= tail[1] {
		t.Fatalf("tail-forward should favor last reference: %v", tail)
	}

	// The quietest reference carries the largest energy-balanced weight.
	energy := plan.Profiles[3].Weights
	if energy[1] <= energy[0] || energy[1] <= energy[2] {
		t.Fatalf("energy-balanced should favor quietest reference: %v", energy)
	}
}

func TestBuildPlanDeterministic(t *testing.T) {
	refs := refSet(4)
	descs := []analysis.Descriptor{{Energy: 0.3}, {Energy: 0.2}, {Energy: 0.25}, {Energy: 0.15}}
	first, err := BuildPlan(refs, descs)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	second, err := BuildPlan(refs, descs)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different plans")
	}
}

func TestBuildPlanReferenceBounds(t *testing.T) {
	if _, err := BuildPlan(refSet(1), flatDescriptors(1)); !errors.Is(err, mastering.ErrInsufficientReferences) {
		t.Fatalf("1 ref err = %v, want ErrInsufficientReferences", err)
	}
	if _, err := BuildPlan(refSet(6), flatDescriptors(6)); !errors.Is(err, mastering.ErrTooManyReferences) {
		t.Fatalf("6 refs err = %v, want ErrTooManyReferences", err)
	}
	if _, err := BuildPlan(refSet(3), flatDescriptors(2)); !errors.Is(err, mastering.ErrInvalidReferenceCount) {
		t.Fatalf("descriptor mismatch err = %v, want ErrInvalidReferenceCount", err)
	}
}

func constantClip(value float64, samples int) ffmpeg.Clip {
	buf := make([]float64, samples)
	for i := range buf {
		buf[i] = value
	}
	return ffmpeg.Clip{Samples: buf, SampleRate: 44100, Channels: 2}
}

func TestMixWeightedSum(t *testing.T) {
	clips := []ffmpeg.Clip{constantClip(1.0, 8), constantClip(0.5, 8)}
	mixed, err := Mix(clips, []float64{0.6, 0.4})
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	want := 0.6*1.0 + 0.4*0.5
	for i, sample := range mixed.Samples {
		if math.Abs(sample-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, sample, want)
		}
	}
}

func TestMixTruncatesToShortest(t *testing.T) {
	clips := []ffmpeg.Clip{constantClip(1.0, 16), constantClip(1.0, 10)}
	mixed, err := Mix(clips, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	if len(mixed.Samples) != 10 {
		t.Fatalf("mixed length = %d, want 10", len(mixed.Samples))
	}
}

func TestMixRejectsMismatchedClips(t *testing.T) {
	a := constantClip(1.0, 8)
	b := constantClip(1.0, 8)
	b.SampleRate = 48000
	if _, err := Mix([]ffmpeg.Clip{a, b}, []float64{0.5, 0.5}); !errors.Is(err, mastering.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

type stubDecoder struct {
	clips   map[string]ffmpeg.Clip
	encoded []string
}

func (d *stubDecoder) Decode(_ context.Context, path string) (ffmpeg.Clip, error) {
	clip, ok := d.clips[path]
	if !ok {
		return ffmpeg.Clip{}, fmt.Errorf("no clip for %s", path)
	}
	return clip, nil
}

func (d *stubDecoder) Encode(_ context.Context, _ ffmpeg.Clip, path string) error {
	d.encoded = append(d.encoded, path)
	return nil
}

func TestRenderWritesOneFilePerProfile(t *testing.T) {
	refs := refSet(2)
	decoder := &stubDecoder{clips: map[string]ffmpeg.Clip{
		refs[0].Path: constantClip(0.4, 32),
		refs[1].Path: constantClip(0.2, 32),
	}}
	dir := t.TempDir()
	blender := NewBlender(decoder, dir, nil)

	plan, err := BuildPlan(refs, flatDescriptors(2))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	paths, err := blender.Render(context.Background(), plan, "track")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(decoder.encoded) != 4 {
		t.Fatalf("encoded %d files, want 4", len(decoder.encoded))
	}
	for i, label := range []string{"A", "B", "C", "D"} {
		want := filepath.Join(dir, "track_blend_"+label+".wav")
		if paths[i] != want {
			t.Fatalf("paths[%d] = %s, want %s", i, paths[i], want)
		}
	}
}

func TestRenderPropagatesDecodeFailure(t *testing.T) {
	refs := refSet(2)
	decoder := &stubDecoder{clips: map[string]ffmpeg.Clip{}}
	blender := NewBlender(decoder, t.TempDir(), nil)

	plan, err := BuildPlan(refs, flatDescriptors(2))
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if _, err := blender.Render(context.Background(), plan, "track"); !errors.Is(err, mastering.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}
