// Package blend derives weighted mixing profiles from a set of reference
// tracks and materializes the mixes for the mastering engine.
package blend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/cwbudde/algo-vecmath"

	"quantum/internal/analysis"
	"quantum/internal/catalog"
	"quantum/internal/logging"
	"quantum/internal/mastering"
	"quantum/internal/media/ffmpeg"
	"quantum/internal/textutil"
)

const (
	// MinReferences and MaxReferences bound blendable reference sets.
	MinReferences = 2
	MaxReferences = 5

	// WeightTolerance is the permitted drift of a profile's weight sum
	// from 1.0.
	WeightTolerance = 1e-6

	dominantWeight = 0.6
	energyFloor    = 1e-9
)

// Profile is one weighted combination of the reference set. Weights are
// indexed parallel to the references and always sum to 1 within
// WeightTolerance.
type Profile struct {
	Label   string
	Name    string
	Weights []float64
}

// Plan holds the four profiles derived from one reference set.
type Plan struct {
	References []catalog.Candidate
	Profiles   [4]Profile
}

// Blender decodes references and renders blended mixes into the
// workspace blends directory.
type Blender struct {
	decoder ffmpeg.Decoder
	dir     string
	logger  *slog.Logger
}

// NewBlender constructs a Blender that writes rendered mixes under dir.
func NewBlender(decoder ffmpeg.Decoder, dir string, logger *slog.Logger) *Blender {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Blender{
		decoder: decoder,
		dir:     dir,
		logger:  logging.NewComponentLogger(logger, "blend"),
	}
}

// BuildPlan derives the four blend profiles for a reference set. The
// descriptors must be indexed parallel to the references.
func BuildPlan(refs []catalog.Candidate, descriptors []analysis.Descriptor) (Plan, error) {
	if len(refs) < MinReferences {
		return Plan{}, mastering.Wrap(mastering.ErrInsufficientReferences, "blend", "plan",
			fmt.Sprintf("%d references", len(refs)), nil)
	}
	if len(refs) > MaxReferences {
		return Plan{}, mastering.Wrap(mastering.ErrTooManyReferences, "blend", "plan",
			fmt.Sprintf("%d references", len(refs)), nil)
	}
	if len(descriptors) != len(refs) {
		return Plan{}, mastering.Wrap(mastering.ErrInvalidReferenceCount, "blend", "plan",
			fmt.Sprintf("%d descriptors for %d references", len(descriptors), len(refs)), nil)
	}

	n := len(refs)
	plan := Plan{References: refs}
	plan.Profiles[0] = Profile{Label: "A", Name: "equal", Weights: equalWeights(n)}
	plan.Profiles[1] = Profile{Label: "B", Name: "lead-forward", Weights: dominantWeights(n, 0)}
	plan.Profiles[2] = Profile{Label: "C", Name: "tail-forward", Weights: dominantWeights(n, n-1)}
	plan.Profiles[3] = Profile{Label: "D", Name: "energy-balanced", Weights: energyWeights(descriptors)}

	for _, profile := range plan.Profiles {
		if err := checkWeights(profile); err != nil {
			return Plan{}, err
		}
	}
	return plan, nil
}

// Render decodes the reference set and writes one mixed file per
// profile. Returned paths are indexed parallel to the profiles.
func (b *Blender) Render(ctx context.Context, plan Plan, stem string) ([4]string, error) {
	var paths [4]string
	clips, err := b.decodeReferences(ctx, plan.References)
	if err != nil {
		return paths, err
	}
	for i, profile := range plan.Profiles {
		mixed, err := Mix(clips, profile.Weights)
		if err != nil {
			return paths, err
		}
		out := filepath.Join(b.dir, fmt.Sprintf("%s_blend_%s.wav", textutil.SanitizeStem(stem), profile.Label))
		if err := b.decoder.Encode(ctx, mixed, out); err != nil {
			return paths, mastering.Wrap(mastering.ErrDecode, "blend", "encode", out, err)
		}
		b.logger.Info("rendered blend profile",
			logging.String("profile", profile.Label),
			logging.String("path", out))
		paths[i] = out
	}
	return paths, nil
}

// Mix combines clips sample-wise using the given weights. All clips must
// share a sample rate and channel count; the mix is truncated to the
// shortest clip.
func Mix(clips []ffmpeg.Clip, weights []float64) (ffmpeg.Clip, error) {
	if len(clips) == 0 || len(clips) != len(weights) {
		return ffmpeg.Clip{}, mastering.Wrap(mastering.ErrInvalidReferenceCount, "blend", "mix",
			fmt.Sprintf("%d clips for %d weights", len(clips), len(weights)), nil)
	}
	rate, channels := clips[0].SampleRate, clips[0].Channels
	shortest := len(clips[0].Samples)
	for _, clip := range clips[1:] {
		if clip.SampleRate != rate || clip.Channels != channels {
			return ffmpeg.Clip{}, mastering.Wrap(mastering.ErrDecode, "blend", "mix",
				"references disagree on sample rate or channel count", nil)
		}
		if len(clip.Samples) < shortest {
			shortest = len(clip.Samples)
		}
	}

	mixed := make([]float64, shortest)
	scratch := make([]float64, shortest)
	for i, clip := range clips {
		vecmath.ScaleBlock(scratch, clip.Samples[:shortest], weights[i])
		vecmath.AddBlockInPlace(mixed, scratch)
	}
	return ffmpeg.Clip{Samples: mixed, SampleRate: rate, Channels: channels}, nil
}

func (b *Blender) decodeReferences(ctx context.Context, refs []catalog.Candidate) ([]ffmpeg.Clip, error) {
	clips := make([]ffmpeg.Clip, 0, len(refs))
	for _, ref := range refs {
		clip, err := b.decoder.Decode(ctx, ref.Path)
		if err != nil {
			return nil, mastering.Wrap(mastering.ErrDecode, "blend", "decode", ref.Path, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func equalWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return weights
}

func dominantWeights(n, lead int) []float64 {
	weights := make([]float64, n)
	rest := (1.0 - dominantWeight) / float64(n-1)
	for i := range weights {
		if i == lead {
			weights[i] = dominantWeight
		} else {
			weights[i] = rest
		}
	}
	return weights
}

// energyWeights favors quieter references so the mix is not dominated by
// the hottest master in the set.
func energyWeights(descriptors []analysis.Descriptor) []float64 {
	weights := make([]float64, len(descriptors))
	total := 0.0
	for i, desc := range descriptors {
		energy := desc.Energy
		if energy < energyFloor {
			energy = energyFloor
		}
		weights[i] = 1.0 / energy
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

func checkWeights(profile Profile) error {
	sum := 0.0
	for _, w := range profile.Weights {
		if w < 0 {
			return mastering.Wrap(mastering.ErrInvalidReferenceCount, "blend", "profile "+profile.Label,
				"negative weight", nil)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return mastering.Wrap(mastering.ErrInvalidReferenceCount, "blend", "profile "+profile.Label,
			fmt.Sprintf("weights sum to %v", sum), nil)
	}
	return nil
}
