// Package analysis derives coarse loudness and spectral descriptors from
// decoded audio. Descriptors drive reference ranking in the blender and the
// adjacency scoring in the album sequencer; the mastering engine never sees
// them.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/cwbudde/algo-dsp/measure/loudness"

	"quantum/internal/media/ffmpeg"
)

const (
	// Crossover frequencies for the coarse band split.
	lowBandHz  = 250.0
	highBandHz = 4000.0

)

// SilenceFloorLUFS is the floor applied to integrated loudness so silence
// does not produce -Inf. Callers substituting a descriptor for unreadable
// audio should use it instead of the zero value.
const SilenceFloorLUFS = -70.0

// Descriptor summarizes a track's loudness and tonal balance.
type Descriptor struct {
	IntegratedLUFS float64
	Peak           float64
	// Energy is the mean square of all samples; the blender's
	// inverse-loudness profile ranks references by it.
	Energy    float64
	LowShare  float64
	HighShare float64
}

// Measure computes a Descriptor for a decoded clip. The zero Descriptor is
// returned for empty clips.
func Measure(clip ffmpeg.Clip) Descriptor {
	if len(clip.Samples) == 0 || clip.SampleRate <= 0 || clip.Channels <= 0 {
		return Descriptor{IntegratedLUFS: SilenceFloorLUFS}
	}

	var desc Descriptor

	meter := loudness.NewMeter(
		loudness.WithSampleRate(float64(clip.SampleRate)),
		loudness.WithChannels(clip.Channels),
	)
	meter.StartIntegration()
	meter.ProcessBlock(clip.Samples)
	desc.IntegratedLUFS = meter.Integrated()
	if math.IsInf(desc.IntegratedLUFS, -1) || math.IsNaN(desc.IntegratedLUFS) || desc.IntegratedLUFS < SilenceFloorLUFS {
		desc.IntegratedLUFS = SilenceFloorLUFS
	}

	var sumSquares float64
	for _, sample := range clip.Samples {
		if abs := math.Abs(sample); abs > desc.Peak {
			desc.Peak = abs
		}
		sumSquares += sample * sample
	}
	desc.Energy = sumSquares / float64(len(clip.Samples))

	mono := mixdown(clip)
	desc.LowShare, desc.HighShare = bandShares(mono, float64(clip.SampleRate))
	return desc
}

func mixdown(clip ffmpeg.Clip) []float64 {
	if clip.Channels == 1 {
		return clip.Samples
	}
	frames := len(clip.Samples) / clip.Channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < clip.Channels; ch++ {
			sum += clip.Samples[i*clip.Channels+ch]
		}
		mono[i] = sum / float64(clip.Channels)
	}
	return mono
}

func bandShares(mono []float64, sampleRate float64) (low, high float64) {
	if len(mono) == 0 {
		return 0, 0
	}
	q := 1.0 / math.Sqrt(2)
	lowSection := biquad.NewSection(design.Lowpass(lowBandHz, q, sampleRate))
	highSection := biquad.NewSection(design.Highpass(highBandHz, q, sampleRate))

	lowBand := make([]float64, len(mono))
	highBand := make([]float64, len(mono))
	lowSection.ProcessBlockTo(lowBand, mono)
	highSection.ProcessBlockTo(highBand, mono)

	total := sumSquares(mono)
	if total <= 0 {
		return 0, 0
	}
	return sumSquares(lowBand) / total, sumSquares(highBand) / total
}

func sumSquares(buf []float64) float64 {
	var sum float64
	for _, v := range buf {
		sum += v * v
	}
	return sum
}
