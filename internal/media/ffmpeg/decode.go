package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"quantum/internal/mastering"
)

// Clip holds decoded PCM audio as interleaved float64 samples.
type Clip struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// Decoder converts audio files to PCM clips and back. The CLI implementation
// shells out to ffmpeg; tests provide synthetic clips instead.
type Decoder interface {
	Decode(ctx context.Context, path string) (Clip, error)
	Encode(ctx context.Context, clip Clip, path string) error
}

// Tool bundles the ffmpeg and ffprobe binaries behind the Decoder interface.
// A non-zero Timeout bounds each decode or encode invocation.
type Tool struct {
	FFmpeg  string
	FFprobe string
	Timeout time.Duration
}

// NewTool constructs a Tool, falling back to PATH lookups for empty names.
func NewTool(ffmpegBinary, ffprobeBinary string) *Tool {
	tool := &Tool{FFmpeg: strings.TrimSpace(ffmpegBinary), FFprobe: strings.TrimSpace(ffprobeBinary)}
	if tool.FFmpeg == "" {
		tool.FFmpeg = "ffmpeg"
	}
	if tool.FFprobe == "" {
		tool.FFprobe = "ffprobe"
	}
	return tool
}

// WithTimeout returns a copy of the tool that bounds each invocation.
func (t *Tool) WithTimeout(timeout time.Duration) *Tool {
	clone := *t
	clone.Timeout = timeout
	return &clone
}

func (t *Tool) boundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.Timeout)
}

// Decode extracts interleaved f64le PCM from any container ffmpeg can read.
func (t *Tool) Decode(ctx context.Context, path string) (Clip, error) {
	ctx, cancel := t.boundContext(ctx)
	defer cancel()

	probe, err := Inspect(ctx, t.FFprobe, path)
	if err != nil {
		return Clip{}, mastering.Wrap(mastering.ErrDecode, "decode", "probe", path, err)
	}
	sampleRate := probe.SampleRate()
	channels := probe.Channels()
	if sampleRate <= 0 || channels <= 0 {
		return Clip{}, mastering.Wrap(mastering.ErrDecode, "decode", "probe", fmt.Sprintf("%s: no audio stream", path), nil)
	}

	cmd := exec.CommandContext(ctx, t.FFmpeg,
		"-v", "error", "-hide_banner",
		"-i", path,
		"-f", "f64le", "-acodec", "pcm_f64le",
		"-",
	)
	raw, err := cmd.Output()
	if err != nil {
		return Clip{}, mastering.Wrap(mastering.ErrDecode, "decode", "pcm", path, err)
	}

	samples := make([]float64, len(raw)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(raw[i*8:])
		samples[i] = math.Float64frombits(bits)
	}
	return Clip{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil
}

// Encode writes a clip to path; the container is chosen from the extension.
func (t *Tool) Encode(ctx context.Context, clip Clip, path string) error {
	ctx, cancel := t.boundContext(ctx)
	defer cancel()

	if clip.SampleRate <= 0 || clip.Channels <= 0 {
		return mastering.Wrap(mastering.ErrDecode, "encode", "pcm", "clip missing sample rate or channels", nil)
	}

	raw := make([]byte, len(clip.Samples)*8)
	for i, sample := range clip.Samples {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(sample))
	}

	cmd := exec.CommandContext(ctx, t.FFmpeg,
		"-v", "error", "-hide_banner", "-y",
		"-f", "f64le",
		"-ar", strconv.Itoa(clip.SampleRate),
		"-ac", strconv.Itoa(clip.Channels),
		"-i", "-",
		path,
	)
	cmd.Stdin = bytes.NewReader(raw)
	if output, err := cmd.CombinedOutput(); err != nil {
		return mastering.Wrap(mastering.ErrDecode, "encode", "pcm", strings.TrimSpace(string(output)), err)
	}
	return nil
}
