package mastering

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"testing"
)

func captureCommand(t *testing.T, name *string, args *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, binary string, argv ...string) *exec.Cmd {
		*name = binary
		*args = append([]string(nil), argv...)
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { commandContext = original })
}

func TestCLIMasterBuildsArguments(t *testing.T) {
	var binary string
	var args []string
	captureCommand(t, &binary, &args)

	cli := NewCLI(WithBinary("mg"))
	err := cli.Master(context.Background(), Request{
		TargetPath:    "/in/song.wav",
		ReferencePath: "/refs/ref.wav",
		OutputPath:    "/out/song_mastered.wav",
		Config: Config{
			Threshold:          0.85,
			RMSCorrectionSteps: 6,
			Limiter:            true,
			Normalize:          true,
			BitDepth:           24,
		},
	})
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if binary != "mg" {
		t.Fatalf("binary = %s", binary)
	}
	for _, want := range [][]string{
		{"--target", "/in/song.wav"},
		{"--reference", "/refs/ref.wav"},
		{"--result", "/out/song_mastered.wav"},
		{"--threshold", "0.85"},
		{"--rms-steps", "6"},
		{"--bit-depth", "24"},
	} {
		idx := slices.Index(args, want[0])
		if idx < 0 || idx+1 >= len(args) || args[idx+1] != want[1] {
			t.Fatalf("args missing %v: %v", want, args)
		}
	}
	if slices.Contains(args, "--no-limiter") || slices.Contains(args, "--no-normalize") {
		t.Fatalf("unexpected disable flags: %v", args)
	}
}

func TestCLIMasterPresetOnlyOmitsReference(t *testing.T) {
	var binary string
	var args []string
	captureCommand(t, &binary, &args)

	cli := NewCLI()
	err := cli.Master(context.Background(), Request{
		TargetPath: "/in/song.wav",
		OutputPath: "/out/song_mastered.wav",
		Config:     Config{Threshold: 0.9, Limiter: false, Normalize: false},
	})
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if binary != "matchering" {
		t.Fatalf("binary = %s", binary)
	}
	if slices.Contains(args, "--reference") {
		t.Fatalf("preset-only run should omit --reference: %v", args)
	}
	if !slices.Contains(args, "--no-limiter") || !slices.Contains(args, "--no-normalize") {
		t.Fatalf("disable flags missing: %v", args)
	}
}

func TestCLIMasterValidatesRequest(t *testing.T) {
	cli := NewCLI()
	cases := []Request{
		{OutputPath: "/out/x.wav", Config: Config{Threshold: 0.9}},
		{TargetPath: "/in/x.wav", Config: Config{Threshold: 0.9}},
		{TargetPath: "/in/x.wav", OutputPath: "/out/x.wav", Config: Config{Threshold: 1.5}},
	}
	for i, req := range cases {
		if err := cli.Master(context.Background(), req); !errors.Is(err, ErrMastering) {
			t.Fatalf("case %d: err = %v, want ErrMastering", i, err)
		}
	}
}

func TestWrapTagsSentinels(t *testing.T) {
	err := Wrap(ErrDecode, "catalog", "decode", "bad header", errors.New("eof"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if IsFatal(err) {
		t.Fatal("decode errors are recoverable inside a batch")
	}
	if !IsFatal(Wrap(ErrNoCandidates, "catalog", "resolve", "", nil)) {
		t.Fatal("empty candidate sets are fatal")
	}
	if !IsFatal(ErrTooManyReferences) {
		t.Fatal("reference count violations are fatal")
	}
}
