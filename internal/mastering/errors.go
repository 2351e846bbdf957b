package mastering

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCandidates indicates the resolver produced an empty candidate set.
	ErrNoCandidates = errors.New("no candidates found")

	// ErrInvalidReferenceCount covers any reference count outside 2-5.
	ErrInvalidReferenceCount = errors.New("invalid reference count")

	// ErrTooManyReferences and ErrInsufficientReferences refine
	// ErrInvalidReferenceCount; errors.Is matches both the specific and the
	// umbrella sentinel.
	ErrTooManyReferences      = fmt.Errorf("%w: more than 5 references", ErrInvalidReferenceCount)
	ErrInsufficientReferences = fmt.Errorf("%w: fewer than 2 references", ErrInvalidReferenceCount)

	// ErrMastering marks failures reported by the external mastering engine.
	ErrMastering = errors.New("mastering engine error")

	// ErrDecode marks failures in the audio decode boundary.
	ErrDecode = errors.New("decode error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrMastering
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the whole invocation rather
// than being recovered per candidate. Classification and blending errors are
// fatal; per-candidate engine and decode failures are recoverable inside
// batch strategies.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrNoCandidates), errors.Is(err, ErrInvalidReferenceCount):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "mastering failure"
	}
	return strings.Join(parts, ": ")
}
