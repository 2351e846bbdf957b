package classify

import (
	"fmt"
	"path/filepath"
	"regexp"

	"quantum/internal/catalog"
	"quantum/internal/mastering"
)

const (
	// Share of numbered filenames above which a directory reads as an album.
	albumNumberedShare = 0.6

	// Single-directory collections in this size range read as albums even
	// without track numbering.
	albumMinTracks = 3
	albumMaxTracks = 30

	maxReferences = 5
	minReferences = 2
)

var trackNumberPattern = regexp.MustCompile(`(?i)^\d+[\s\-._]|track\s*\d+|cd\d+`)

// Options carries the classification inputs beyond the candidate set.
type Options struct {
	References []catalog.Candidate
	// ForceBlend marks an explicit blend request; with fewer than two
	// references it fails instead of quietly degrading to a single master.
	ForceBlend bool
}

// Classify maps a resolved candidate set onto a processing plan.
//
// Tie-break: when both batch signals (mixed genre tags) and album signals
// (track numbering, single shared directory) are present, album structure
// wins; positional evidence outweighs genre evidence.
func Classify(candidates []catalog.Candidate, kind catalog.InputKind, opts Options) (Plan, error) {
	if len(candidates) == 0 {
		return Plan{}, mastering.Wrap(mastering.ErrNoCandidates, "classify", "", string(kind), nil)
	}

	refCount := len(opts.References)
	if refCount > maxReferences {
		return Plan{}, mastering.Wrap(mastering.ErrTooManyReferences, "classify", "references",
			fmt.Sprintf("%d supplied, maximum is %d", refCount, maxReferences), nil)
	}
	if opts.ForceBlend && refCount < minReferences {
		return Plan{}, mastering.Wrap(mastering.ErrInsufficientReferences, "classify", "references",
			fmt.Sprintf("%d supplied, blending needs at least %d; run a single master instead", refCount, minReferences), nil)
	}

	plan := Plan{Candidates: candidates, References: opts.References, InputKind: kind}

	if len(candidates) == 1 {
		if refCount >= minReferences {
			plan.Strategy = StrategyBlended
		} else {
			plan.Strategy = StrategySingle
		}
		return plan, nil
	}

	if looksLikeAlbum(candidates) {
		plan.Strategy = StrategyAlbum
	} else {
		plan.Strategy = StrategyBatch
	}
	return plan, nil
}

// looksLikeAlbum applies the album heuristics: mostly-numbered tracks, or a
// plausibly sized set sharing one directory.
func looksLikeAlbum(candidates []catalog.Candidate) bool {
	numbered := 0
	dirs := make(map[string]struct{}, 1)
	for _, candidate := range candidates {
		if trackNumberPattern.MatchString(candidate.Stem()) {
			numbered++
		}
		dirs[filepath.Dir(candidate.Path)] = struct{}{}
	}

	if float64(numbered) >= float64(len(candidates))*albumNumberedShare {
		return true
	}
	if len(dirs) == 1 && len(candidates) >= albumMinTracks && len(candidates) <= albumMaxTracks {
		return true
	}
	return false
}
