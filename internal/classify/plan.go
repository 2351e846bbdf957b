// Package classify inspects a resolved candidate set and decides which
// processing strategy to run. The decision is pure: all filesystem and
// metadata work happens in the resolver before classification.
package classify

import (
	"quantum/internal/catalog"
)

// Strategy identifies the processing path a plan dispatches to.
type Strategy string

const (
	// StrategySingle masters one target against one reference.
	StrategySingle Strategy = "single"
	// StrategyBatch masters each candidate independently, grouped by genre
	// preset.
	StrategyBatch Strategy = "batch"
	// StrategyAlbum masters all candidates against a shared reference and
	// sequences the results.
	StrategyAlbum Strategy = "album"
	// StrategyBlended masters one target once per blend profile.
	StrategyBlended Strategy = "blended"
)

// Plan is the closed variant produced by Classify and consumed exactly once
// by the dispatcher.
type Plan struct {
	Strategy   Strategy
	Candidates []catalog.Candidate
	// References holds explicitly supplied reference tracks: one for
	// single/album plans, two to five for blended plans, empty when the
	// operator has not supplied any yet.
	References []catalog.Candidate
	// InputKind records what the raw input was, for the run report.
	InputKind catalog.InputKind
}
