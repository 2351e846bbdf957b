// Package sequence orders album tracks for smooth transitions and scores
// how cohesive the resulting order is.
package sequence

import (
	"math"
	"sort"

	"quantum/internal/analysis"
	"quantum/internal/catalog"
)

const (
	lufsWeight     = 0.6
	spectralWeight = 0.4
	lufsScale      = 4.0
)

// Track pairs a candidate with its measured descriptor.
type Track struct {
	Candidate  catalog.Candidate
	Descriptor analysis.Descriptor
}

// Result is a sequenced album with its cohesion score.
type Result struct {
	Tracks []Track

	// Cohesion is the mean compatibility of adjacent tracks on a 0-100
	// scale. Albums with fewer than two tracks score 100.
	Cohesion float64
}

// Compatibility scores how well two tracks sit next to each other on a
// 0-100 scale. Loudness jumps dominate the penalty; tonal balance shifts
// contribute the rest.
func Compatibility(a, b analysis.Descriptor) float64 {
	lufsPenalty := math.Abs(a.IntegratedLUFS-b.IntegratedLUFS) * lufsScale
	spectralPenalty := (math.Abs(a.LowShare-b.LowShare) + math.Abs(a.HighShare-b.HighShare)) * 100
	score := 100 - (lufsWeight*lufsPenalty + spectralWeight*spectralPenalty)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Order sequences tracks greedily: it opens with the track most
// compatible with the rest of the set, then repeatedly appends the
// remaining track most compatible with the current tail. The result does
// not depend on input order.
func Order(tracks []Track) Result {
	if len(tracks) < 2 {
		return Result{Tracks: append([]Track(nil), tracks...), Cohesion: 100}
	}

	pool := append([]Track(nil), tracks...)
	sort.Slice(pool, func(i, j int) bool { return pool[i].Candidate.Path < pool[j].Candidate.Path })

	ordered := make([]Track, 0, len(pool))
	start := mostCentral(pool)
	ordered = append(ordered, pool[start])
	pool = append(pool[:start], pool[start+1:]...)

	for len(pool) > 0 {
		tail := ordered[len(ordered)-1].Descriptor
		best, bestScore := 0, -1.0
		for i, track := range pool {
			if score := Compatibility(tail, track.Descriptor); score > bestScore {
				best, bestScore = i, score
			}
		}
		ordered = append(ordered, pool[best])
		pool = append(pool[:best], pool[best+1:]...)
	}

	return Result{Tracks: ordered, Cohesion: cohesion(ordered)}
}

// mostCentral returns the index of the track with the highest mean
// compatibility against every other track. Ties keep the earliest index,
// which is stable because the pool is path-sorted.
func mostCentral(tracks []Track) int {
	best, bestScore := 0, -1.0
	for i, track := range tracks {
		total := 0.0
		for j, other := range tracks {
			if i == j {
				continue
			}
			total += Compatibility(track.Descriptor, other.Descriptor)
		}
		mean := total / float64(len(tracks)-1)
		if mean > bestScore {
			best, bestScore = i, mean
		}
	}
	return best
}

func cohesion(tracks []Track) float64 {
	total := 0.0
	for i := 1; i < len(tracks); i++ {
		total += Compatibility(tracks[i-1].Descriptor, tracks[i].Descriptor)
	}
	return total / float64(len(tracks)-1)
}
