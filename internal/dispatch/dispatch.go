// Package dispatch executes a processing plan against the external
// mastering engine, fanning independent work out across a bounded worker
// pool while keeping result order deterministic.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"golang.org/x/sync/errgroup"

	"quantum/internal/analysis"
	"quantum/internal/blend"
	"quantum/internal/catalog"
	"quantum/internal/classify"
	"quantum/internal/logging"
	"quantum/internal/mastering"
	"quantum/internal/media/ffmpeg"
	"quantum/internal/preset"
	"quantum/internal/sequence"
	"quantum/internal/textutil"
)

// MasteredTrack records one engine invocation. Err is set for candidates
// that were skipped after a recoverable failure.
type MasteredTrack struct {
	Candidate  catalog.Candidate
	Profile    string
	Preset     string
	Config     mastering.Config
	OutputPath string
	Err        error
}

// Succeeded reports whether the engine produced output for this track.
func (t MasteredTrack) Succeeded() bool { return t.Err == nil }

// LogEntry is one line of the dispatch journal.
type LogEntry struct {
	At        time.Time
	Candidate string
	Strategy  classify.Strategy
	Preset    string
	Profile   string
	Success   bool
	Message   string
}

// Outcome is the full result of executing one plan. Tracks preserve
// candidate order (or profile label order for blended plans) regardless
// of worker completion order.
type Outcome struct {
	Strategy classify.Strategy
	Tracks   []MasteredTrack
	Album    *sequence.Result
	Log      []LogEntry
}

// Succeeded counts tracks the engine completed.
func (o Outcome) Succeeded() int {
	n := 0
	for _, track := range o.Tracks {
		if track.Succeeded() {
			n++
		}
	}
	return n
}

// Failed lists candidates that were skipped.
func (o Outcome) Failed() []MasteredTrack {
	var failed []MasteredTrack
	for _, track := range o.Tracks {
		if !track.Succeeded() {
			failed = append(failed, track)
		}
	}
	return failed
}

// Progress receives one tracker per fanned-out plan. go-pretty's
// progress.Writer satisfies it.
type Progress interface {
	AppendTracker(*progress.Tracker)
}

// Options tunes a Dispatcher.
type Options struct {
	Workers       int
	MastersDir    string
	OutputFormat  string
	BitDepth      int
	PresetName    string // explicit preset override, empty for genre inference
	DefaultPreset string // fallback when no genre is inferred
	Progress      Progress
}

func (o *Options) normalize() {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.OutputFormat == "" {
		o.OutputFormat = "wav"
	}
	if o.DefaultPreset == "" {
		o.DefaultPreset = preset.Default
	}
}

// Dispatcher routes plans to the mastering engine.
type Dispatcher struct {
	engine  mastering.Engine
	decoder ffmpeg.Decoder
	blender *blend.Blender
	opts    Options
	logger  *slog.Logger
}

// New constructs a Dispatcher. The blender is only consulted for plans
// that carry multiple references.
func New(engine mastering.Engine, decoder ffmpeg.Decoder, blender *blend.Blender, opts Options, logger *slog.Logger) *Dispatcher {
	opts.normalize()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		engine:  engine,
		decoder: decoder,
		blender: blender,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Dispatch executes the plan and returns every attempted track in
// deterministic order. Fatal errors abort the invocation; recoverable
// per-candidate failures are recorded on the returned tracks.
func (d *Dispatcher) Dispatch(ctx context.Context, plan classify.Plan) (Outcome, error) {
	journal := &journal{}
	var (
		outcome Outcome
		err     error
	)
	switch plan.Strategy {
	case classify.StrategySingle:
		outcome, err = d.dispatchSingle(ctx, plan, journal)
	case classify.StrategyBatch:
		outcome, err = d.dispatchBatch(ctx, plan, journal)
	case classify.StrategyAlbum:
		outcome, err = d.dispatchAlbum(ctx, plan, journal)
	case classify.StrategyBlended:
		outcome, err = d.dispatchBlended(ctx, plan, journal)
	default:
		return Outcome{}, mastering.Wrap(mastering.ErrMastering, "dispatch", "plan",
			fmt.Sprintf("unknown strategy %q", plan.Strategy), nil)
	}
	outcome.Strategy = plan.Strategy
	outcome.Log = journal.snapshot()
	return outcome, err
}

func (d *Dispatcher) dispatchSingle(ctx context.Context, plan classify.Plan, journal *journal) (Outcome, error) {
	target := plan.Candidates[0]
	name, cfg := d.presetFor(target)
	req := mastering.Request{
		TargetPath: target.Path,
		OutputPath: d.outputPath(target.Stem(), ""),
		Config:     cfg,
	}
	if len(plan.References) > 0 {
		req.ReferencePath = plan.References[0].Path
	}

	track := d.master(ctx, target, req, name, "", plan.Strategy, journal)
	if track.Err != nil {
		return Outcome{Tracks: []MasteredTrack{track}}, track.Err
	}
	return Outcome{Tracks: []MasteredTrack{track}}, nil
}

func (d *Dispatcher) dispatchBatch(ctx context.Context, plan classify.Plan, journal *journal) (Outcome, error) {
	// Resolve each genre's preset once and reuse it across the group.
	type resolved struct {
		name string
		cfg  mastering.Config
	}
	presets := make(map[catalog.Genre]resolved)
	genres := make([]catalog.Genre, len(plan.Candidates))
	for i, cand := range plan.Candidates {
		genre := d.genreOf(cand)
		genres[i] = genre
		if _, ok := presets[genre]; !ok {
			name, cfg := d.presetForGenre(genre)
			presets[genre] = resolved{name: name, cfg: cfg}
		}
	}

	tracks := make([]MasteredTrack, len(plan.Candidates))
	tracker := d.tracker(fmt.Sprintf("Mastering %d tracks", len(plan.Candidates)), len(plan.Candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.opts.Workers)
	for i, cand := range plan.Candidates {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		entry := presets[genres[i]]
		group.Go(func() error {
			req := mastering.Request{
				TargetPath: cand.Path,
				OutputPath: d.outputPath(cand.Stem(), ""),
				Config:     entry.cfg,
			}
			tracks[i] = d.master(groupCtx, cand, req, entry.name, "", plan.Strategy, journal)
			advance(tracker)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Outcome{Tracks: tracks}, err
	}
	finish(tracker)

	outcome := Outcome{Tracks: tracks}
	if outcome.Succeeded() == 0 {
		return outcome, mastering.Wrap(mastering.ErrMastering, "dispatch", "batch",
			fmt.Sprintf("all %d candidates failed", len(tracks)), nil)
	}
	return outcome, nil
}

func (d *Dispatcher) dispatchAlbum(ctx context.Context, plan classify.Plan, journal *journal) (Outcome, error) {
	referencePath, profileLabel, err := d.albumReference(ctx, plan)
	if err != nil {
		return Outcome{}, err
	}
	name, cfg := d.presetForGenre(catalog.DominantGenre(plan.Candidates))

	tracks := make([]MasteredTrack, len(plan.Candidates))
	for i, cand := range plan.Candidates {
		// Cooperative cancellation between engine calls; an in-flight
		// call runs to completion.
		if err := ctx.Err(); err != nil {
			return Outcome{Tracks: tracks[:i]}, err
		}
		req := mastering.Request{
			TargetPath:    cand.Path,
			ReferencePath: referencePath,
			OutputPath:    d.outputPath(cand.Stem(), ""),
			Config:        cfg,
		}
		tracks[i] = d.master(ctx, cand, req, name, profileLabel, plan.Strategy, journal)
	}

	outcome := Outcome{Tracks: tracks}
	if outcome.Succeeded() == 0 {
		return outcome, mastering.Wrap(mastering.ErrMastering, "dispatch", "album",
			fmt.Sprintf("all %d tracks failed", len(tracks)), nil)
	}

	album := d.sequenceAlbum(ctx, outcome.Tracks)
	outcome.Album = &album
	return outcome, nil
}

func (d *Dispatcher) dispatchBlended(ctx context.Context, plan classify.Plan, journal *journal) (Outcome, error) {
	target := plan.Candidates[0]
	descriptors, err := d.measureReferences(ctx, plan.References)
	if err != nil {
		return Outcome{}, err
	}
	blendPlan, err := blend.BuildPlan(plan.References, descriptors)
	if err != nil {
		return Outcome{}, err
	}
	rendered, err := d.blender.Render(ctx, blendPlan, target.Stem())
	if err != nil {
		return Outcome{}, err
	}

	name, cfg := d.presetFor(target)
	tracks := make([]MasteredTrack, len(blendPlan.Profiles))
	tracker := d.tracker("Mastering blend variants", len(blendPlan.Profiles))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.opts.Workers)
	for i, profile := range blendPlan.Profiles {
		referencePath := rendered[i]
		group.Go(func() error {
			req := mastering.Request{
				TargetPath:    target.Path,
				ReferencePath: referencePath,
				OutputPath:    d.outputPath(target.Stem(), "_"+profile.Label),
				Config:        cfg,
			}
			tracks[i] = d.master(groupCtx, target, req, name, profile.Label, plan.Strategy, journal)
			advance(tracker)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Outcome{Tracks: tracks}, err
	}
	finish(tracker)

	outcome := Outcome{Tracks: tracks}
	if outcome.Succeeded() == 0 {
		return outcome, mastering.Wrap(mastering.ErrMastering, "dispatch", "blended",
			"all 4 profile variants failed", nil)
	}
	return outcome, nil
}

// master runs one engine call and journals the result.
func (d *Dispatcher) master(ctx context.Context, cand catalog.Candidate, req mastering.Request, presetName, profile string, strategy classify.Strategy, journal *journal) MasteredTrack {
	track := MasteredTrack{
		Candidate:  cand,
		Profile:    profile,
		Preset:     presetName,
		Config:     req.Config,
		OutputPath: req.OutputPath,
	}
	err := d.engine.Master(ctx, req)
	if err != nil {
		track.Err = mastering.Wrap(mastering.ErrMastering, "dispatch", cand.ID(), "", err)
		d.logger.Warn("candidate skipped",
			logging.String("candidate", cand.ID()),
			logging.String("strategy", string(strategy)),
			logging.Error(track.Err))
	} else {
		d.logger.Info("candidate mastered",
			logging.String("candidate", cand.ID()),
			logging.String("strategy", string(strategy)),
			logging.String("preset", presetName),
			logging.String("output", track.OutputPath))
	}
	journal.record(LogEntry{
		At:        time.Now(),
		Candidate: cand.ID(),
		Strategy:  strategy,
		Preset:    presetName,
		Profile:   profile,
		Success:   err == nil,
		Message:   errMessage(err),
	})
	return track
}

// albumReference picks the shared reference for an album plan: a blended
// equal-weight profile when several references are supplied, the lone
// reference when one is, and preset-only mastering otherwise.
func (d *Dispatcher) albumReference(ctx context.Context, plan classify.Plan) (path, profile string, err error) {
	switch {
	case len(plan.References) >= blend.MinReferences:
		descriptors, err := d.measureReferences(ctx, plan.References)
		if err != nil {
			return "", "", err
		}
		blendPlan, err := blend.BuildPlan(plan.References, descriptors)
		if err != nil {
			return "", "", err
		}
		rendered, err := d.blender.Render(ctx, blendPlan, albumStem(plan.Candidates))
		if err != nil {
			return "", "", err
		}
		return rendered[0], blendPlan.Profiles[0].Label, nil
	case len(plan.References) == 1:
		return plan.References[0].Path, "", nil
	default:
		return "", "", nil
	}
}

func (d *Dispatcher) sequenceAlbum(ctx context.Context, tracks []MasteredTrack) sequence.Result {
	seqTracks := make([]sequence.Track, 0, len(tracks))
	for _, track := range tracks {
		if !track.Succeeded() {
			continue
		}
		entry := sequence.Track{Candidate: track.Candidate}
		clip, err := d.decoder.Decode(ctx, track.OutputPath)
		if err != nil {
			// Unreadable output sequences as silence, not as the
			// zero descriptor's full loudness.
			entry.Descriptor = analysis.Descriptor{IntegratedLUFS: analysis.SilenceFloorLUFS}
			d.logger.Warn("sequencing without descriptor",
				logging.String("candidate", track.Candidate.ID()),
				logging.Error(err))
		} else {
			entry.Descriptor = analysis.Measure(clip)
		}
		seqTracks = append(seqTracks, entry)
	}
	return sequence.Order(seqTracks)
}

func (d *Dispatcher) measureReferences(ctx context.Context, refs []catalog.Candidate) ([]analysis.Descriptor, error) {
	descriptors := make([]analysis.Descriptor, 0, len(refs))
	for _, ref := range refs {
		clip, err := d.decoder.Decode(ctx, ref.Path)
		if err != nil {
			return nil, mastering.Wrap(mastering.ErrDecode, "dispatch", "measure", ref.Path, err)
		}
		descriptors = append(descriptors, analysis.Measure(clip))
	}
	return descriptors, nil
}

func (d *Dispatcher) presetFor(cand catalog.Candidate) (string, mastering.Config) {
	return d.presetForGenre(d.genreOf(cand))
}

func (d *Dispatcher) presetForGenre(genre catalog.Genre) (string, mastering.Config) {
	var name string
	switch {
	case d.opts.PresetName != "":
		name = d.opts.PresetName
	case genre != "" && genre != catalog.GenreGeneral:
		name = preset.NameForGenre(genre)
	default:
		name = d.opts.DefaultPreset
	}
	cfg := preset.Lookup(name)
	if d.opts.BitDepth > 0 {
		cfg.BitDepth = d.opts.BitDepth
	}
	return name, cfg
}

func (d *Dispatcher) genreOf(cand catalog.Candidate) catalog.Genre {
	if cand.Genre != "" {
		return cand.Genre
	}
	return catalog.DetectGenre(cand.Path)
}

func (d *Dispatcher) outputPath(stem, suffix string) string {
	return filepath.Join(d.opts.MastersDir, textutil.SanitizeStem(stem)+suffix+"_mastered."+d.opts.OutputFormat)
}

// tracker registers a progress tracker covering total engine calls, or
// returns nil when no progress sink is configured.
func (d *Dispatcher) tracker(message string, total int) *progress.Tracker {
	if d.opts.Progress == nil {
		return nil
	}
	tracker := &progress.Tracker{Message: message, Total: int64(total)}
	d.opts.Progress.AppendTracker(tracker)
	return tracker
}

func advance(tracker *progress.Tracker) {
	if tracker != nil {
		tracker.Increment(1)
	}
}

func finish(tracker *progress.Tracker) {
	if tracker != nil {
		tracker.MarkAsDone()
	}
}

func albumStem(candidates []catalog.Candidate) string {
	if len(candidates) == 0 {
		return "album"
	}
	dir := filepath.Base(filepath.Dir(candidates[0].Path))
	if dir == "." || dir == string(filepath.Separator) {
		return "album"
	}
	return dir
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
