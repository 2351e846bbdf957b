package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"

	"quantum/internal/classify"
	"quantum/internal/deps"
	"quantum/internal/dispatch"
	"quantum/internal/logging"
	"quantum/internal/report"
)

// runPlan executes a classified plan under the workspace lock, persists
// the outcome, and prints the report. Exit semantics: single and album
// runs fail on any irrecoverable candidate; batch runs succeed with
// warnings when at least one candidate mastered.
func runPlan(cmd *cobra.Command, ctx *commandContext, input string, presetName string, workers int, plan classify.Plan) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	if err := deps.Verify(cfg); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "quantum.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another quantum run is active (lock %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	var progressWriter progress.Writer
	var progressSink dispatch.Progress
	if stdoutIsTerminal() {
		progressWriter = progress.NewWriter()
		progressWriter.SetOutputWriter(cmd.OutOrStdout())
		go progressWriter.Render()
		progressSink = progressWriter
	}

	dispatcher, err := ctx.newDispatcher(presetName, workers, progressSink)
	if err != nil {
		stopProgress(progressWriter)
		return err
	}

	outcome, dispatchErr := dispatcher.Dispatch(cmd.Context(), plan)
	stopProgress(progressWriter)
	if len(outcome.Tracks) > 0 {
		if store, storeErr := ctx.openStore(); storeErr == nil {
			if run, saveErr := store.SaveOutcome(cmd.Context(), input, presetName, outcome); saveErr != nil {
				logger.Warn("run history not recorded", logging.Error(saveErr))
			} else if reportPath, fileErr := report.WriteFile(cfg.ReportsDir(), run, input, outcome); fileErr != nil {
				logger.Warn("report file not written", logging.Error(fileErr))
			} else {
				logger.Info("report written", logging.String("path", reportPath))
			}
			_ = store.Close()
		} else {
			logger.Warn("run history unavailable", logging.Error(storeErr))
		}
		report.RenderOutcome(cmd.OutOrStdout(), input, outcome)
	}
	if dispatchErr != nil {
		return dispatchErr
	}

	failed := outcome.Failed()
	switch plan.Strategy {
	case classify.StrategyBatch:
		for _, track := range failed {
			fmt.Fprintf(os.Stderr, "warning: %s skipped: %v\n", track.Candidate.ID(), track.Err)
		}
	default:
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d tracks failed", len(failed), len(outcome.Tracks))
		}
	}
	return nil
}

// stopProgress halts the live progress render and waits for the final
// repaint so the report does not interleave with it.
func stopProgress(progressWriter progress.Writer) {
	if progressWriter == nil {
		return
	}
	progressWriter.Stop()
	for progressWriter.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
