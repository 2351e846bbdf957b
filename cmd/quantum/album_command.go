package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantum/internal/catalog"
	"quantum/internal/classify"
)

func newAlbumCommand(ctx *commandContext) *cobra.Command {
	var (
		referenceFlags []string
		presetFlag     string
		workersFlag    int
	)

	cmd := &cobra.Command{
		Use:   "album <directory>",
		Short: "Master a directory as an album with a shared reference",
		Long: `Master every track in the directory against one shared reference
(blended from multiple references when several are supplied), then
suggest a track order that smooths loudness and tonal transitions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePresetFlag(presetFlag); err != nil {
				return err
			}
			resolver, err := ctx.newResolver()
			if err != nil {
				return err
			}
			candidates, _, err := resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(candidates) < 2 {
				return fmt.Errorf("album needs at least 2 tracks, got %d", len(candidates))
			}
			references, err := resolveReferences(cmd, ctx, referenceFlags)
			if err != nil {
				return err
			}
			plan := classify.Plan{
				Strategy:   classify.StrategyAlbum,
				Candidates: candidates,
				References: references,
				InputKind:  catalog.KindDirectory,
			}
			return runPlan(cmd, ctx, args[0], presetFlag, workersFlag, plan)
		},
	}

	cmd.Flags().StringArrayVarP(&referenceFlags, "reference", "r", nil, "Shared reference track (repeat to blend)")
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Preset override (skips genre inference)")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent mastering workers")

	return cmd
}
