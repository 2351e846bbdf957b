package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantum/internal/catalog"
	"quantum/internal/classify"
)

func newBlendCommand(ctx *commandContext) *cobra.Command {
	var (
		referenceFlags []string
		presetFlag     string
		workersFlag    int
	)

	cmd := &cobra.Command{
		Use:   "blend <target>",
		Short: "Master one target against 2-5 blended references",
		Long: `Blend the supplied references into four weighted profiles (equal,
lead-forward, tail-forward, energy-balanced) and master the target once
against each, producing four labeled variants for comparison.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePresetFlag(presetFlag); err != nil {
				return err
			}
			resolver, err := ctx.newResolver()
			if err != nil {
				return err
			}
			candidates, kind, err := resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(candidates) != 1 || kind != catalog.KindFile {
				return fmt.Errorf("blend needs a single target file, got %d candidates", len(candidates))
			}
			references, err := resolveReferences(cmd, ctx, referenceFlags)
			if err != nil {
				return err
			}
			plan, err := classify.Classify(candidates, kind, classify.Options{
				References: references,
				ForceBlend: true,
			})
			if err != nil {
				return err
			}
			return runPlan(cmd, ctx, args[0], presetFlag, workersFlag, plan)
		},
	}

	cmd.Flags().StringArrayVarP(&referenceFlags, "reference", "r", nil, "Reference track (2-5 required)")
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Preset override for the engine config")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent mastering workers")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}
