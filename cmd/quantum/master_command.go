package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantum/internal/catalog"
	"quantum/internal/classify"
	"quantum/internal/preset"
)

func newMasterCommand(ctx *commandContext) *cobra.Command {
	var (
		referenceFlags []string
		presetFlag     string
		workersFlag    int
		forceBlend     bool
	)

	cmd := &cobra.Command{
		Use:   "master <file|directory|archive|playlist|query>",
		Short: "Auto-detect the input shape and run the matching strategy",
		Long: `Resolve the input to a candidate set, classify it (single, batch,
album, or blended), and dispatch it to the mastering engine. A free-text
argument that matches no filesystem path is treated as a library search.`,
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
			references, err := resolveReferences(cmd, ctx, referenceFlags)
			if err != nil {
				return err
			}
			plan, err := classify.Classify(candidates, kind, classify.Options{
				References: references,
				ForceBlend: forceBlend,
			})
			if err != nil {
				return err
			}
			return runPlan(cmd, ctx, args[0], presetFlag, workersFlag, plan)
		},
	}

	cmd.Flags().StringArrayVarP(&referenceFlags, "reference", "r", nil, "Reference track (repeat for multi-reference blending)")
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Preset override (skips genre inference)")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent mastering workers (default from config)")
	cmd.Flags().BoolVar(&forceBlend, "blend", false, "Require multi-reference blending (fails with fewer than 2 references)")

	return cmd
}

// resolveReferences expands each --reference argument to exactly one
// audio file.
func resolveReferences(cmd *cobra.Command, ctx *commandContext, paths []string) ([]catalog.Candidate, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	resolver, err := ctx.newResolver()
	if err != nil {
		return nil, err
	}
	references := make([]catalog.Candidate, 0, len(paths))
	for _, path := range paths {
		candidates, _, err := resolver.Resolve(cmd.Context(), path)
		if err != nil {
			return nil, fmt.Errorf("resolve reference %s: %w", path, err)
		}
		if len(candidates) != 1 {
			return nil, fmt.Errorf("reference %s resolved to %d files, want exactly 1", path, len(candidates))
		}
		references = append(references, candidates[0])
	}
	return references, nil
}

func validatePresetFlag(name string) error {
	if name == "" || preset.Known(name) {
		return nil
	}
	return fmt.Errorf("unknown preset %q (known: %v)", name, preset.Names())
}
