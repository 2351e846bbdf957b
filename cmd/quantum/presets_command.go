package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantum/internal/preset"
	"quantum/internal/report"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "presets",
		Short:       "List the available mastering presets",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(preset.Names()))
			for _, name := range preset.Names() {
				cfg := preset.Lookup(name)
				rms := "-"
				if cfg.RMSCorrectionSteps > 0 {
					rms = fmt.Sprintf("%d", cfg.RMSCorrectionSteps)
				}
				rows = append(rows, []string{
					name,
					fmt.Sprintf("%.2f", cfg.Threshold),
					rms,
					yesNo(cfg.Limiter),
					yesNo(cfg.Normalize),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderTable(cmd.OutOrStdout(),
				[]string{"Preset", "Threshold", "RMS Steps", "Limiter", "Normalize"},
				rows,
				1, 2,
			))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
