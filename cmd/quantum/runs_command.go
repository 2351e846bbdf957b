package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantum/internal/report"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent mastering runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			report.RenderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum runs to list")

	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-track results of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runID, err := expandRunID(cmd, store, args[0])
			if err != nil {
				return err
			}
			tracks, err := store.Tracks(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				return fmt.Errorf("run %s has no recorded tracks", args[0])
			}

			rows := make([][]string, 0, len(tracks))
			for _, track := range tracks {
				status := "ok"
				detail := track.OutputPath
				if !track.Success {
					status = "skipped"
					detail = track.ErrorMessage
				}
				rows = append(rows, []string{
					track.Candidate,
					track.Preset,
					track.Profile,
					status,
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderTable(cmd.OutOrStdout(),
				[]string{"Track", "Preset", "Profile", "Status", "Detail"},
				rows,
			))
			return nil
		},
	}
}

// expandRunID accepts either a full run id or the 8-character prefix the
// listing shows. Prefixes are matched against the full history.
func expandRunID(cmd *cobra.Command, store *report.Store, id string) (string, error) {
	if len(id) >= 36 {
		return id, nil
	}
	ids, err := store.FindRunIDs(cmd.Context(), id)
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no run matches id %s", id)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id %s is ambiguous", id)
	}
}
