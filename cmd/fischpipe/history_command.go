package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fischpipe/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded pipeline runs, or show one run's steps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if len(args) == 1 {
				return showRun(cmd, st, args[0], jsonOutput)
			}

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					strconv.Itoa(run.OK),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Errors),
					run.Elapsed.Round(time.Millisecond).String(),
					yesNo(run.Published),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "OK", "Skipped", "Errors", "Elapsed", "Published"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 = all)")
	return cmd
}

func showRun(cmd *cobra.Command, st *store.Store, runID string, jsonOutput bool) error {
	run, err := st.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	if jsonOutput {
		return writeJSON(cmd, run)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, len(run.Steps))
	for _, step := range run.Steps {
		note := step.Summary
		if step.Reason != "" {
			note = step.Reason
		}
		rows = append(rows, []string{step.Name, step.Status, step.Elapsed.String(), truncate(note, 80)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Step", "Status", "Elapsed", "Summary"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
