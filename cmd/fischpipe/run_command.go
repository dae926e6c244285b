package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fischpipe/internal/corpus"
	"fischpipe/internal/pipeline"
	"fischpipe/internal/store"
)

var errRunFailed = errors.New("pipeline run finished with errors")

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		noPublish  bool
		batchSize  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run adapters, reconcile, enrich, validate and publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, _, err := ctx.service()
			if err != nil {
				return err
			}
			if noPublish {
				cfg.Pipeline.Publish = false
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Pipeline.BatchSize = max(0, batchSize)
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			runner, err := svc.Runner(corpus.NewFetchClient(cfg, svc), st)
			if err != nil {
				return err
			}
			runLog, runErr := runner.Run(cmd.Context())
			if runLog == nil {
				return runErr
			}

			if jsonOutput {
				if err := writeJSON(cmd, runLog); err != nil {
					return err
				}
			} else {
				printRunSummary(cmd, runLog)
			}
			if runErr != nil {
				return runErr
			}
			if !runLog.Succeeded() {
				return fmt.Errorf("%w (%d errors, see %s)", errRunFailed, runLog.Errors, cfg.RunLogPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run log as JSON")
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "Skip the publish step even when every step succeeds")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Run at most this many adapters (0 = all); overrides pipeline.batch_size")
	return cmd
}

func printRunSummary(cmd *cobra.Command, runLog *pipeline.RunLog) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Run "+runLog.RunID, colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, len(runLog.StepOrder))
	for _, name := range runLog.StepOrder {
		res := runLog.StepResults[name]
		note := res.Summary
		if res.Reason != "" {
			note = res.Reason
		}
		rows = append(rows, []string{
			name,
			string(res.Status),
			(time.Duration(res.ElapsedMS) * time.Millisecond).String(),
			truncate(note, 80),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Step", "Status", "Elapsed", "Summary"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	for _, detail := range runLog.Details {
		kind := stepStatusKind(runLog.StepResults[detail.Step].Status)
		fmt.Fprintln(out, renderStatusLine(detail.Step, kind, detail.Error, colorize))
		if tail := strings.TrimSpace(detail.StderrTail); tail != "" {
			for _, line := range strings.Split(tail, "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}

	kind := statusOK
	switch {
	case runLog.Errors > 0:
		kind = statusError
	case runLog.Skipped > 0:
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Result", kind, runLog.Headline(), colorize))

	switch {
	case runLog.Published:
		fmt.Fprintln(out, renderStatusLine("Publish", statusOK, "corpus published", colorize))
	case runLog.PublishError != "":
		fmt.Fprintln(out, renderStatusLine("Publish", statusError, runLog.PublishError, colorize))
	case runLog.Errors > 0:
		fmt.Fprintln(out, renderStatusLine("Publish", statusWarn, "skipped because steps errored", colorize))
	}
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
