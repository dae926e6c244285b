package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"fischpipe/internal/enrich"
	"fischpipe/internal/reconcile"
)

var errStructural = errors.New("corpus has structural errors")

type reconcileSummary struct {
	Records    int               `json:"records"`
	OnlyA      int               `json:"onlyA"`
	OnlyB      int               `json:"onlyB"`
	Both       int               `json:"both"`
	Dropped    []reconcile.Issue `json:"dropped"`
	Duplicates []reconcile.Issue `json:"duplicates"`
	Coerced    []reconcile.Issue `json:"coerced"`
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "reconcile [kind...]",
		Short: "Merge the raw source artifacts into canonical artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, _, err := ctx.service()
			if err != nil {
				return err
			}
			kinds, err := selectKinds(cfg, args)
			if err != nil {
				return err
			}
			results := make(map[string]reconcileSummary, len(kinds))
			rows := make([][]string, 0, len(kinds))
			for _, kind := range kinds {
				res, err := svc.Reconcile(cmd.Context(), kind)
				if err != nil {
					return err
				}
				results[kind] = reconcileSummary{
					Records:    len(res.Records),
					OnlyA:      res.OnlyA,
					OnlyB:      res.OnlyB,
					Both:       res.Both,
					Dropped:    res.Dropped,
					Duplicates: res.Duplicates,
					Coerced:    res.Coerced,
				}
				rows = append(rows, []string{
					kind,
					strconv.Itoa(len(res.Records)),
					strconv.Itoa(res.OnlyA),
					strconv.Itoa(res.OnlyB),
					strconv.Itoa(res.Both),
					strconv.Itoa(len(res.Dropped)),
					strconv.Itoa(len(res.Duplicates)),
					strconv.Itoa(len(res.Coerced)),
				})
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Kind", "Records", cfg.Sources.A + " only", cfg.Sources.B + " only", "Both", "Dropped", "Duplicates", "Coerced"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "enrich [kind...]",
		Short: "Compute derived fields for canonical artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, _, err := ctx.service()
			if err != nil {
				return err
			}
			kinds, err := selectKinds(cfg, args)
			if err != nil {
				return err
			}
			results := make(map[string]enrich.Stats, len(kinds))
			rows := make([][]string, 0, len(kinds))
			for _, kind := range kinds {
				stats, err := svc.Enrich(cmd.Context(), kind)
				if err != nil {
					return err
				}
				results[kind] = stats
				rows = append(rows, []string{
					kind,
					strconv.Itoa(stats.Records),
					strconv.Itoa(stats.Generated),
					strconv.Itoa(stats.HandAuthored),
					strconv.Itoa(stats.CarriedForward),
				})
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Kind", "Records", "Generated", "Hand-authored", "Carried forward"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate enriched artifacts and write the health report",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, _, err := ctx.service()
			if err != nil {
				return err
			}
			report, err := svc.Validate(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				kinds := make([]string, 0, len(report.Entities))
				for kind := range report.Entities {
					kinds = append(kinds, kind)
				}
				sort.Strings(kinds)
				rows := make([][]string, 0, len(kinds))
				for _, kind := range kinds {
					er := report.Entities[kind]
					rows = append(rows, []string{
						kind,
						strconv.Itoa(er.Records),
						strconv.Itoa(len(er.Errors)),
						strconv.Itoa(len(er.Warnings)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Kind", "Records", "Errors", "Warnings"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				))
				for _, kind := range kinds {
					for _, issue := range report.Entities[kind].Errors {
						label := kind
						if issue.ID != "" {
							label = kind + "/" + issue.ID
						}
						fmt.Fprintln(out, renderStatusLine(label, statusError, fmt.Sprintf("%s: %s", issue.Code, issue.Message), colorize))
					}
				}
				kind := statusOK
				if report.ExitCode() != 0 {
					kind = statusError
				} else if report.Health.TotalWarnings > 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Health", kind,
					fmt.Sprintf("score %.2f grade %s (coverage %.2f%%)", report.Health.Score, report.Health.Grade, report.Health.CoveragePct),
					colorize))
				fmt.Fprintln(out, renderStatusLine("Report", statusInfo, cfg.HealthReportPath(), colorize))
			}
			if report.ExitCode() != 0 {
				return fmt.Errorf("%w: %d", errStructural, report.Health.TotalErrors)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the health report as JSON")
	return cmd
}
