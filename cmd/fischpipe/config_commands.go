package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fischpipe/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the fischpipe configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				switch _, err := os.Stat(target); {
				case err == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Point [[pipeline.adapters]] at your scrapers, then run `fischpipe check`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

// initTarget expands an explicit --path or falls back to the default location.
func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and entity schema and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			// service() also loads the entity schema and checks every kind against it.
			_, cfg, _, err := ctx.service()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Data directory: %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Sources: a=%s b=%s\n", cfg.Sources.A, cfg.Sources.B)
			fmt.Fprintf(out, "Adapters: %d, entities: %s\n", len(cfg.Pipeline.Adapters), strings.Join(cfg.Pipeline.Entities, ", "))
			if len(cfg.Pipeline.Adapters) > 0 {
				rows := make([][]string, 0, len(cfg.Pipeline.Adapters))
				for i := range cfg.Pipeline.Adapters {
					a := &cfg.Pipeline.Adapters[i]
					kind := "command"
					if len(a.URLs) > 0 {
						kind = strconv.Itoa(len(a.URLs)) + " urls"
					}
					rows = append(rows, []string{a.Name, a.Entity, cfg.SourceLabel(a.Source), kind, cfg.StepTimeout(a).String()})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Adapter", "Entity", "Source", "Kind", "Timeout"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
