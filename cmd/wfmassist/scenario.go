package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wfmassist/internal/app"
	"wfmassist/internal/logging"
	"wfmassist/internal/scenario"
	"wfmassist/internal/templatefmt"
)

const previewWidth = 72

func scenarioCmd(flags *rootFlags) *cobra.Command {
	var (
		asJSON bool
		full   bool
	)
	cmd := &cobra.Command{
		Use:   "scenario <name>",
		Short: "Replay a scripted dashboard session offline",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := scenario.Lookup(args[0])
			if !ok {
				return usageError{err: fmt.Errorf("unknown scenario %q (known: %s)", args[0], strings.Join(scenario.Names(), ", "))}
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			opts, err := app.DashboardOptions(cfg, nil, logging.Discard(), nil)
			if err != nil {
				return usageError{err: err}
			}
			report, err := scenario.Run(s, opts)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			renderReport(cmd.OutOrStdout(), report, full)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().BoolVar(&full, "full", false, "print full message bodies")
	cmd.AddCommand(scenarioListCmd())
	return cmd
}

func scenarioListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scenarios := make([]scenario.Scenario, 0)
			for _, name := range scenario.Names() {
				s, _ := scenario.Lookup(name)
				scenarios = append(scenarios, s)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), scenarios)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Name", "Steps", "Duration", "Description"})
			for _, s := range scenarios {
				tw.AppendRow(table.Row{s.Name, len(s.Steps), templatefmt.FormatDuration(s.Duration()), s.Description})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func renderReport(out io.Writer, report scenario.Report, full bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetTitle("scenario " + report.Scenario)
	tw.AppendHeader(table.Row{"#", "At", "Sender", "Kind", "Text"})
	for _, entry := range report.Entries {
		tw.AppendRow(table.Row{
			entry.Message.Seq,
			"+" + templatefmt.FormatDuration(entry.Offset),
			entry.Message.Sender,
			entry.Message.Kind,
			messageText(entry.Message.Text, full),
		})
	}
	final := report.Final
	tw.AppendFooter(table.Row{
		"", "+" + templatefmt.FormatDuration(report.Duration), "", "final",
		fmt.Sprintf("billing SL %d%% | AI %d%% | cancellations %d | waiting %t",
			final.State.ServiceLevels.Billing, final.State.Volumes.AIHandling, final.State.Volumes.Cancellations, final.Alert.Waiting),
	})
	tw.Render()
}

func messageText(text string, full bool) string {
	if full {
		return text
	}
	line, _, _ := strings.Cut(text, "\n")
	if runes := []rune(line); len(runes) > previewWidth {
		line = string(runes[:previewWidth-1]) + "…"
	}
	return line
}

func printJSON(out io.Writer, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}
