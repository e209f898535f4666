package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wfmassist/internal/config"
)

// usageError marks CLI and configuration failures that exit with code 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

type rootFlags struct {
	configFile string
	configDir  string
}

// main runs the wfmassist CLI.
// Params: process arguments.
// Returns: exit code 2 for usage/config errors and 1 for runtime errors.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err.Error())
		var usage usageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "wfmassist",
		Short:         "Workforce management assistant dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config-file", "", "path to one TOML config file")
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "path to directory with TOML config fragments")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.AddCommand(serveCmd(flags))
	root.AddCommand(scenarioCmd(flags))
	return root
}

// loadConfig resolves config source from persistent flags.
// Params: root flags.
// Returns: validated config or usage error.
func loadConfig(flags *rootFlags) (config.Config, error) {
	source, err := config.FromCLI(flags.configFile, flags.configDir)
	if err != nil {
		return config.Config{}, usageError{err: err}
	}
	cfg, err := config.LoadSnapshot(source)
	if err != nil {
		return config.Config{}, usageError{err: err}
	}
	return cfg, nil
}
