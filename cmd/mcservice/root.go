// Command mcservice is the CLI front end for the launcher core: one
// subcommand per command-surface operation, JSON in and JSON out so any
// frontend can shell out to it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/paths"
	"github.com/quasar/launchercore/internal/service"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	dataDir    string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "mcservice",
	Short:         "Minecraft launcher core service",
	Long:          `mcservice exposes instance, version, loader, mod, and launch management as CLI subcommands.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data root (default: OS-appropriate per-user directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", true, "emit JSON output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newService() (*service.Service, error) {
	root := dataDir
	if root == "" {
		root = paths.DefaultDataRoot()
	}
	return service.New(root)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(err error) {
	if jsonOutput {
		if se, ok := err.(*errs.Error); ok {
			enc := json.NewEncoder(os.Stderr)
			enc.Encode(map[string]any{"kind": se.Kind, "message": se.Message, "context": se.Context})
			return
		}
		fmt.Fprintf(os.Stderr, `{"error":%q}`+"\n", err.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
