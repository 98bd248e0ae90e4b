package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var getSettingsCmd = &cobra.Command{
	Use:   "get-settings",
	Short: "Print the current global settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return printJSON(svc.GetSettings())
	},
}

var saveSettingsPath string

var saveSettingsCmd = &cobra.Command{
	Use:   "save-settings",
	Short: "Replace the global settings (reads JSON from stdin unless --file is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		var r *os.File
		if saveSettingsPath == "" {
			r = os.Stdin
		} else {
			f, err := os.Open(saveSettingsPath)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		newSettings := svc.GetSettings()
		if err := json.NewDecoder(r).Decode(newSettings); err != nil {
			return err
		}
		return svc.SaveSettings(newSettings)
	},
}

func init() {
	saveSettingsCmd.Flags().StringVar(&saveSettingsPath, "file", "", "path to settings JSON (default: stdin)")

	rootCmd.AddCommand(getSettingsCmd, saveSettingsCmd)
}
