package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/quasar/launchercore/internal/instance"
	"github.com/spf13/cobra"
)

var listInstancesCmd = &cobra.Command{
	Use:   "list-instances",
	Short: "List every instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		instances, err := svc.ListInstances()
		if err != nil {
			return err
		}
		return printJSON(instances)
	},
}

var (
	createName, createVersion, createMCVersion, createLoader string
)

var createInstanceCmd = &cobra.Command{
	Use:   "create-instance",
	Short: "Create a new instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		inst, err := svc.CreateInstance(createName, createVersion, createMCVersion, createLoader)
		if err != nil {
			return err
		}
		return printJSON(inst)
	},
}

var saveInstancePath string

var saveInstanceCmd = &cobra.Command{
	Use:   "save-instance",
	Short: "Persist edits to an existing instance record (reads JSON from stdin unless --file is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		inst, err := readInstanceJSON(saveInstancePath)
		if err != nil {
			return err
		}
		if err := svc.SaveInstance(inst); err != nil {
			return err
		}
		return printJSON(inst)
	},
}

var deleteInstanceID string
var deleteInstanceVersion bool

var deleteInstanceCmd = &cobra.Command{
	Use:   "delete-instance",
	Short: "Delete an instance, optionally deleting its shared version too",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.DeleteInstance(deleteInstanceID, deleteInstanceVersion)
	},
}

var (
	checkUsageVersionID   string
	checkUsageExcludingID string
)

var checkVersionUsageCmd = &cobra.Command{
	Use:   "check-version-usage",
	Short: "Report whether any other instance still references a version",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		inUse, err := svc.CheckVersionUsage(checkUsageVersionID, checkUsageExcludingID)
		if err != nil {
			return err
		}
		return printJSON(map[string]bool{"in_use": inUse})
	},
}

var downloadVersionInstanceID, downloadVersionID string

var downloadVersionCmd = &cobra.Command{
	Use:   "download-version",
	Short: "Download an instance's version: client jar, libraries, natives, assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.DownloadVersion(context.Background(), downloadVersionInstanceID, downloadVersionID)
	},
}

func init() {
	createInstanceCmd.Flags().StringVar(&createName, "name", "", "instance name")
	createInstanceCmd.Flags().StringVar(&createVersion, "version", "", "version id to launch (vanilla or derived loader id)")
	createInstanceCmd.Flags().StringVar(&createMCVersion, "mc-version", "", "underlying Minecraft version")
	createInstanceCmd.Flags().StringVar(&createLoader, "loader", "", "loader type (fabric, quilt, or empty for vanilla)")
	createInstanceCmd.MarkFlagRequired("name")
	createInstanceCmd.MarkFlagRequired("version")
	createInstanceCmd.MarkFlagRequired("mc-version")

	saveInstanceCmd.Flags().StringVar(&saveInstancePath, "file", "", "path to instance JSON (default: stdin)")

	deleteInstanceCmd.Flags().StringVar(&deleteInstanceID, "id", "", "instance id")
	deleteInstanceCmd.Flags().BoolVar(&deleteInstanceVersion, "delete-version", false, "also delete the version if no other instance uses it")
	deleteInstanceCmd.MarkFlagRequired("id")

	checkVersionUsageCmd.Flags().StringVar(&checkUsageVersionID, "version", "", "version id to check")
	checkVersionUsageCmd.Flags().StringVar(&checkUsageExcludingID, "excluding", "", "instance id to exclude from the check")
	checkVersionUsageCmd.MarkFlagRequired("version")

	downloadVersionCmd.Flags().StringVar(&downloadVersionInstanceID, "instance", "", "instance id")
	downloadVersionCmd.Flags().StringVar(&downloadVersionID, "version", "", "version id")
	downloadVersionCmd.MarkFlagRequired("instance")
	downloadVersionCmd.MarkFlagRequired("version")

	rootCmd.AddCommand(listInstancesCmd, createInstanceCmd, saveInstanceCmd, deleteInstanceCmd, checkVersionUsageCmd, downloadVersionCmd)
}

func readInstanceJSON(path string) (*instance.Instance, error) {
	var r *os.File
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var inst instance.Instance
	if err := json.NewDecoder(r).Decode(&inst); err != nil {
		return nil, err
	}
	return &inst, nil
}
