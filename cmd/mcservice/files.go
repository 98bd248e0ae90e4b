package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/quasar/launchercore/internal/service"
	"github.com/spf13/cobra"
)

var screenshotsInstanceID string

var listInstanceScreenshotsCmd = &cobra.Command{
	Use:   "list-instance-screenshots",
	Short: "List an instance's screenshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		entries, err := svc.ListInstanceScreenshots(screenshotsInstanceID)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var worldsInstanceID string

var listInstanceWorldsCmd = &cobra.Command{
	Use:   "list-instance-worlds",
	Short: "List an instance's single-player world saves",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		entries, err := svc.ListInstanceWorlds(worldsInstanceID)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var serversInstanceID string

var listInstanceServersCmd = &cobra.Command{
	Use:   "list-instance-servers",
	Short: "List an instance's saved multiplayer servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		servers, err := svc.ListInstanceServers(serversInstanceID)
		if err != nil {
			return err
		}
		return printJSON(servers)
	},
}

var crashLogsInstanceID string

var getInstanceCrashLogsCmd = &cobra.Command{
	Use:   "get-instance-crash-logs",
	Short: "List an instance's crash logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		entries, err := svc.GetInstanceCrashLogs(crashLogsInstanceID)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var clearLogsInstanceID string

var clearInstanceLogsCmd = &cobra.Command{
	Use:   "clear-instance-logs",
	Short: "Delete an instance's crash logs and last-launch log",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.ClearInstanceLogs(clearLogsInstanceID)
	},
}

var getSystemInfoCmd = &cobra.Command{
	Use:   "get-system-info",
	Short: "Print host OS, architecture, and detected Java installations",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return printJSON(svc.GetSystemInfo())
	},
}

var getCleanupInfoCmd = &cobra.Command{
	Use:   "get-cleanup-info",
	Short: "Preview which versions cleanup-unused-versions would remove",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		info, err := svc.GetCleanupInfo()
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("%d unused version(s), %s reclaimable\n", len(info.UnusedVersionIDs), humanize.Bytes(uint64(info.ReclaimableBytes)))
			for _, id := range info.UnusedVersionIDs {
				fmt.Printf("  %s\n", id)
			}
			return nil
		}
		return printJSON(info)
	},
}

var cleanupUnusedVersionsCmd = &cobra.Command{
	Use:   "cleanup-unused-versions",
	Short: "Delete every version directory not referenced by an instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		removed, err := svc.CleanupUnusedVersions()
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"removed": removed})
	},
}

var clearAssetCacheCmd = &cobra.Command{
	Use:   "clear-asset-cache",
	Short: "Delete every downloaded asset object and index",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.ClearAssetCache()
	},
}

var openPathTarget string

var openPathCmd = &cobra.Command{
	Use:   "open-path",
	Short: "Open a path in the OS-appropriate file browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.OpenPath(openPathTarget)
	},
}

func init() {
	listInstanceScreenshotsCmd.Flags().StringVar(&screenshotsInstanceID, "instance", "", "instance id")
	listInstanceScreenshotsCmd.MarkFlagRequired("instance")

	listInstanceWorldsCmd.Flags().StringVar(&worldsInstanceID, "instance", "", "instance id")
	listInstanceWorldsCmd.MarkFlagRequired("instance")

	listInstanceServersCmd.Flags().StringVar(&serversInstanceID, "instance", "", "instance id")
	listInstanceServersCmd.MarkFlagRequired("instance")

	getInstanceCrashLogsCmd.Flags().StringVar(&crashLogsInstanceID, "instance", "", "instance id")
	getInstanceCrashLogsCmd.MarkFlagRequired("instance")

	clearInstanceLogsCmd.Flags().StringVar(&clearLogsInstanceID, "instance", "", "instance id")
	clearInstanceLogsCmd.MarkFlagRequired("instance")

	openPathCmd.Flags().StringVar(&openPathTarget, "path", "", "path to open")
	openPathCmd.MarkFlagRequired("path")

	rootCmd.AddCommand(listInstanceScreenshotsCmd, listInstanceWorldsCmd, listInstanceServersCmd,
		getInstanceCrashLogsCmd, clearInstanceLogsCmd, getSystemInfoCmd, getCleanupInfoCmd,
		cleanupUnusedVersionsCmd, clearAssetCacheCmd, openPathCmd)
}
