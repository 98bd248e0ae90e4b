package main

import (
	"context"

	"github.com/quasar/launchercore/internal/launch"
	"github.com/spf13/cobra"
)

var (
	launchInstanceID                                string
	launchPlayerName, launchUUID, launchAccessToken string
	launchOffline, launchSkipJavaCheck              bool
)

var launchInstanceCmd = &cobra.Command{
	Use:   "launch-instance",
	Short: "Resolve, install, and spawn an instance's Minecraft process",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		opts := launch.Options{
			PlayerName:    launchPlayerName,
			UUID:          launchUUID,
			AccessToken:   launchAccessToken,
			Offline:       launchOffline,
			SkipJavaCheck: launchSkipJavaCheck,
		}
		return svc.LaunchInstance(context.Background(), launchInstanceID, opts)
	},
}

var killInstanceID string

var killInstanceCmd = &cobra.Command{
	Use:   "kill-instance",
	Short: "Terminate a running instance's Minecraft process",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.KillInstance(killInstanceID)
	},
}

var checkJavaInstanceID string

var checkJavaCompatibilityCmd = &cobra.Command{
	Use:   "check-java-compatibility",
	Short: "Check the Java that would be used to launch an instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		result, err := svc.CheckJavaCompatibility(context.Background(), checkJavaInstanceID)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var installJavaRuntimeMajor int

var installJavaRuntimeCmd = &cobra.Command{
	Use:   "install-java-runtime",
	Short: "Download a managed Java runtime from Adoptium",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		path, err := svc.InstallJavaRuntime(context.Background(), installJavaRuntimeMajor)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"path": path})
	},
}

func init() {
	launchInstanceCmd.Flags().StringVar(&launchInstanceID, "instance", "", "instance id")
	launchInstanceCmd.Flags().StringVar(&launchPlayerName, "player-name", "", "player name")
	launchInstanceCmd.Flags().StringVar(&launchUUID, "uuid", "", "player uuid (offline mode derives one if omitted)")
	launchInstanceCmd.Flags().StringVar(&launchAccessToken, "access-token", "", "session access token")
	launchInstanceCmd.Flags().BoolVar(&launchOffline, "offline", true, "launch in offline mode")
	launchInstanceCmd.Flags().BoolVar(&launchSkipJavaCheck, "skip-java-check", false, "skip the Java compatibility probe")
	launchInstanceCmd.MarkFlagRequired("instance")

	killInstanceCmd.Flags().StringVar(&killInstanceID, "instance", "", "instance id")
	killInstanceCmd.MarkFlagRequired("instance")

	checkJavaCompatibilityCmd.Flags().StringVar(&checkJavaInstanceID, "instance", "", "instance id")
	checkJavaCompatibilityCmd.MarkFlagRequired("instance")

	installJavaRuntimeCmd.Flags().IntVar(&installJavaRuntimeMajor, "version", 0, "java major version (8, 17, 21, ...)")
	installJavaRuntimeCmd.MarkFlagRequired("version")

	rootCmd.AddCommand(launchInstanceCmd, killInstanceCmd, checkJavaCompatibilityCmd, installJavaRuntimeCmd)
}
