package main

import (
	"context"

	"github.com/spf13/cobra"
)

var getVersionManifestCmd = &cobra.Command{
	Use:   "get-version-manifest",
	Short: "Fetch the Mojang version manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		manifest, err := svc.GetVersionManifest(context.Background())
		if err != nil {
			return err
		}
		return printJSON(manifest)
	},
}

var (
	installLoaderType, installLoaderMCVersion, installLoaderVersion string
)

var installLoaderCmd = &cobra.Command{
	Use:   "install-loader",
	Short: "Install a Fabric/Quilt loader profile as a derived version",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		derivedID, err := svc.InstallLoader(context.Background(), loaderTypeOf(installLoaderType), installLoaderMCVersion, installLoaderVersion)
		if err != nil {
			return err
		}
		return printJSON(map[string]string{"version_id": derivedID})
	},
}

var (
	getLoaderVersionsType, getLoaderVersionsMCVersion string
	getLoaderVersionsIncludeBeta                      bool
)

var getLoaderVersionsCmd = &cobra.Command{
	Use:   "get-loader-versions",
	Short: "List available loader versions for a Minecraft version",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		versions, err := svc.GetLoaderVersions(context.Background(), loaderTypeOf(getLoaderVersionsType), getLoaderVersionsMCVersion, getLoaderVersionsIncludeBeta)
		if err != nil {
			return err
		}
		return printJSON(versions)
	},
}

var findLoaderCandidatesName string

var findLoaderCandidatesCmd = &cobra.Command{
	Use:   "find-loader-candidates",
	Short: "Search Modrinth for loader-related mod projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		hits, err := svc.FindLoaderCandidates(context.Background(), findLoaderCandidatesName)
		if err != nil {
			return err
		}
		return printJSON(hits)
	},
}

var (
	downloadLoaderVersionType, downloadLoaderVersionMCVersion, downloadLoaderVersionVersion string
)

var downloadLoaderVersionCmd = &cobra.Command{
	Use:   "download-loader-version",
	Short: "Alias for install-loader, kept for command-surface parity",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		derivedID, err := svc.InstallLoader(context.Background(), loaderTypeOf(downloadLoaderVersionType), downloadLoaderVersionMCVersion, downloadLoaderVersionVersion)
		if err != nil {
			return err
		}
		return printJSON(map[string]string{"version_id": derivedID})
	},
}

func init() {
	installLoaderCmd.Flags().StringVar(&installLoaderType, "loader", "", "fabric or quilt")
	installLoaderCmd.Flags().StringVar(&installLoaderMCVersion, "mc-version", "", "underlying Minecraft version")
	installLoaderCmd.Flags().StringVar(&installLoaderVersion, "loader-version", "", "loader version string")
	installLoaderCmd.MarkFlagRequired("loader")
	installLoaderCmd.MarkFlagRequired("mc-version")
	installLoaderCmd.MarkFlagRequired("loader-version")

	getLoaderVersionsCmd.Flags().StringVar(&getLoaderVersionsType, "loader", "", "fabric or quilt")
	getLoaderVersionsCmd.Flags().StringVar(&getLoaderVersionsMCVersion, "mc-version", "", "underlying Minecraft version")
	getLoaderVersionsCmd.Flags().BoolVar(&getLoaderVersionsIncludeBeta, "include-beta", false, "include unstable loader builds")
	getLoaderVersionsCmd.MarkFlagRequired("loader")
	getLoaderVersionsCmd.MarkFlagRequired("mc-version")

	findLoaderCandidatesCmd.Flags().StringVar(&findLoaderCandidatesName, "loader", "", "loader name to search for")
	findLoaderCandidatesCmd.MarkFlagRequired("loader")

	downloadLoaderVersionCmd.Flags().StringVar(&downloadLoaderVersionType, "loader", "", "fabric or quilt")
	downloadLoaderVersionCmd.Flags().StringVar(&downloadLoaderVersionMCVersion, "mc-version", "", "underlying Minecraft version")
	downloadLoaderVersionCmd.Flags().StringVar(&downloadLoaderVersionVersion, "loader-version", "", "loader version string")
	downloadLoaderVersionCmd.MarkFlagRequired("loader")
	downloadLoaderVersionCmd.MarkFlagRequired("mc-version")
	downloadLoaderVersionCmd.MarkFlagRequired("loader-version")

	rootCmd.AddCommand(getVersionManifestCmd, installLoaderCmd, getLoaderVersionsCmd, findLoaderCandidatesCmd, downloadLoaderVersionCmd)
}
