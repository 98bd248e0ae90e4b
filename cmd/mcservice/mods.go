package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	searchQuery, searchType string
	searchLimit             int
)

var searchProjectsCmd = &cobra.Command{
	Use:   "search-projects",
	Short: "Search Modrinth projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		result, err := svc.SearchProjects(context.Background(), searchQuery, searchType, searchLimit)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var getProjectVersionsProjectID string

var getProjectVersionsCmd = &cobra.Command{
	Use:   "get-project-versions",
	Short: "List every published version of a Modrinth project",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		versions, err := svc.GetProjectVersions(context.Background(), getProjectVersionsProjectID)
		if err != nil {
			return err
		}
		return printJSON(versions)
	},
}

var (
	compatibleInstanceID, compatibleProjectID string
)

var getCompatibleModVersionsCmd = &cobra.Command{
	Use:   "get-compatible-mod-versions",
	Short: "List a project's versions compatible with an instance's loader/mc-version",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		versions, err := svc.GetCompatibleModVersions(context.Background(), compatibleInstanceID, compatibleProjectID)
		if err != nil {
			return err
		}
		return printJSON(versions)
	},
}

var popularLimit int

var getPopularModsCmd = &cobra.Command{
	Use:   "get-popular-mods",
	Short: "List the most-downloaded mods on Modrinth",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		result, err := svc.GetPopularMods(context.Background(), popularLimit)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var (
	installModInstanceID, installModProjectID, installModVersionID string
)

var installModrinthModCmd = &cobra.Command{
	Use:   "install-modrinth-mod",
	Short: "Download a Modrinth mod version into an instance's mods folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		v, err := svc.InstallModrinthMod(context.Background(), installModInstanceID, installModProjectID, installModVersionID)
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

var (
	installModpackName, installModpackVersionID string
)

var installModpackVersionCmd = &cobra.Command{
	Use:   "install-modpack-version",
	Short: "Create a new instance from a Modrinth modpack version",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		inst, err := svc.InstallModpackVersion(context.Background(), installModpackName, installModpackVersionID)
		if err != nil {
			return err
		}
		return printJSON(inst)
	},
}

var listModsInstanceID string

var listInstanceModsCmd = &cobra.Command{
	Use:   "list-instance-mods",
	Short: "List an instance's installed mods",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		mods, err := svc.ListInstanceMods(listModsInstanceID)
		if err != nil {
			return err
		}
		return printJSON(mods)
	},
}

var (
	toggleModInstanceID, toggleModFilename string
	toggleModEnable                        bool
)

var toggleModCmd = &cobra.Command{
	Use:   "toggle-mod",
	Short: "Enable or disable a mod jar by renaming it",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.ToggleMod(toggleModInstanceID, toggleModFilename, toggleModEnable)
	},
}

var removeModInstanceID, removeModFilename string

var removeModCmd = &cobra.Command{
	Use:   "remove-mod",
	Short: "Delete a mod jar from an instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.RemoveMod(removeModInstanceID, removeModFilename)
	},
}

var checkModUpdatesInstanceID string

var checkModUpdatesCmd = &cobra.Command{
	Use:   "check-mod-updates",
	Short: "Check every installed mod against Modrinth for a newer compatible version",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		statuses, err := svc.CheckModUpdates(context.Background(), checkModUpdatesInstanceID)
		if err != nil {
			return err
		}
		return printJSON(statuses)
	},
}

func init() {
	searchProjectsCmd.Flags().StringVar(&searchQuery, "query", "", "search text")
	searchProjectsCmd.Flags().StringVar(&searchType, "type", "mod", "project type (mod, modpack, ...)")
	searchProjectsCmd.Flags().IntVar(&searchLimit, "limit", 20, "max results")

	getProjectVersionsCmd.Flags().StringVar(&getProjectVersionsProjectID, "project", "", "project id or slug")
	getProjectVersionsCmd.MarkFlagRequired("project")

	getCompatibleModVersionsCmd.Flags().StringVar(&compatibleInstanceID, "instance", "", "instance id")
	getCompatibleModVersionsCmd.Flags().StringVar(&compatibleProjectID, "project", "", "project id or slug")
	getCompatibleModVersionsCmd.MarkFlagRequired("instance")
	getCompatibleModVersionsCmd.MarkFlagRequired("project")

	getPopularModsCmd.Flags().IntVar(&popularLimit, "limit", 20, "max results")

	installModrinthModCmd.Flags().StringVar(&installModInstanceID, "instance", "", "instance id")
	installModrinthModCmd.Flags().StringVar(&installModProjectID, "project", "", "project id")
	installModrinthModCmd.Flags().StringVar(&installModVersionID, "version", "", "specific version id (optional: best compatible chosen otherwise)")
	installModrinthModCmd.MarkFlagRequired("instance")
	installModrinthModCmd.MarkFlagRequired("project")

	installModpackVersionCmd.Flags().StringVar(&installModpackName, "name", "", "new instance name")
	installModpackVersionCmd.Flags().StringVar(&installModpackVersionID, "version", "", "modpack version id")
	installModpackVersionCmd.MarkFlagRequired("name")
	installModpackVersionCmd.MarkFlagRequired("version")

	listInstanceModsCmd.Flags().StringVar(&listModsInstanceID, "instance", "", "instance id")
	listInstanceModsCmd.MarkFlagRequired("instance")

	toggleModCmd.Flags().StringVar(&toggleModInstanceID, "instance", "", "instance id")
	toggleModCmd.Flags().StringVar(&toggleModFilename, "filename", "", "mod jar filename")
	toggleModCmd.Flags().BoolVar(&toggleModEnable, "enable", true, "enable (true) or disable (false)")
	toggleModCmd.MarkFlagRequired("instance")
	toggleModCmd.MarkFlagRequired("filename")

	removeModCmd.Flags().StringVar(&removeModInstanceID, "instance", "", "instance id")
	removeModCmd.Flags().StringVar(&removeModFilename, "filename", "", "mod jar filename")
	removeModCmd.MarkFlagRequired("instance")
	removeModCmd.MarkFlagRequired("filename")

	checkModUpdatesCmd.Flags().StringVar(&checkModUpdatesInstanceID, "instance", "", "instance id")
	checkModUpdatesCmd.MarkFlagRequired("instance")

	rootCmd.AddCommand(searchProjectsCmd, getProjectVersionsCmd, getCompatibleModVersionsCmd, getPopularModsCmd,
		installModrinthModCmd, installModpackVersionCmd, listInstanceModsCmd, toggleModCmd, removeModCmd, checkModUpdatesCmd)
}
