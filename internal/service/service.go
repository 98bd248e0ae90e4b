// Package service implements the command/event surface (C11): the single
// entry point a frontend collaborator drives. Every exported method here
// corresponds to one row of the command table and returns either a typed
// result or a structured *errs.Error.
package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/quasar/launchercore/internal/assets"
	"github.com/quasar/launchercore/internal/config"
	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/events"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/instance"
	"github.com/quasar/launchercore/internal/java"
	"github.com/quasar/launchercore/internal/launch"
	"github.com/quasar/launchercore/internal/library"
	"github.com/quasar/launchercore/internal/loader"
	"github.com/quasar/launchercore/internal/mcversion"
	"github.com/quasar/launchercore/internal/modrinth"
	"github.com/quasar/launchercore/internal/mods"
	"github.com/quasar/launchercore/internal/paths"
)

// Service wires every component behind the command surface. One Service
// instance is shared by every command invocation in a process.
type Service struct {
	Layout   *paths.Layout
	Bus      *events.Bus
	Settings *config.Settings

	fetcher   *fetch.Fetcher
	versions  *mcversion.Resolver
	assets    *assets.Installer
	libraries *library.Installer
	loaders   *loader.Installer
	modrinth  *modrinth.Client
	store     *instance.Store
	launcher  *launch.Launcher
}

// New builds a Service rooted at dataRoot, loading persisted settings and
// wiring every downstream component through the shared fetcher and bus.
func New(dataRoot string) (*Service, error) {
	layout := paths.New(dataRoot)
	if err := layout.EnsureRootDirs(); err != nil {
		return nil, err
	}

	settings, err := config.Load(layout)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	fetcher := fetch.New(8)
	versions := mcversion.NewResolver(layout, fetcher)
	assetInstaller := assets.NewInstaller(layout, fetcher, bus)
	libInstaller := library.NewInstaller(layout, fetcher)
	loaderInstaller := loader.NewInstaller(layout, fetcher)
	modrinthClient := modrinth.NewClient(fetcher)
	store := instance.NewStore(layout)
	launcher := launch.NewLauncher(layout, versions, assetInstaller, libInstaller, store, bus, settings)

	return &Service{
		Layout:    layout,
		Bus:       bus,
		Settings:  settings,
		fetcher:   fetcher,
		versions:  versions,
		assets:    assetInstaller,
		libraries: libInstaller,
		loaders:   loaderInstaller,
		modrinth:  modrinthClient,
		store:     store,
		launcher:  launcher,
	}, nil
}

// GetVersionManifest returns the cached (or freshly fetched) Mojang
// version manifest.
func (s *Service) GetVersionManifest(ctx context.Context) (*mcversion.Manifest, error) {
	return s.versions.GetManifest(ctx)
}

// RefreshVersionManifest forces a network refresh, bypassing both caches.
func (s *Service) RefreshVersionManifest(ctx context.Context) (*mcversion.Manifest, error) {
	return s.versions.RefreshManifest(ctx)
}

func (s *Service) ListInstances() ([]*instance.Instance, error) {
	return s.store.List()
}

func (s *Service) GetInstance(id string) (*instance.Instance, error) {
	return s.store.Get(id)
}

func (s *Service) CreateInstance(name, version, mcVersion, loaderType string) (*instance.Instance, error) {
	return s.store.Create(instance.NormalizeName(name), version, mcVersion, loaderType)
}

func (s *Service) SaveInstance(inst *instance.Instance) error {
	return s.store.Save(inst)
}

func (s *Service) DeleteInstance(id string, deleteVersion bool) error {
	return s.store.Delete(id, deleteVersion)
}

// CheckVersionUsage reports whether any instance other than excludingID
// still references versionID.
func (s *Service) CheckVersionUsage(versionID, excludingID string) (bool, error) {
	only, err := s.store.IsOnlyUserOfVersion(versionID, excludingID)
	if err != nil {
		return false, err
	}
	return !only, nil
}

// DownloadVersion resolves instanceID's effective version and materialises
// its client JAR, libraries, natives, and assets, emitting download
// progress on the bus as it goes.
func (s *Service) DownloadVersion(ctx context.Context, instanceID, versionID string) error {
	if err := s.store.TryLock(instanceID); err != nil {
		return err
	}
	defer s.store.Unlock(instanceID)

	eff, err := s.versions.Resolve(ctx, versionID)
	if err != nil {
		return err
	}
	if _, err := s.libraries.ResolveClasspath(ctx, eff, instanceID); err != nil {
		return err
	}
	if err := s.assets.EnsureAssets(ctx, eff); err != nil {
		return err
	}
	return s.versions.EnsureClientJar(ctx, eff)
}

func (s *Service) InstallLoader(ctx context.Context, loaderType loader.Type, mcVersion, loaderVersion string) (string, error) {
	derivedID, err := s.loaders.Install(ctx, loaderType, mcVersion, loaderVersion)
	if err != nil {
		return "", err
	}
	s.Bus.Publish(events.Event{
		Kind:    events.LoaderInstalled,
		Payload: events.LoaderInstalledPayload{VersionID: derivedID},
	})
	return derivedID, nil
}

func (s *Service) GetLoaderVersions(ctx context.Context, loaderType loader.Type, mcVersion string, includeBeta bool) ([]string, error) {
	return s.loaders.ListVersions(ctx, loaderType, mcVersion, includeBeta)
}

// FindLoaderCandidates searches Modrinth for mod/loader projects matching
// loader (e.g. "fabric", "quilt"), grounded on original_source's
// find_loader_candidates.
func (s *Service) FindLoaderCandidates(ctx context.Context, loaderName string) ([]modrinth.SearchHit, error) {
	result, err := s.modrinth.Search(ctx, loaderName, "mod", 20)
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

func (s *Service) SearchProjects(ctx context.Context, query, projectType string, limit int) (*modrinth.SearchResult, error) {
	return s.modrinth.Search(ctx, query, projectType, limit)
}

func (s *Service) GetProjectVersions(ctx context.Context, projectID string) ([]modrinth.Version, error) {
	return s.modrinth.ProjectVersions(ctx, projectID)
}

func (s *Service) GetCompatibleModVersions(ctx context.Context, instanceID, projectID string) ([]modrinth.Version, error) {
	inst, err := s.store.Get(instanceID)
	if err != nil {
		return nil, err
	}
	versions, err := s.modrinth.ProjectVersions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return modrinth.Compatible(versions, inst.Loader, inst.MCVersion), nil
}

func (s *Service) GetPopularMods(ctx context.Context, limit int) (*modrinth.SearchResult, error) {
	return s.modrinth.SearchIndexed(ctx, "", "mod", "downloads", limit)
}

func (s *Service) InstallModrinthMod(ctx context.Context, instanceID, projectID, versionID string) (*modrinth.Version, error) {
	inst, err := s.store.Get(instanceID)
	if err != nil {
		return nil, err
	}
	v, err := s.modrinth.InstallMod(ctx, s.Layout, instanceID, projectID, versionID, inst.Loader, inst.MCVersion)
	if err != nil {
		return nil, err
	}
	s.Bus.Publish(events.Event{
		Kind:       events.LoaderInstalled,
		InstanceID: instanceID,
		Payload:    events.LoaderInstalledPayload{InstanceID: instanceID, ProjectID: projectID, VersionID: v.ID},
	})
	return v, nil
}

// InstallModpackVersion creates a new instance from a Modrinth modpack
// version: downloads the .mrpack, applies its file list and overrides,
// and derives the instance's mc_version/loader/loader_version.
func (s *Service) InstallModpackVersion(ctx context.Context, name, versionID string) (*instance.Instance, error) {
	v, err := s.modrinth.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	file, err := modrinth.PrimaryFile(*v)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(s.Layout.CacheDir(), "mrpack-*")
	if err != nil {
		return nil, errs.Wrap(errs.Filesystem, "creating temp dir for modpack download", err)
	}
	defer os.RemoveAll(tmpDir)

	mrpackPath := filepath.Join(tmpDir, file.Filename)
	if err := s.fetcher.Download(ctx, file.URL, mrpackPath, fetch.Expected{SHA1: file.Hashes.SHA1, Size: file.Size}); err != nil {
		return nil, err
	}

	idx, err := modrinth.ParseIndex(mrpackPath)
	if err != nil {
		return nil, err
	}

	inst, err := s.store.Create(instance.NormalizeName(name), idx.Dependencies["minecraft"], idx.Dependencies["minecraft"], "")
	if err != nil {
		return nil, err
	}

	if err := s.store.TryLock(inst.ID); err != nil {
		s.store.Delete(inst.ID, false)
		return nil, err
	}
	defer s.store.Unlock(inst.ID)

	result, err := modrinth.Apply(ctx, s.fetcher, s.Layout, inst.ID, idx)
	if err != nil {
		return nil, err
	}
	if err := modrinth.ApplyOverrides(mrpackPath, s.Layout, inst.ID); err != nil {
		return nil, err
	}

	if result.Loader != "" {
		inst.Loader = result.Loader
		inst.LoaderVersion = result.LoaderVersion
		loaderType := loader.Type(result.Loader)
		derivedID, err := s.loaders.Install(ctx, loaderType, result.MCVersion, result.LoaderVersion)
		if err == nil {
			inst.Version = derivedID
			s.Bus.Publish(events.Event{
				Kind:       events.LoaderInstalled,
				InstanceID: inst.ID,
				Payload:    events.LoaderInstalledPayload{InstanceID: inst.ID, VersionID: derivedID},
			})
		} else {
			inst.LoaderVersion = ""
			s.Bus.Publish(events.Event{
				Kind:       events.ModpackLoaderDetected,
				InstanceID: inst.ID,
				Payload:    events.ModpackLoaderDetectedPayload{InstanceID: inst.ID, Loader: result.Loader, Version: result.LoaderVersion},
			})
		}
	} else {
		s.Bus.Publish(events.Event{
			Kind:       events.ModpackLoaderDetected,
			InstanceID: inst.ID,
			Payload:    events.ModpackLoaderDetectedPayload{InstanceID: inst.ID},
		})
	}

	if err := s.store.Save(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Service) ListInstanceMods(id string) ([]mods.Mod, error) {
	return mods.List(s.Layout, id)
}

func (s *Service) ToggleMod(id, filename string, enabled bool) error {
	return mods.Toggle(s.Layout, id, filename, enabled)
}

func (s *Service) RemoveMod(id, filename string) error {
	return mods.Remove(s.Layout, id, filename)
}

func (s *Service) CheckModUpdates(ctx context.Context, id string) ([]mods.UpdateStatus, error) {
	inst, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return mods.CheckUpdates(ctx, s.modrinth, s.Layout, id, inst.Loader, inst.MCVersion)
}

func (s *Service) LaunchInstance(ctx context.Context, id string, opts launch.Options) error {
	return s.launcher.Launch(ctx, id, opts)
}

func (s *Service) KillInstance(id string) error {
	return s.launcher.Kill(id)
}

// JavaCompatibility is the result of checking an instance's effective
// Java requirement against what would actually be used to launch it.
type JavaCompatibility struct {
	Compatible      bool
	ActualVersion   int
	RequiredVersion int
	Path            string
}

func (s *Service) CheckJavaCompatibility(ctx context.Context, id string) (*JavaCompatibility, error) {
	inst, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	eff, err := s.versions.Resolve(ctx, inst.Version)
	if err != nil {
		return nil, err
	}

	path := inst.Overrides.JavaPathOverride
	if path == "" {
		path = s.Settings.GlobalJavaPath
	}
	if path == "" {
		if det := java.NewDetector().FindBest(eff.JavaMajor); det != nil {
			path = det.Path
		}
	}
	if path == "" {
		return &JavaCompatibility{RequiredVersion: eff.JavaMajor}, nil
	}

	got, err := java.Probe(ctx, path, 3*time.Second)
	if err != nil {
		return &JavaCompatibility{RequiredVersion: eff.JavaMajor, Path: path}, nil
	}
	return &JavaCompatibility{
		Compatible:      got.MajorVersion == eff.JavaMajor,
		ActualVersion:   got.MajorVersion,
		RequiredVersion: eff.JavaMajor,
		Path:            path,
	}, nil
}

// InstallJavaRuntime downloads a managed JRE for majorVersion from Adoptium
// into the data root and returns the path to its java executable, for users
// whose system has no compatible Java install.
func (s *Service) InstallJavaRuntime(ctx context.Context, majorVersion int) (string, error) {
	return java.NewDownloader().Install(ctx, majorVersion, s.Layout.RuntimeDir(majorVersion))
}

func (s *Service) GetSettings() *config.Settings {
	return s.Settings
}

func (s *Service) SaveSettings(newSettings *config.Settings) error {
	if err := config.Save(s.Layout, newSettings); err != nil {
		return err
	}
	s.Settings = newSettings
	return nil
}

// OpenPath launches the OS file browser/viewer on path.
func OpenPath(path string) error {
	return openPath(path)
}
