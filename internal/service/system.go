package service

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/java"
	"github.com/quasar/launchercore/internal/nbt"
)

// FileEntry is one disk-scan result: a screenshot, world save, crash log,
// or similar instance-local artifact.
type FileEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime int64
}

func listDir(dir string) ([]FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.Filesystem, "reading directory "+dir, err)
	}

	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileEntry{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime > out[j].ModTime })
	return out, nil
}

func (s *Service) ListInstanceScreenshots(id string) ([]FileEntry, error) {
	return listDir(filepath.Join(s.Layout.InstanceMinecraftDir(id), "screenshots"))
}

// ListInstanceWorlds lists single-player saves; each entry is a save
// directory, not a single file.
func (s *Service) ListInstanceWorlds(id string) ([]FileEntry, error) {
	return listDir(filepath.Join(s.Layout.InstanceMinecraftDir(id), "saves"))
}

// ListInstanceServers parses the instance's servers.dat multiplayer list.
func (s *Service) ListInstanceServers(id string) ([]nbt.Server, error) {
	path := filepath.Join(s.Layout.InstanceMinecraftDir(id), "servers.dat")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.Filesystem, "reading servers.dat", err)
	}
	return nbt.ParseServersDat(data)
}

func (s *Service) GetInstanceCrashLogs(id string) ([]FileEntry, error) {
	return listDir(s.Layout.InstanceCrashesDir(id))
}

// ClearInstanceLogs removes every crash log and the last-launch log for an
// instance, leaving the instance record itself untouched.
func (s *Service) ClearInstanceLogs(id string) error {
	if err := os.RemoveAll(s.Layout.InstanceCrashesDir(id)); err != nil {
		return errs.Wrap(errs.Filesystem, "clearing crash logs", err)
	}
	if err := os.Remove(s.Layout.InstanceLastLaunchLog(id)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.Filesystem, "clearing last-launch log", err)
	}
	return nil
}

// SystemInfo summarises the host environment for display: OS, architecture,
// and every detected Java installation.
type SystemInfo struct {
	OS           string
	Arch         string
	NumCPU       int
	Java         []java.Installation
	DataRootPath string
}

func (s *Service) GetSystemInfo() SystemInfo {
	return SystemInfo{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		Java:         java.NewDetector().FindAll(),
		DataRootPath: s.Layout.Root,
	}
}

// CleanupInfo previews what cleanup_unused_versions would remove and how
// much space it would reclaim, without deleting anything.
type CleanupInfo struct {
	UnusedVersionIDs []string
	ReclaimableBytes int64
}

// unusedVersionIDs returns every version directory id not referenced by
// any instance's Version or MCVersion field.
func (s *Service) unusedVersionIDs() ([]string, error) {
	instances, err := s.store.List()
	if err != nil {
		return nil, err
	}
	inUse := make(map[string]bool, len(instances)*2)
	for _, inst := range instances {
		inUse[inst.Version] = true
		inUse[inst.MCVersion] = true
	}

	entries, err := os.ReadDir(s.Layout.VersionsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.Filesystem, "reading versions directory", err)
	}

	var unused []string
	for _, e := range entries {
		if e.IsDir() && !inUse[e.Name()] {
			unused = append(unused, e.Name())
		}
	}
	return unused, nil
}

func (s *Service) GetCleanupInfo() (*CleanupInfo, error) {
	unused, err := s.unusedVersionIDs()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, id := range unused {
		total += dirSize(s.Layout.VersionDir(id))
	}
	return &CleanupInfo{UnusedVersionIDs: unused, ReclaimableBytes: total}, nil
}

// CleanupUnusedVersions deletes every version directory not referenced by
// any instance. Safe by construction: unusedVersionIDs excludes anything
// in use at the moment of the scan.
func (s *Service) CleanupUnusedVersions() ([]string, error) {
	unused, err := s.unusedVersionIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range unused {
		if err := os.RemoveAll(s.Layout.VersionDir(id)); err != nil {
			return nil, errs.Wrap(errs.Filesystem, "removing version "+id, err)
		}
	}
	return unused, nil
}

// ClearAssetCache removes every downloaded asset object and index. Assets
// re-download on next launch, so this is always safe.
func (s *Service) ClearAssetCache() error {
	if err := os.RemoveAll(s.Layout.AssetObjectsDir()); err != nil {
		return errs.Wrap(errs.Filesystem, "clearing asset objects", err)
	}
	if err := os.RemoveAll(s.Layout.AssetIndexesDir()); err != nil {
		return errs.Wrap(errs.Filesystem, "clearing asset indexes", err)
	}
	return os.MkdirAll(s.Layout.AssetObjectsDir(), 0o755)
}

func dirSize(dir string) int64 {
	var total int64
	filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
