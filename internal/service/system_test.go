package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quasar/launchercore/internal/config"
	"github.com/quasar/launchercore/internal/events"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/instance"
	"github.com/quasar/launchercore/internal/mcversion"
	"github.com/quasar/launchercore/internal/paths"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	layout := paths.New(t.TempDir())
	if err := layout.EnsureRootDirs(); err != nil {
		t.Fatal(err)
	}
	fetcher := fetch.New(4)
	return &Service{
		Layout:   layout,
		Bus:      events.NewBus(),
		Settings: config.Default(),
		fetcher:  fetcher,
		versions: mcversion.NewResolver(layout, fetcher),
		store:    instance.NewStore(layout),
	}
}

func TestListDirReturnsNilWhenMissing(t *testing.T) {
	entries, err := listDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("expected nil, got %+v", entries)
	}
}

func TestListDirSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.png")
	newPath := filepath.Join(dir, "new.png")
	os.WriteFile(oldPath, []byte("a"), 0o644)
	os.WriteFile(newPath, []byte("bb"), 0o644)

	os.Chtimes(oldPath, time.Unix(1000, 0), time.Unix(1000, 0))
	os.Chtimes(newPath, time.Unix(2000, 0), time.Unix(2000, 0))

	entries, err := listDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "new.png" {
		t.Fatalf("expected new.png first, got %+v", entries)
	}
}

func TestGetCleanupInfoExcludesInUseVersions(t *testing.T) {
	s := newTestService(t)

	if err := os.MkdirAll(s.Layout.VersionDir("used"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(s.Layout.VersionDir("orphan"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(s.Layout.VersionDir("orphan"), "orphan.jar"), []byte("0123456789"), 0o644)

	if _, err := s.store.Create("test", "used", "1.20.1", ""); err != nil {
		t.Fatal(err)
	}

	info, err := s.GetCleanupInfo()
	if err != nil {
		t.Fatal(err)
	}
	if len(info.UnusedVersionIDs) != 1 || info.UnusedVersionIDs[0] != "orphan" {
		t.Fatalf("expected only orphan unused, got %+v", info.UnusedVersionIDs)
	}
	if info.ReclaimableBytes != 10 {
		t.Fatalf("expected 10 reclaimable bytes, got %d", info.ReclaimableBytes)
	}
}

func TestCleanupUnusedVersionsDeletesOnlyOrphans(t *testing.T) {
	s := newTestService(t)

	os.MkdirAll(s.Layout.VersionDir("used"), 0o755)
	os.MkdirAll(s.Layout.VersionDir("orphan"), 0o755)
	if _, err := s.store.Create("test", "used", "1.20.1", ""); err != nil {
		t.Fatal(err)
	}

	removed, err := s.CleanupUnusedVersions()
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != "orphan" {
		t.Fatalf("expected orphan removed, got %+v", removed)
	}
	if _, err := os.Stat(s.Layout.VersionDir("orphan")); !os.IsNotExist(err) {
		t.Fatal("expected orphan directory to be gone")
	}
	if _, err := os.Stat(s.Layout.VersionDir("used")); err != nil {
		t.Fatal("expected used directory to remain")
	}
}

func TestClearAssetCacheRemovesObjectsAndIndexes(t *testing.T) {
	s := newTestService(t)

	objPath := filepath.Join(s.Layout.AssetObjectsDir(), "ab", "abcdef")
	os.MkdirAll(filepath.Dir(objPath), 0o755)
	os.WriteFile(objPath, []byte("x"), 0o644)

	if err := s.ClearAssetCache(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(objPath); !os.IsNotExist(err) {
		t.Fatal("expected asset object to be removed")
	}
	if _, err := os.Stat(s.Layout.AssetObjectsDir()); err != nil {
		t.Fatal("expected objects directory recreated")
	}
}
