package mods

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/launchercore/internal/paths"
)

func setupModsDir(t *testing.T) (*paths.Layout, string) {
	t.Helper()
	layout := paths.New(t.TempDir())
	if err := layout.EnsureRootDirs(); err != nil {
		t.Fatal(err)
	}
	dir := modsDir(layout, "inst-1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return layout, dir
}

func TestListFindsEnabledAndDisabledMods(t *testing.T) {
	layout, dir := setupModsDir(t)
	os.WriteFile(filepath.Join(dir, "sodium.jar"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(dir, "lithium.jar.disabled"), []byte("bb"), 0o644)
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o644)

	list, err := List(layout, "inst-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 mods, got %d: %+v", len(list), list)
	}
	if list[0].Filename != "lithium.jar.disabled" || list[0].Enabled {
		t.Fatalf("unexpected first entry: %+v", list[0])
	}
	if list[1].Filename != "sodium.jar" || !list[1].Enabled {
		t.Fatalf("unexpected second entry: %+v", list[1])
	}
}

func TestListReturnsEmptyWhenModsDirMissing(t *testing.T) {
	layout := paths.New(t.TempDir())
	list, err := List(layout, "inst-1")
	if err != nil {
		t.Fatal(err)
	}
	if list != nil {
		t.Fatalf("expected nil, got %+v", list)
	}
}

func TestToggleDisableAndEnable(t *testing.T) {
	layout, dir := setupModsDir(t)
	os.WriteFile(filepath.Join(dir, "sodium.jar"), []byte("a"), 0o644)

	if err := Toggle(layout, "inst-1", "sodium.jar", false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sodium.jar.disabled")); err != nil {
		t.Fatalf("expected disabled file: %v", err)
	}

	if err := Toggle(layout, "inst-1", "sodium.jar.disabled", true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sodium.jar")); err != nil {
		t.Fatalf("expected re-enabled file: %v", err)
	}
}

func TestRemoveDeletesFile(t *testing.T) {
	layout, dir := setupModsDir(t)
	path := filepath.Join(dir, "sodium.jar")
	os.WriteFile(path, []byte("a"), 0o644)

	if err := Remove(layout, "inst-1", "sodium.jar"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, err=%v", err)
	}
}

func writeFabricJar(t *testing.T, path, id, version string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("fabric.mod.json")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`{"id":"` + id + `","version":"` + version + `"}`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProbeMetadataReadsFabricModJSON(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "sodium.jar")
	writeFabricJar(t, jarPath, "sodium", "0.5.8")

	meta, err := ProbeMetadata(jarPath)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ModID != "sodium" || meta.Version != "0.5.8" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestProbeMetadataErrorsWithoutRecognisedManifest(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "empty.jar")
	f, err := os.Create(jarPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	zw.Close()
	f.Close()

	if _, err := ProbeMetadata(jarPath); err == nil {
		t.Fatal("expected error for jar with no mod metadata")
	}
}

func TestParseModsToml(t *testing.T) {
	data := "[[mods]]\nmodId=\"jei\"\nversion=\"15.2.0\"\ndisplayName=\"JEI\"\n"
	meta, err := parseModsToml(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ModID != "jei" || meta.Version != "15.2.0" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}
