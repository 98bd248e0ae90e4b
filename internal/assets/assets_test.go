package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/launchercore/internal/events"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/mcversion"
	"github.com/quasar/launchercore/internal/paths"
)

func TestEnsureAssetsDownloadsIndexAndObjects(t *testing.T) {
	const body = "icon-bytes"
	h := sha1.Sum([]byte(body))
	hash := hex.EncodeToString(h[:])

	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Index{
			Objects: map[string]Object{"icons/icon.png": {Hash: hash, Size: int64(len(body))}},
		})
	})
	mux.HandleFunc("/"+hash[:2]+"/"+hash, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	layout := paths.New(t.TempDir())
	if err := layout.EnsureRootDirs(); err != nil {
		t.Fatal(err)
	}

	in := &Installer{layout: layout, fetcher: fetch.New(0), bus: events.NewBus()}
	in.objectBase = srv.URL

	eff := &mcversion.Effective{
		AssetIndex: mcversion.AssetIndexRef{ID: "legacy", URL: srv.URL + "/index.json"},
	}

	if err := in.EnsureAssets(context.Background(), eff); err != nil {
		t.Fatal(err)
	}

	objPath := layout.AssetObjectPath(hash)
	data, err := os.ReadFile(objPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != body {
		t.Fatalf("got %q", data)
	}
}

func TestMirrorLegacyMirrorsObjectIntoVirtualTree(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "obj.bin")
	if err := os.WriteFile(obj, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	virtual := filepath.Join(dir, "virtual")
	if err := mirrorLegacy(obj, virtual, "sounds/click.ogg"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(virtual, "sounds", "click.ogg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Fatalf("got %q", data)
	}
}
