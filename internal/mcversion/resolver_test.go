package mcversion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/paths"
)

func TestResolveMergesInheritanceChain(t *testing.T) {
	mux := http.NewServeMux()

	base := RawVersion{
		ID:        "1.20.4",
		MainClass: "net.minecraft.client.main.Main",
		Arguments: &Arguments{JVM: []any{"-base-jvm"}, Game: []any{"--base-game"}},
		Libraries: []Library{
			{Name: "com.example:shared-lib:1.0"},
			{Name: "com.example:base-only:1.0"},
		},
		AssetIndex: &AssetIndexRef{ID: "11"},
		Downloads:  &Downloads{Client: &Artifact{URL: "http://example/base.jar", SHA1: "abc", Size: 10}},
	}
	derived := RawVersion{
		ID:           "fabric-loader-0.15.11-1.20.4",
		InheritsFrom: "1.20.4",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Arguments:    &Arguments{JVM: []any{"-fabric-jvm"}, Game: []any{"--fabric-game"}},
		Libraries: []Library{
			{Name: "com.example:shared-lib:2.0"},
			{Name: "net.fabricmc:loader:0.15.11"},
		},
	}

	mux.HandleFunc("/1.20.4.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(base)
	})
	mux.HandleFunc("/fabric.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(derived)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Manifest{
			Versions: []ManifestEntry{
				{ID: "1.20.4", URL: srv.URL + "/1.20.4.json"},
				{ID: "fabric-loader-0.15.11-1.20.4", URL: srv.URL + "/fabric.json"},
			},
		})
	})

	layout := paths.New(t.TempDir())
	if err := layout.EnsureRootDirs(); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(layout, fetch.New(0))
	r.manifestURL = srv.URL + "/manifest.json"
	if _, err := r.RefreshManifest(context.Background()); err != nil {
		t.Fatal(err)
	}

	eff, err := r.Resolve(context.Background(), "fabric-loader-0.15.11-1.20.4")
	if err != nil {
		t.Fatal(err)
	}

	if eff.MainClass != "net.fabricmc.loader.impl.launch.knot.KnotClient" {
		t.Fatalf("expected leaf mainClass to win, got %s", eff.MainClass)
	}
	if eff.AssetIndex.ID != "11" {
		t.Fatalf("expected inherited assetIndex, got %+v", eff.AssetIndex)
	}
	if len(eff.Arguments.JVM) != 2 || len(eff.Arguments.Game) != 2 {
		t.Fatalf("expected concatenated argument lists, got %+v", eff.Arguments)
	}
	if len(eff.Libraries) != 3 {
		t.Fatalf("expected 3 deduplicated libraries, got %d: %+v", len(eff.Libraries), eff.Libraries)
	}
	found := false
	for _, lib := range eff.Libraries {
		if lib.Name == "com.example:shared-lib:2.0" {
			found = true
		}
		if lib.Name == "com.example:shared-lib:1.0" {
			t.Fatal("expected base library version to be overridden by derived")
		}
	}
	if !found {
		t.Fatal("expected derived shared-lib override to be present")
	}
}

func TestDefaultJavaMajor(t *testing.T) {
	cases := map[string]int{
		"1.16.5":  8,
		"1.16":    8,
		"1.17":    17,
		"1.20.4":  17,
		"1.20.5":  21,
		"1.21":    21,
	}
	for id, want := range cases {
		if got := defaultJavaMajor(id); got != want {
			t.Errorf("defaultJavaMajor(%q) = %d, want %d", id, got, want)
		}
	}
}
