package modrinth

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/paths"
)

// Index is the modrinth.index.json manifest at the root of a .mrpack.
type Index struct {
	FormatVersion int               `json:"formatVersion"`
	Game          string            `json:"game"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary"`
	Files         []IndexFile       `json:"files"`
	Dependencies  map[string]string `json:"dependencies"`
}

type IndexFile struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"`
	Env       *IndexFileEnv     `json:"env,omitempty"`
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`
}

type IndexFileEnv struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

// ParseIndex reads modrinth.index.json out of a .mrpack archive.
func ParseIndex(mrpackPath string) (*Index, error) {
	r, err := zip.OpenReader(mrpackPath)
	if err != nil {
		return nil, errs.Wrap(errs.Filesystem, "opening .mrpack archive", err)
	}
	defer r.Close()

	f, err := r.Open("modrinth.index.json")
	if err != nil {
		return nil, errs.Wrap(errs.SchemaInvalid, "mrpack missing modrinth.index.json", err)
	}
	defer f.Close()

	var idx Index
	if err := json.NewDecoder(f).Decode(&idx); err != nil {
		return nil, errs.Wrap(errs.SchemaInvalid, "decoding modrinth.index.json", err)
	}
	return &idx, nil
}

// ApplyResult reports what an .mrpack application produced, consumed by
// internal/service to drive instance creation and event emission.
type ApplyResult struct {
	MCVersion     string
	Loader        string
	LoaderVersion string
}

// loaderDependencyKeys lists the dependencies.* keys recognised as loader
// identifiers, in priority order when more than one is present.
var loaderDependencyKeys = []string{"fabric-loader", "quilt-loader", "forge", "neoforge"}

// Apply downloads every file in idx respecting env.client filtering
// (skipping "unsupported"), verifying SHA-1 when present, into
// <instance>/.minecraft/<path>, rejecting any path that would escape the
// instance's Minecraft directory. It does not extract overrides/ —
// ApplyOverrides does that, since it operates on the archive separately.
func Apply(ctx context.Context, fetcher *fetch.Fetcher, layout *paths.Layout, instanceID string, idx *Index) (*ApplyResult, error) {
	mcDir := layout.InstanceMinecraftDir(instanceID)

	for _, file := range idx.Files {
		if file.Env != nil && file.Env.Client == "unsupported" {
			continue
		}

		target, err := paths.SafeJoin(mcDir, file.Path)
		if err != nil {
			return nil, errs.Wrap(errs.Filesystem, "resolving modpack file path", err)
		}

		if len(file.Downloads) == 0 {
			return nil, errs.New(errs.SchemaInvalid, fmt.Sprintf("modpack file %q has no download URLs", file.Path))
		}

		var lastErr error
		downloaded := false
		for _, url := range file.Downloads {
			err := fetcher.Download(ctx, url, target, fetch.Expected{
				SHA1: file.Hashes["sha1"],
				Size: file.FileSize,
			})
			if err == nil {
				downloaded = true
				break
			}
			lastErr = err
		}
		if !downloaded {
			return nil, errs.Wrap(errs.Network, fmt.Sprintf("downloading modpack file %q", file.Path), lastErr)
		}
	}

	result := &ApplyResult{MCVersion: idx.Dependencies["minecraft"]}
	for _, key := range loaderDependencyKeys {
		if v, ok := idx.Dependencies[key]; ok {
			result.Loader = loaderNameFor(key)
			result.LoaderVersion = v
			break
		}
	}
	return result, nil
}

func loaderNameFor(depKey string) string {
	switch depKey {
	case "fabric-loader":
		return "fabric"
	case "quilt-loader":
		return "quilt"
	default:
		return depKey
	}
}

// ApplyOverrides extracts overrides/ and client-overrides/ from the archive
// on top of the instance's .minecraft directory, preserving structure.
func ApplyOverrides(mrpackPath string, layout *paths.Layout, instanceID string) error {
	r, err := zip.OpenReader(mrpackPath)
	if err != nil {
		return errs.Wrap(errs.Filesystem, "opening .mrpack archive", err)
	}
	defer r.Close()

	mcDir := layout.InstanceMinecraftDir(instanceID)

	for _, prefix := range []string{"overrides/", "client-overrides/"} {
		for _, f := range r.File {
			if len(f.Name) <= len(prefix) || f.Name[:len(prefix)] != prefix {
				continue
			}
			rel := f.Name[len(prefix):]
			if rel == "" {
				continue
			}

			target, err := paths.SafeJoin(mcDir, rel)
			if err != nil {
				return errs.Wrap(errs.Filesystem, "resolving override path", err)
			}

			if f.FileInfo().IsDir() {
				if err := os.MkdirAll(target, 0o755); err != nil {
					return errs.Wrap(errs.Filesystem, "creating override directory", err)
				}
				continue
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errs.Wrap(errs.Filesystem, "creating override parent directory", err)
			}
			if err := extractOverrideFile(f, target); err != nil {
				return errs.Wrap(errs.Filesystem, fmt.Sprintf("extracting override %q", f.Name), err)
			}
		}
	}
	return nil
}

func extractOverrideFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
