// Package mods manages the mods/ directory of an instance: listing,
// enabling/disabling, removal, and update checks against Modrinth.
package mods

import (
	"archive/zip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/modrinth"
	"github.com/quasar/launchercore/internal/paths"
)

const disabledSuffix = ".disabled"

// Mod describes one discovered mod file.
type Mod struct {
	Filename string
	Size     int64
	Enabled  bool
}

func modsDir(layout *paths.Layout, instanceID string) string {
	return filepath.Join(layout.InstanceMinecraftDir(instanceID), "mods")
}

// List enumerates mods/*.jar and mods/*.jar.disabled.
func List(layout *paths.Layout, instanceID string) ([]Mod, error) {
	dir := modsDir(layout, instanceID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.Filesystem, "listing mods directory", err)
	}

	var out []Mod
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		enabled := strings.HasSuffix(name, ".jar")
		if !enabled && !strings.HasSuffix(name, ".jar"+disabledSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Mod{Filename: name, Size: info.Size(), Enabled: enabled})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// Toggle renames filename between .jar and .jar.disabled. The operation is
// a pure filesystem rename, atomic on the same volume.
func Toggle(layout *paths.Layout, instanceID, filename string, enable bool) error {
	dir := modsDir(layout, instanceID)
	src := filepath.Join(dir, filename)

	var dest string
	switch {
	case enable && strings.HasSuffix(filename, disabledSuffix):
		dest = filepath.Join(dir, strings.TrimSuffix(filename, disabledSuffix))
	case !enable && !strings.HasSuffix(filename, disabledSuffix):
		dest = filepath.Join(dir, filename+disabledSuffix)
	default:
		return nil
	}

	if err := os.Rename(src, dest); err != nil {
		return errs.Wrap(errs.Filesystem, "toggling mod", err)
	}
	return nil
}

// Remove deletes filename from the mods directory. It never touches any
// other file.
func Remove(layout *paths.Layout, instanceID, filename string) error {
	path := filepath.Join(modsDir(layout, instanceID), filename)
	if err := os.Remove(path); err != nil {
		return errs.Wrap(errs.Filesystem, "removing mod", err)
	}
	return nil
}

// Metadata is the subset of a mod JAR's embedded manifest needed to query
// Modrinth for updates.
type Metadata struct {
	ModID   string
	Version string
}

// ProbeMetadata inspects a JAR's fabric.mod.json / quilt.mod.json /
// mods.toml to extract the mod id and version.
func ProbeMetadata(jarPath string) (*Metadata, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return nil, errs.Wrap(errs.Filesystem, "opening mod jar", err)
	}
	defer r.Close()

	for _, name := range []string{"fabric.mod.json", "quilt.mod.json"} {
		if f, err := r.Open(name); err == nil {
			defer f.Close()
			var meta struct {
				ID      string `json:"id"`
				Version string `json:"version"`
			}
			if err := json.NewDecoder(f).Decode(&meta); err != nil {
				return nil, errs.Wrap(errs.SchemaInvalid, fmt.Sprintf("decoding %s", name), err)
			}
			return &Metadata{ModID: meta.ID, Version: meta.Version}, nil
		}
	}

	if f, err := r.Open("META-INF/mods.toml"); err == nil {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, errs.Wrap(errs.Filesystem, "reading mods.toml", err)
		}
		return parseModsToml(string(data))
	}

	return nil, errs.New(errs.NotFound, "jar carries no recognised mod metadata")
}

// parseModsToml extracts modId/version from a Forge mods.toml's first
// [[mods]] table using a minimal line scan rather than a full TOML parser,
// since only two scalar keys are needed.
func parseModsToml(data string) (*Metadata, error) {
	meta := &Metadata{}
	inMods := false
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			if inMods {
				break
			}
			inMods = strings.HasPrefix(line, "[[mods]]")
			continue
		}
		if !inMods {
			continue
		}
		key, _, _ := strings.Cut(line, "=")
		switch strings.TrimSpace(key) {
		case "modId":
			meta.ModID = tomlValue(line)
		case "version":
			meta.Version = tomlValue(line)
		}
	}
	if meta.ModID == "" {
		return nil, errs.New(errs.SchemaInvalid, "mods.toml missing modId")
	}
	return meta, nil
}

func tomlValue(line string) string {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
}

// UpdateStatus reports whether a newer compatible version exists on
// Modrinth for one installed mod.
type UpdateStatus struct {
	Filename        string
	CurrentVersion  string
	LatestVersion   string
	ProjectID       string
	UpdateAvailable bool
}

// CheckUpdates probes every enabled mod's metadata, resolves its Modrinth
// project (by mod id, falling back to the JAR's SHA-1), and reports the
// newest version compatible with loader/mcVersion.
func CheckUpdates(ctx context.Context, client *modrinth.Client, layout *paths.Layout, instanceID, loader, mcVersion string) ([]UpdateStatus, error) {
	list, err := List(layout, instanceID)
	if err != nil {
		return nil, err
	}

	var out []UpdateStatus
	for _, m := range list {
		if !m.Enabled {
			continue
		}
		jarPath := filepath.Join(modsDir(layout, instanceID), m.Filename)

		meta, err := ProbeMetadata(jarPath)
		if err != nil {
			continue
		}

		project, err := resolveProject(ctx, client, jarPath, meta.ModID)
		if err != nil {
			continue
		}

		versions, err := client.ProjectVersions(ctx, project.ID)
		if err != nil {
			continue
		}
		compatible := modrinth.Compatible(versions, loader, mcVersion)
		if len(compatible) == 0 {
			continue
		}

		latest := compatible[0]
		out = append(out, UpdateStatus{
			Filename:        m.Filename,
			CurrentVersion:  meta.Version,
			LatestVersion:   latest.VersionNumber,
			ProjectID:       project.ID,
			UpdateAvailable: latest.VersionNumber != meta.Version,
		})
	}
	return out, nil
}

func resolveProject(ctx context.Context, client *modrinth.Client, jarPath, modID string) (*modrinth.Project, error) {
	if modID != "" {
		if p, err := client.GetProject(ctx, modID); err == nil {
			return p, nil
		}
	}
	hash, err := sha1File(jarPath)
	if err != nil {
		return nil, err
	}
	return client.GetProject(ctx, hash)
}

func sha1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
