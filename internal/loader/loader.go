// Package loader installs Fabric/Quilt mod-loader profiles as derived
// version JSONs that inherit from a vanilla Minecraft version.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/mcversion"
	"github.com/quasar/launchercore/internal/paths"
)

type Type string

const (
	Fabric Type = "fabric"
	Quilt  Type = "quilt"
)

// loaderEntry is one element of the Fabric/Quilt "versions/loader/<mc>"
// listing; both meta servers share this shape closely enough to share a
// decoder.
type loaderEntry struct {
	Loader struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"loader"`
}

// Installer lists and installs Fabric/Quilt loader versions.
type Installer struct {
	layout  *paths.Layout
	fetcher *fetch.Fetcher

	fabricBase string
	quiltBase  string
}

func NewInstaller(layout *paths.Layout, fetcher *fetch.Fetcher) *Installer {
	return &Installer{
		layout:     layout,
		fetcher:    fetcher,
		fabricBase: "https://meta.fabricmc.net/v2/versions/loader",
		quiltBase:  "https://meta.quiltmc.org/v3/versions/loader",
	}
}

func (in *Installer) base(t Type) (string, error) {
	switch t {
	case Fabric:
		return in.fabricBase, nil
	case Quilt:
		return in.quiltBase, nil
	default:
		return "", errs.New(errs.Internal, fmt.Sprintf("unsupported loader type %q", t))
	}
}

func (in *Installer) listURL(t Type, mcVersion string) (string, error) {
	base, err := in.base(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", base, mcVersion), nil
}

func (in *Installer) profileURL(t Type, mcVersion, loaderVersion string) (string, error) {
	base, err := in.base(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/profile/json", base, mcVersion, loaderVersion), nil
}

// ListVersions returns the loader versions available for mcVersion, stable
// first (descending as reported by the meta endpoint), with betas appended
// only when includeBeta is set. When the endpoint reports no stable version
// at all, the betas are returned regardless of includeBeta.
func (in *Installer) ListVersions(ctx context.Context, t Type, mcVersion string, includeBeta bool) ([]string, error) {
	url, err := in.listURL(t, mcVersion)
	if err != nil {
		return nil, err
	}

	entries, err := fetch.GetJSON[[]loaderEntry](ctx, in.fetcher, url)
	if err != nil {
		return nil, err
	}

	var stable, beta []string
	for _, e := range entries {
		if e.Loader.Version == "" {
			continue
		}
		if e.Loader.Stable {
			stable = append(stable, e.Loader.Version)
		} else {
			beta = append(beta, e.Loader.Version)
		}
	}

	if len(stable) == 0 {
		return beta, nil
	}
	if includeBeta {
		return append(stable, beta...), nil
	}
	return stable, nil
}

// DerivedID returns the synthesised version id for a loader install, e.g.
// "fabric-loader-0.15.11-1.20.4".
func DerivedID(t Type, loaderVersion, mcVersion string) string {
	return fmt.Sprintf("%s-loader-%s-%s", t, loaderVersion, mcVersion)
}

// Install fetches the loader's profile JSON (already Mojang-version-JSON
// shaped, inheritsFrom set to mcVersion) and persists it as
// versions/<derived-id>/<derived-id>.json. If the derived version JSON
// already exists on disk it's left untouched: loader profiles are
// immutable once published, so reinstalling is a no-op.
func (in *Installer) Install(ctx context.Context, t Type, mcVersion, loaderVersion string) (derivedID string, err error) {
	derivedID = DerivedID(t, loaderVersion, mcVersion)
	jsonPath := in.layout.VersionJSONPath(derivedID)

	if _, err := os.Stat(jsonPath); err == nil {
		return derivedID, nil
	}

	url, err := in.profileURL(t, mcVersion, loaderVersion)
	if err != nil {
		return "", err
	}

	raw, err := fetch.GetJSON[mcversion.RawVersion](ctx, in.fetcher, url)
	if err != nil {
		return "", err
	}

	raw.ID = derivedID
	raw.InheritsFrom = mcVersion

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.Internal, "encoding derived version JSON", err)
	}
	if err := paths.AtomicWrite(jsonPath, data); err != nil {
		return "", err
	}
	return derivedID, nil
}
