package mcversion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/paths"
)

const manifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// Resolver fetches and merges version JSON documents. It caches the manifest
// in memory and on disk; the cache is refreshed only by an explicit call to
// RefreshManifest, never by a TTL (§4.3).
type Resolver struct {
	layout      *paths.Layout
	fetcher     *fetch.Fetcher
	manifest    *Manifest
	manifestURL string
}

func NewResolver(layout *paths.Layout, fetcher *fetch.Fetcher) *Resolver {
	return &Resolver{layout: layout, fetcher: fetcher, manifestURL: manifestURL}
}

// GetManifest returns the cached manifest (memory, then disk), fetching from
// the network only if neither cache has one yet.
func (r *Resolver) GetManifest(ctx context.Context) (*Manifest, error) {
	if r.manifest != nil {
		return r.manifest, nil
	}

	if data, err := os.ReadFile(r.layout.ManifestCachePath()); err == nil {
		var m Manifest
		if err := json.Unmarshal(data, &m); err == nil {
			r.manifest = &m
			return r.manifest, nil
		}
	}

	return r.RefreshManifest(ctx)
}

// RefreshManifest always fetches a fresh manifest from the network and
// replaces both the in-memory and on-disk cache.
func (r *Resolver) RefreshManifest(ctx context.Context) (*Manifest, error) {
	m, err := fetch.GetJSON[Manifest](ctx, r.fetcher, r.manifestURL)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(m)
	if err == nil {
		_ = paths.AtomicWrite(r.layout.ManifestCachePath(), data)
	}

	r.manifest = &m
	return r.manifest, nil
}

// fetchRaw fetches a single version's raw JSON, caching it under
// versions/<id>/<id>.json. If already present on disk it is reused as-is:
// Mojang version JSONs are immutable once published.
func (r *Resolver) fetchRaw(ctx context.Context, id string) (*RawVersion, error) {
	jsonPath := r.layout.VersionJSONPath(id)

	if data, err := os.ReadFile(jsonPath); err == nil {
		var rv RawVersion
		if err := json.Unmarshal(data, &rv); err == nil {
			return &rv, nil
		}
	}

	manifest, err := r.GetManifest(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := manifest.Find(id)
	if !ok {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("version %q not in manifest", id))
	}

	rv, err := fetch.GetJSON[RawVersion](ctx, r.fetcher, entry.URL)
	if err != nil {
		return nil, err
	}

	if data, err := json.MarshalIndent(rv, "", "  "); err == nil {
		_ = paths.AtomicWrite(jsonPath, data)
	}
	return &rv, nil
}

// Resolve follows id's inheritsFrom chain to its root and folds it into a
// single Effective version. The chain is walked root-first so that leaf
// values win for scalars and later library entries override earlier ones.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Effective, error) {
	chain, err := r.loadChain(ctx, id, nil)
	if err != nil {
		return nil, err
	}

	eff := &Effective{}
	libIndex := map[string]int{}

	for _, rv := range chain {
		if rv.ID != "" {
			eff.ID = rv.ID
		}
		if rv.MainClass != "" {
			eff.MainClass = rv.MainClass
		}
		if rv.AssetIndex != nil {
			eff.AssetIndex = *rv.AssetIndex
		}
		if rv.Assets != "" {
			eff.Assets = rv.Assets
		}
		if rv.Downloads != nil {
			mergeDownloads(&eff.Downloads, rv.Downloads)
		}
		if rv.JavaVersion != nil {
			eff.JavaMajor = rv.JavaVersion.MajorVersion
		}

		if rv.Arguments != nil {
			eff.Arguments.JVM = append(eff.Arguments.JVM, rv.Arguments.JVM...)
			eff.Arguments.Game = append(eff.Arguments.Game, rv.Arguments.Game...)
		}
		if rv.MinecraftArguments != "" {
			eff.LegacyGameArgs = strings.Fields(rv.MinecraftArguments)
		}

		for _, lib := range rv.Libraries {
			key := libraryKey(lib.Name)
			if idx, ok := libIndex[key]; ok {
				eff.Libraries[idx] = lib
			} else {
				libIndex[key] = len(eff.Libraries)
				eff.Libraries = append(eff.Libraries, lib)
			}
		}
	}

	if eff.JavaMajor == 0 {
		eff.JavaMajor = defaultJavaMajor(eff.ID)
	}
	return eff, nil
}

// loadChain walks inheritsFrom from id to the root, returning the chain
// ordered root-first (parent before child) so merge order matches §3.
func (r *Resolver) loadChain(ctx context.Context, id string, seen []string) ([]*RawVersion, error) {
	for _, s := range seen {
		if s == id {
			return nil, errs.New(errs.SchemaInvalid, fmt.Sprintf("inheritsFrom cycle detected at %q", id))
		}
	}
	seen = append(seen, id)

	rv, err := r.fetchRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	if rv.InheritsFrom == "" {
		return []*RawVersion{rv}, nil
	}

	parentChain, err := r.loadChain(ctx, rv.InheritsFrom, seen)
	if err != nil {
		return nil, err
	}
	return append(parentChain, rv), nil
}

// EnsureClientJar downloads the effective version's client JAR, verifying
// SHA-1, into versions/<vid>/<vid>.jar.
func (r *Resolver) EnsureClientJar(ctx context.Context, eff *Effective) error {
	if eff.Downloads.Client == nil {
		return errs.New(errs.SchemaInvalid, fmt.Sprintf("version %q has no client download", eff.ID))
	}
	dest := r.layout.VersionJARPath(eff.ID)
	return r.fetcher.Download(ctx, eff.Downloads.Client.URL, dest, fetch.Expected{
		SHA1: eff.Downloads.Client.SHA1,
		Size: eff.Downloads.Client.Size,
	})
}

func mergeDownloads(dst *Downloads, src *Downloads) {
	if src.Client != nil {
		dst.Client = src.Client
	}
	if src.ClientMappings != nil {
		dst.ClientMappings = src.ClientMappings
	}
	if src.Server != nil {
		dst.Server = src.Server
	}
	if src.ServerMappings != nil {
		dst.ServerMappings = src.ServerMappings
	}
}

// libraryKey extracts "groupId:artifactId" from a Maven coordinate string
// "groupId:artifactId:version[:classifier]", the identity libraries merge on.
func libraryKey(coord string) string {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 {
		return coord
	}
	return parts[0] + ":" + parts[1]
}

// defaultJavaMajor applies §4.3's fallback when a version JSON omits
// javaVersion: 8 for <=1.16, 17 for 1.17-1.20.4, 21 otherwise. Non-release
// ids (snapshots, old_beta/old_alpha ids that don't parse as semver) are
// treated as requiring the modern default.
func defaultJavaMajor(id string) int {
	v, err := semver.NewVersion(normalizeMCVersion(id))
	if err != nil {
		return 21
	}

	switch {
	case v.LessThan(semver.MustParse("1.17.0")):
		return 8
	case v.LessThan(semver.MustParse("1.20.5")):
		return 17
	default:
		return 21
	}
}

// normalizeMCVersion pads a Minecraft id like "1.16" into valid semver
// ("1.16.0") so it can be compared with Masterminds/semver.
func normalizeMCVersion(id string) string {
	parts := strings.Split(id, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts[:3], ".")
}
