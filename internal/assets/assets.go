// Package assets installs a version's asset index and objects into the
// content-addressed assets store shared by every instance.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/events"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/mcversion"
	"github.com/quasar/launchercore/internal/paths"
)

// Index is the asset index document: a flat map of virtual path to object
// reference, plus optional legacy-layout flags.
type Index struct {
	Objects        map[string]Object `json:"objects"`
	MapToResources bool              `json:"map_to_resources,omitempty"`
	Virtual        bool              `json:"virtual,omitempty"`
}

type Object struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Installer downloads asset indexes and objects through the shared fetcher,
// reporting progress via the event bus.
type Installer struct {
	layout     *paths.Layout
	fetcher    *fetch.Fetcher
	bus        *events.Bus
	objectBase string
}

func NewInstaller(layout *paths.Layout, fetcher *fetch.Fetcher, bus *events.Bus) *Installer {
	return &Installer{layout: layout, fetcher: fetcher, bus: bus, objectBase: assetBaseURL}
}

// EnsureAssets downloads eff's asset index (verifying SHA-1) and every
// object it references, then, for legacy indexes, mirrors objects into the
// virtual resources tree.
func (in *Installer) EnsureAssets(ctx context.Context, eff *mcversion.Effective) error {
	if eff.AssetIndex.ID == "" {
		return errs.New(errs.SchemaInvalid, fmt.Sprintf("version %q has no asset index", eff.ID))
	}

	indexPath := in.layout.AssetIndexPath(eff.AssetIndex.ID)
	if eff.AssetIndex.URL != "" {
		if err := in.fetcher.Download(ctx, eff.AssetIndex.URL, indexPath, fetch.Expected{
			SHA1: eff.AssetIndex.SHA1,
			Size: eff.AssetIndex.Size,
		}); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return errs.Wrap(errs.Filesystem, "reading asset index", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return errs.Wrap(errs.SchemaInvalid, "decoding asset index", err)
	}

	total := int64(len(idx.Objects))
	var done int64

	for name, obj := range idx.Objects {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(errs.Cancelled, "installing assets", err)
		}

		dest := in.layout.AssetObjectPath(obj.Hash)
		url := in.objectURL(obj.Hash)
		if err := in.fetcher.Download(ctx, url, dest, fetch.Expected{SHA1: obj.Hash, Size: obj.Size}); err != nil {
			return err
		}

		if idx.MapToResources || idx.Virtual {
			if err := mirrorLegacy(dest, in.layout.AssetVirtualDir(eff.AssetIndex.ID), name); err != nil {
				return err
			}
		}

		done++
		if in.bus != nil {
			in.bus.Publish(events.Event{
				Kind: events.DownloadProgress,
				Payload: events.DownloadProgressPayload{
					Phase: "assets",
					Done:  done,
					Total: total,
				},
			})
		}
	}

	return nil
}

const assetBaseURL = "https://resources.download.minecraft.net"

func (in *Installer) objectURL(hash string) string {
	if len(hash) < 2 {
		return in.objectBase + "/" + hash
	}
	return in.objectBase + "/" + hash[:2] + "/" + hash
}

// mirrorLegacy hard-links (falling back to copy) an object into
// assets/virtual/<index>/<name> for pre-1.7 clients that expect a flat
// resources layout rather than the content-addressed store.
func mirrorLegacy(objectPath, virtualDir, name string) error {
	dest := filepath.Join(virtualDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.Wrap(errs.Filesystem, "creating virtual asset directory", err)
	}

	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	if err := os.Link(objectPath, dest); err == nil {
		return nil
	}

	src, err := os.Open(objectPath)
	if err != nil {
		return errs.Wrap(errs.Filesystem, "opening asset object for mirroring", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errs.Wrap(errs.Filesystem, "creating virtual asset copy", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return errs.Wrap(errs.Filesystem, "copying virtual asset", err)
	}
	return nil
}
