// Package modrinth is a typed client for the Modrinth mod catalog: search,
// project/version lookup, compatibility filtering, and mod installation.
package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/paths"
)

const defaultBaseURL = "https://api.modrinth.com/v2"

type Project struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	ProjectType  string   `json:"project_type"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Categories   []string `json:"categories"`
	ClientSide   string   `json:"client_side"`
	ServerSide   string   `json:"server_side"`
	Downloads    int      `json:"downloads"`
	IconURL      string   `json:"icon_url"`
	GameVersions []string `json:"game_versions"`
	Loaders      []string `json:"loaders"`
}

type Version struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	Name          string       `json:"name"`
	VersionNumber string       `json:"version_number"`
	Dependencies  []Dependency `json:"dependencies"`
	GameVersions  []string     `json:"game_versions"`
	VersionType   string       `json:"version_type"`
	Loaders       []string     `json:"loaders"`
	Files         []File       `json:"files"`
	DatePublished string       `json:"date_published"`
	Downloads     int          `json:"downloads"`
}

type Dependency struct {
	VersionID      string `json:"version_id"`
	ProjectID      string `json:"project_id"`
	DependencyType string `json:"dependency_type"`
}

type File struct {
	Hashes   FileHashes `json:"hashes"`
	URL      string     `json:"url"`
	Filename string     `json:"filename"`
	Primary  bool       `json:"primary"`
	Size     int64      `json:"size"`
}

type FileHashes struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

type SearchResult struct {
	Hits      []SearchHit `json:"hits"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
	TotalHits int         `json:"total_hits"`
}

type SearchHit struct {
	ProjectID   string   `json:"project_id"`
	ProjectType string   `json:"project_type"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Downloads   int      `json:"downloads"`
	IconURL     string   `json:"icon_url"`
	Categories  []string `json:"categories"`
}

// Client wraps the shared fetcher with Modrinth's base URL. It sets no
// User-Agent header of its own; requests carry the HTTP client's default.
type Client struct {
	fetcher *fetch.Fetcher
	baseURL string
}

func NewClient(fetcher *fetch.Fetcher) *Client {
	return &Client{fetcher: fetcher, baseURL: defaultBaseURL}
}

// Search performs a project search. limit <= 0 uses Modrinth's default of
// 10.
func (c *Client) Search(ctx context.Context, query, projectType string, limit int) (*SearchResult, error) {
	return c.SearchIndexed(ctx, query, projectType, "", limit)
}

// SearchIndexed is Search with an explicit sort index ("relevance",
// "downloads", "newest", "updated"); empty uses Modrinth's default.
func (c *Client) SearchIndexed(ctx context.Context, query, projectType, index string, limit int) (*SearchResult, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if index != "" {
		params.Set("index", index)
	}
	if projectType != "" {
		facets, _ := json.Marshal([][]string{{"project_type:" + projectType}})
		params.Set("facets", string(facets))
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	return fetchPtr[SearchResult](ctx, c.fetcher, reqURL)
}

func (c *Client) GetProject(ctx context.Context, idOrSlug string) (*Project, error) {
	reqURL := fmt.Sprintf("%s/project/%s", c.baseURL, url.PathEscape(idOrSlug))
	return fetchPtr[Project](ctx, c.fetcher, reqURL)
}

func (c *Client) ProjectVersions(ctx context.Context, projectID string) ([]Version, error) {
	reqURL := fmt.Sprintf("%s/project/%s/version", c.baseURL, url.PathEscape(projectID))
	return fetch.GetJSON[[]Version](ctx, c.fetcher, reqURL)
}

func (c *Client) GetVersion(ctx context.Context, versionID string) (*Version, error) {
	reqURL := fmt.Sprintf("%s/version/%s", c.baseURL, url.PathEscape(versionID))
	return fetchPtr[Version](ctx, c.fetcher, reqURL)
}

func fetchPtr[T any](ctx context.Context, f *fetch.Fetcher, url string) (*T, error) {
	v, err := fetch.GetJSON[T](ctx, f, url)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Compatible filters versions to those compatible with the given loader
// and MC version per §4.7's compatibility filter, sorted descending by
// date_published. Versions with equal dates keep their input order, and the
// files inside each version are not reordered.
func Compatible(versions []Version, loader, mcVersion string) []Version {
	var out []Version
	for _, v := range versions {
		if containsStr(v.Loaders, loader) && containsStr(v.GameVersions, mcVersion) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DatePublished > out[j].DatePublished
	})
	return out
}

func containsStr(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// PrimaryFile returns the file flagged primary, or the only file if there's
// exactly one, or an error if neither condition holds.
func PrimaryFile(v Version) (File, error) {
	if len(v.Files) == 1 {
		return v.Files[0], nil
	}
	for _, f := range v.Files {
		if f.Primary {
			return f, nil
		}
	}
	return File{}, errs.New(errs.NotFound, fmt.Sprintf("version %s has no primary file", v.ID))
}

// InstallMod picks versionID when given, otherwise the first compatible
// version for instance loader/mcVersion, downloads its primary file into
// <instance>/.minecraft/mods/.
func (c *Client) InstallMod(ctx context.Context, layout *paths.Layout, instanceID, projectID, versionID, loader, mcVersion string) (*Version, error) {
	var chosen *Version

	if versionID != "" {
		v, err := c.GetVersion(ctx, versionID)
		if err != nil {
			return nil, err
		}
		chosen = v
	} else {
		versions, err := c.ProjectVersions(ctx, projectID)
		if err != nil {
			return nil, err
		}
		compatible := Compatible(versions, loader, mcVersion)
		if len(compatible) == 0 {
			return nil, errs.New(errs.NotFound, fmt.Sprintf("no compatible version of %s for %s/%s", projectID, loader, mcVersion))
		}
		chosen = &compatible[0]
	}

	file, err := PrimaryFile(*chosen)
	if err != nil {
		return nil, err
	}

	modsDir := filepath.Join(layout.InstanceMinecraftDir(instanceID), "mods")
	dest := filepath.Join(modsDir, file.Filename)
	if err := c.fetcher.Download(ctx, file.URL, dest, fetch.Expected{SHA1: file.Hashes.SHA1, Size: file.Size}); err != nil {
		return nil, err
	}

	return chosen, nil
}
