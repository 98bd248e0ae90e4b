package java

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/quasar/launchercore/internal/errs"
)

// adoptiumRelease is the slice of fields we need out of Adoptium's
// feature_releases response; the rest of the payload is ignored.
type adoptiumRelease struct {
	Binaries []struct {
		Package struct {
			Link string `json:"link"`
			Name string `json:"name"`
		} `json:"package"`
	} `json:"binaries"`
}

// Downloader installs managed Java runtimes from Adoptium/Temurin, for
// users who have no system Java matching a version's requirement.
type Downloader struct {
	client *retryablehttp.Client
}

func NewDownloader() *Downloader {
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &Downloader{client: client}
}

// Install downloads and extracts the requested JRE major version into
// destDir, stripping the archive's top-level directory, and returns the
// path to the extracted java executable. If destDir already contains one,
// the download is skipped.
func (d *Downloader) Install(ctx context.Context, majorVersion int, destDir string) (string, error) {
	if existing, err := d.FindJavaExecutable(destDir); err == nil {
		return existing, nil
	}

	downloadURL, filename, err := d.resolveAdoptiumURL(ctx, majorVersion)
	if err != nil {
		return "", errs.Wrap(errs.Network, "resolving adoptium release", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errs.Wrap(errs.Filesystem, "creating runtime directory", err)
	}
	archivePath := filepath.Join(destDir, filename)
	if err := d.downloadFile(ctx, downloadURL, archivePath); err != nil {
		return "", errs.Wrap(errs.Network, "downloading java runtime", err)
	}
	defer os.Remove(archivePath)

	if err := extractStrippingRoot(archivePath, destDir); err != nil {
		return "", errs.Wrap(errs.Filesystem, "extracting java runtime", err)
	}

	return d.FindJavaExecutable(destDir)
}

func (d *Downloader) resolveAdoptiumURL(ctx context.Context, majorVersion int) (string, string, error) {
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "mac"
	}
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "aarch64"
	}

	url := fmt.Sprintf(
		"https://api.adoptium.net/v3/assets/feature_releases/%d/ga?architecture=%s&heap_size=normal&image_type=jre&jvm_impl=hotspot&os=%s&page=0&page_size=1&project=jdk&sort_method=DEFAULT&sort_order=DESC&vendor=eclipse",
		majorVersion, arch, osName)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("adoptium returned status %d", resp.StatusCode)
	}

	var releases []adoptiumRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return "", "", err
	}
	if len(releases) == 0 || len(releases[0].Binaries) == 0 {
		return "", "", fmt.Errorf("no adoptium release found for java %d on %s/%s", majorVersion, osName, arch)
	}

	pkg := releases[0].Binaries[0].Package
	if pkg.Link == "" {
		return "", "", fmt.Errorf("adoptium release for java %d has no download link", majorVersion)
	}
	return pkg.Link, pkg.Name, nil
}

func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

func extractStrippingRoot(src, dest string) error {
	if strings.HasSuffix(src, ".zip") {
		return extractZipStrippingRoot(src, dest)
	}
	return extractTarGzStrippingRoot(src, dest)
}

// stripRoot drops the archive's single top-level directory component
// (jdk-21.0.4+7-jre/bin/java -> bin/java). Entries with no such component
// (a root-level file) are skipped.
func stripRoot(name string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(name), "/")
	if len(parts) <= 1 {
		return "", false
	}
	rel := strings.Join(parts[1:], "/")
	if rel == "" {
		return "", false
	}
	return filepath.FromSlash(rel), true
}

func extractTarGzStrippingRoot(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		rel, ok := stripRoot(header.Name)
		if !ok {
			continue
		}
		target := filepath.Join(dest, rel)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			os.Symlink(header.Linkname, target)
		}
	}
	return nil
}

func extractZipStrippingRoot(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, zf := range r.File {
		rel, ok := stripRoot(zf.Name)
		if !ok {
			continue
		}
		target := filepath.Join(dest, rel)

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, zf.Mode())
		if err != nil {
			return err
		}
		rc, err := zf.Open()
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		out.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// FindJavaExecutable walks dir looking for a bin/java(.exe) produced by a
// prior Install.
func (d *Downloader) FindJavaExecutable(dir string) (string, error) {
	binName := "java"
	if runtime.GOOS == "windows" {
		binName = "java.exe"
	}

	var found string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if info.Name() == binName && filepath.Base(filepath.Dir(path)) == "bin" {
			found = path
			return filepath.SkipDir
		}
		return nil
	})
	if found == "" {
		return "", fmt.Errorf("java executable not found in %s", dir)
	}
	return found, nil
}
