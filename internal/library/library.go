// Package library resolves a version's library set into a classpath,
// downloading allowed artifacts and extracting native classifiers into the
// instance's natives directory.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/fetch"
	"github.com/quasar/launchercore/internal/mcversion"
	"github.com/quasar/launchercore/internal/paths"
)

// goOSToMojang maps Go's runtime.GOOS to the OS name Mojang's rules use.
var goOSToMojang = map[string]string{
	"darwin":  "osx",
	"linux":   "linux",
	"windows": "windows",
}

// Allows evaluates a library's rule list for the current OS. With no rules
// the library always applies. Rules are evaluated in order and the last
// matching rule wins (§3), matching Mojang's own launcher semantics.
func Allows(rules []mcversion.Rule) bool {
	if len(rules) == 0 {
		return true
	}

	allowed := false
	osName := goOSToMojang[runtime.GOOS]

	for _, rule := range rules {
		if !ruleMatches(rule, osName) {
			continue
		}
		allowed = rule.Action == "allow"
	}
	return allowed
}

func ruleMatches(rule mcversion.Rule, osName string) bool {
	if rule.OS == nil {
		return true
	}
	if rule.OS.Name != "" && rule.OS.Name != osName {
		return false
	}
	if rule.OS.Arch != "" && rule.OS.Arch != runtime.GOARCH {
		return false
	}
	return true
}

// Installer resolves classpaths and installs libraries/natives for a
// resolved version.
type Installer struct {
	layout  *paths.Layout
	fetcher *fetch.Fetcher
}

func NewInstaller(layout *paths.Layout, fetcher *fetch.Fetcher) *Installer {
	return &Installer{layout: layout, fetcher: fetcher}
}

// ResolveClasspath downloads every allowed library artifact, extracts native
// classifiers into the instance's natives directory (wiped first to defeat
// stale natives), and returns the ordered classpath: libraries in merge
// order, de-duplicated keeping the last-seen entry, with the client JAR's
// path appended last. The client JAR itself is not downloaded here;
// mcversion's EnsureClientJar does that.
func (in *Installer) ResolveClasspath(ctx context.Context, eff *mcversion.Effective, instanceID string) ([]string, error) {
	nativesDir := in.layout.InstanceNativesDir(instanceID)
	if err := os.RemoveAll(nativesDir); err != nil {
		return nil, errs.Wrap(errs.Filesystem, "clearing natives directory", err)
	}
	if err := os.MkdirAll(nativesDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.Filesystem, "creating natives directory", err)
	}

	seen := map[string]int{}
	var classpath []string

	for _, lib := range eff.Libraries {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.Cancelled, "resolving classpath", ctx.Err())
		}
		if !Allows(lib.Rules) {
			continue
		}

		artifact := libraryArtifact(lib)
		if artifact != nil {
			dest := in.layout.LibraryPath(artifact.Path)
			if err := in.fetcher.Download(ctx, artifact.URL, dest, fetch.Expected{
				SHA1: artifact.SHA1,
				Size: artifact.Size,
			}); err != nil {
				return nil, err
			}

			key := libraryKey(lib.Name)
			if idx, ok := seen[key]; ok {
				classpath[idx] = dest
			} else {
				seen[key] = len(classpath)
				classpath = append(classpath, dest)
			}
		}

		if err := in.installNative(ctx, lib, nativesDir); err != nil {
			return nil, err
		}
	}

	classpath = append(classpath, in.layout.VersionJARPath(eff.ID))
	return classpath, nil
}

// installNative extracts the OS-appropriate native classifier (if any) into
// nativesDir, stripping META-INF so only shared-library payloads land there.
func (in *Installer) installNative(ctx context.Context, lib mcversion.Library, nativesDir string) error {
	if lib.Downloads == nil || len(lib.Downloads.Classifiers) == 0 {
		return nil
	}
	classifierKey, ok := lib.Natives[goOSToMojang[runtime.GOOS]]
	if !ok {
		return nil
	}
	classifierKey = strings.ReplaceAll(classifierKey, "${arch}", archBits())

	artifact, ok := lib.Downloads.Classifiers[classifierKey]
	if !ok || artifact == nil {
		return nil
	}

	tmp := filepath.Join(in.layout.CacheDir(), "natives-tmp", filepath.Base(artifact.Path))
	if err := in.fetcher.Download(ctx, artifact.URL, tmp, fetch.Expected{SHA1: artifact.SHA1, Size: artifact.Size}); err != nil {
		return err
	}

	return paths.UnzipInto(tmp, nativesDir, true)
}

func archBits() string {
	if runtime.GOARCH == "386" {
		return "32"
	}
	return "64"
}

// libraryKey extracts "groupId:artifactId" from a Maven coordinate.
func libraryKey(coord string) string {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 {
		return coord
	}
	return parts[0] + ":" + parts[1]
}

// libraryArtifact resolves the artifact to download for lib. Vanilla
// libraries carry a full downloads.artifact; Fabric/Quilt loader-profile
// libraries instead give only a Maven coordinate in name and a repository
// base URL in url, so that shape is synthesised here.
func libraryArtifact(lib mcversion.Library) *mcversion.Artifact {
	if lib.Downloads != nil && lib.Downloads.Artifact != nil {
		return lib.Downloads.Artifact
	}
	if lib.URL == "" {
		return nil
	}
	path := mavenCoordToPath(lib.Name)
	if path == "" {
		return nil
	}
	return &mcversion.Artifact{
		Path: path,
		URL:  strings.TrimSuffix(lib.URL, "/") + "/" + path,
	}
}

// mavenCoordToPath converts a "groupId:artifactId:version[:classifier]"
// Maven coordinate into its repository-relative jar path.
func mavenCoordToPath(coord string) string {
	parts := strings.Split(coord, ":")
	if len(parts) < 3 {
		return ""
	}
	groupPath := strings.ReplaceAll(parts[0], ".", "/")
	artifactID, version := parts[1], parts[2]

	filename := fmt.Sprintf("%s-%s", artifactID, version)
	if len(parts) > 3 {
		filename += "-" + parts[3]
	}
	filename += ".jar"

	return strings.Join([]string{groupPath, artifactID, version, filename}, "/")
}

// ClasspathSeparator returns the OS path-list separator Java expects on the
// command line (':' on POSIX, ';' on Windows).
func ClasspathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}
