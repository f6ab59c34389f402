// SPDX-License-Identifier: MPL-2.0

// Package location resolves where an application bundle physically lives or
// will be cached. It normalizes the three user-supplied paths (bundle source,
// destination, answers file) against a configurable filesystem root and
// decides whether the source names a remote image or an existing local
// directory.
package location

import (
	"os"
	"path/filepath"
	"strings"

	"bundlectl/internal/issue"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "location",
})

const (
	// DestinationNone is the sentinel destination meaning "no persistent
	// location": a fresh temporary directory is generated instead.
	// Matched case-insensitively.
	DestinationNone = "none"

	// cacheDirName is the per-user cache root component under the home dir.
	cacheDirName = ".bundlectl"
)

type (
	// SourceKind tells whether the bundle originates from a remote image or
	// an existing local path.
	SourceKind int

	// AppLocation is the resolved identity of the target bundle. It is
	// computed once at controller construction and immutable afterward.
	AppLocation struct {
		// SourceKind is the origin of the bundle.
		SourceKind SourceKind
		// ImageReference is set iff SourceKind is SourceRemoteImage.
		ImageReference string
		// AppPath is the filesystem path where the bundle resides or will
		// be materialized. Always set once resolution completes.
		AppPath string
		// Generated is true when AppPath was created by the resolver (temp
		// dir or image cache dir) rather than supplied by the caller. Clean
		// only removes generated paths unless forced.
		Generated bool
	}

	// Resolver resolves user-supplied paths into an AppLocation. Root allows
	// the controller to operate correctly inside an isolated root filesystem
	// (chroot/container mount): absolute inputs are rewritten as Root+path.
	Resolver struct {
		// Root is the filesystem root all absolute inputs are rebased onto.
		Root string
		// CacheRoot is the base directory for image-derived cache dirs.
		CacheRoot string
	}
)

const (
	SourceUnknown SourceKind = iota
	SourceRemoteImage
	SourceLocalPath
)

// String returns the lowercase name of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceRemoteImage:
		return "image"
	case SourceLocalPath:
		return "path"
	default:
		return "unknown"
	}
}

// NewResolver creates a Resolver. An empty root means the real filesystem
// root; an empty cacheRoot defaults to ~/.bundlectl/cache.
func NewResolver(root, cacheRoot string) *Resolver {
	if root == "" {
		root = string(filepath.Separator)
	}
	if cacheRoot == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cacheRoot = filepath.Join(home, cacheDirName, "cache")
		} else {
			cacheRoot = filepath.Join(os.TempDir(), cacheDirName, "cache")
		}
	}
	return &Resolver{Root: root, CacheRoot: cacheRoot}
}

// Resolve produces the AppLocation for a source specifier plus optional
// destination and answers-file path, applying the rules in order:
//
//  1. Absolute inputs are rebased onto the configured root.
//  2. The "none" destination sentinel becomes a fresh temp directory.
//  3. An existing filesystem path is a local source; anything else names a
//     remote image.
//  4. A local source with a destination is copied (merge, not overwrite)
//     into the destination, which becomes the app path.
//  5. An image source uses the destination if given, else a deterministic
//     cache directory derived from the image reference.
//  6. An explicit answers file must exist, or resolution fails.
//
// The returned string is the resolved answers-file path, or "" when none was
// given (left for later discovery).
func (r *Resolver) Resolve(source, destination, answersFile string) (AppLocation, string, error) {
	if source == "" {
		return AppLocation{}, "", issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("resolve bundle source").
			WithSuggestion("Pass an image reference (myapp:1.0) or a path to an unpacked bundle").
			BuildError()
	}

	source = r.rebase(source)
	destination = r.rebase(destination)
	answersFile = r.rebase(answersFile)
	generatedDest := false

	if destination != "" && strings.EqualFold(destination, DestinationNone) {
		tmp, err := os.MkdirTemp("", "bundlectl-")
		if err != nil {
			return AppLocation{}, "", issue.NewErrorContext().
				WithKind(issue.KindIO).
				WithOperation("create temporary app directory").
				Wrap(err).
				BuildError()
		}
		logger.Debug("'none' destination requested, using temp dir", "dir", tmp)
		destination = tmp
		generatedDest = true
	}

	loc := AppLocation{}
	if _, err := os.Stat(source); err == nil {
		loc.SourceKind = SourceLocalPath
		loc.AppPath = source
	} else {
		loc.SourceKind = SourceRemoteImage
		loc.ImageReference = source
	}

	switch loc.SourceKind {
	case SourceLocalPath:
		// A local path plus a destination just promotes the bundle to a new
		// persistent location: copy with merge semantics and point there.
		if destination != "" {
			if err := copyTree(loc.AppPath, destination); err != nil {
				return AppLocation{}, "", err
			}
			loc.AppPath = destination
			loc.Generated = generatedDest
		}
	case SourceRemoteImage:
		if destination != "" {
			loc.AppPath = destination
			loc.Generated = generatedDest
		} else {
			dir, err := r.cacheDir(loc.ImageReference)
			if err != nil {
				return AppLocation{}, "", err
			}
			loc.AppPath = dir
			loc.Generated = true
		}
	}

	if answersFile != "" {
		if info, err := os.Stat(answersFile); err != nil || info.IsDir() {
			return AppLocation{}, "", issue.NewErrorContext().
				WithKind(issue.KindConfiguration).
				WithOperation("resolve answers file").
				WithResource(answersFile).
				WithSuggestion("Verify the path passed via --answers exists").
				WithSuggestion("Run 'bundlectl genanswers' to create a starter file").
				BuildError()
		}
	}

	logger.Debug("resolved app location",
		"kind", loc.SourceKind, "appPath", loc.AppPath, "image", loc.ImageReference)
	return loc, answersFile, nil
}

// rebase rewrites an absolute path as Root+path with the leading separator
// stripped, so the controller can run against an alternate root filesystem.
// Relative and empty paths pass through untouched.
func (r *Resolver) rebase(path string) string {
	if path == "" || !filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Root, strings.TrimPrefix(path, string(filepath.Separator)))
}

// cacheDir returns (and creates) the deterministic cache directory for an
// image reference.
func (r *Resolver) cacheDir(image string) (string, error) {
	dir := filepath.Join(r.CacheRoot, sanitizeImageRef(image))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("create image cache directory").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}
	return dir, nil
}

// sanitizeImageRef maps an image reference to a single path component.
func sanitizeImageRef(image string) string {
	return strings.Map(func(c rune) rune {
		switch c {
		case '/', ':', '@':
			return '-'
		default:
			return c
		}
	}, image)
}
