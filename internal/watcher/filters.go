package watcher

import (
	"path/filepath"
	"strings"
)

// Filters for the files a Rust workspace rebuild cares about.

// RustFilter passes Rust source files
func RustFilter(path string) bool {
	return filepath.Ext(path) == ".rs"
}

// ManifestFilter passes cargo manifests and lockfiles
func ManifestFilter(path string) bool {
	base := filepath.Base(path)
	return base == "Cargo.toml" || base == "Cargo.lock"
}

// AssetFilter passes web assets served alongside the wasm build
func AssetFilter(path string) bool {
	switch filepath.Ext(path) {
	case ".html", ".css", ".js":
		return true
	}
	return false
}

// SourceFilter passes anything that should trigger a rebuild
func SourceFilter(path string) bool {
	return RustFilter(path) || ManifestFilter(path) || AssetFilter(path)
}

// ExcludeDirsFilter rejects paths under any of the named directories,
// wherever they appear in the tree. The watch.ignore list feeds this.
func ExcludeDirsFilter(dirs ...string) FileFilter {
	return func(path string) bool {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
				return false
			}
		}
		return true
	}
}

// NoDistFilter rejects the dev server's own output directory, so a build
// finishing does not trigger another build.
func NoDistFilter(dist string) FileFilter {
	return ExcludeDirsFilter(dist)
}
