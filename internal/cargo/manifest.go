package cargo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the subset of Cargo.toml rustle reads directly. Parsing the
// manifest avoids a cargo invocation for display and doctor checks, and keeps
// those paths working when cargo itself is broken.
type Manifest struct {
	Package   ManifestPackage   `toml:"package"`
	Lib       ManifestLib       `toml:"lib"`
	Workspace ManifestWorkspace `toml:"workspace"`
}

type ManifestPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

type ManifestLib struct {
	CrateType []string `toml:"crate-type"`
}

type ManifestWorkspace struct {
	Members []string `toml:"members"`
}

// ReadManifest parses a Cargo.toml file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &m, nil
}

// IsWorkspace reports whether the manifest declares a multi-package workspace
func (m *Manifest) IsWorkspace() bool {
	return len(m.Workspace.Members) > 0
}

// HasWasmLib reports whether the package builds a cdylib, the crate type the
// wasm-bindgen toolchain consumes.
func (m *Manifest) HasWasmLib() bool {
	for _, kind := range m.Lib.CrateType {
		if kind == "cdylib" {
			return true
		}
	}
	return false
}

// FindManifest walks up from dir looking for a Cargo.toml
func FindManifest(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(abs, "Cargo.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("no Cargo.toml found in %s or any parent directory", dir)
		}
		abs = parent
	}
}
