package cargo

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Workspace describes the cargo workspace rustle operates on, as reported by
// `cargo metadata`.
type Workspace struct {
	Root            string    `json:"workspace_root"`
	TargetDirectory string    `json:"target_directory"`
	Packages        []Package `json:"packages"`
}

// Package is one workspace member
type Package struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ManifestPath string   `json:"manifest_path"`
	Targets      []Target `json:"targets"`
}

// Target is a buildable target within a package
type Target struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

// IsLib reports whether the target is a library of any crate type
func (t Target) IsLib(kind string) bool {
	for _, k := range t.Kind {
		if k == kind {
			return true
		}
	}
	return false
}

// LoadWorkspace runs `cargo metadata` and parses the workspace description
func LoadWorkspace(ctx context.Context, runner *Runner, inv Invocation) (*Workspace, error) {
	output, err := runner.Run(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("loading workspace metadata: %w", err)
	}

	var ws Workspace
	if err := json.Unmarshal(output, &ws); err != nil {
		return nil, fmt.Errorf("parsing workspace metadata: %w", err)
	}

	return &ws, nil
}

// WasmPackage picks the package whose cdylib target becomes the web build.
// An explicit crate name wins; otherwise the first member with a cdylib
// target is chosen, falling back to the first member.
func (ws *Workspace) WasmPackage(crate string) (*Package, error) {
	if len(ws.Packages) == 0 {
		return nil, fmt.Errorf("workspace has no packages")
	}

	if crate != "" {
		for i := range ws.Packages {
			if ws.Packages[i].Name == crate {
				return &ws.Packages[i], nil
			}
		}
		return nil, fmt.Errorf("crate '%s' is not a workspace member", crate)
	}

	for i := range ws.Packages {
		for _, target := range ws.Packages[i].Targets {
			if target.IsLib("cdylib") {
				return &ws.Packages[i], nil
			}
		}
	}

	return &ws.Packages[0], nil
}

// WasmArtifact returns the path of the .wasm file cargo produces for the
// package under the given target triple and profile.
func (ws *Workspace) WasmArtifact(pkg *Package, target, profile string) string {
	dir := "debug"
	if profile == "release" {
		dir = "release"
	}
	// Artifact names use underscores regardless of the crate name
	name := strings.ReplaceAll(pkg.Name, "-", "_") + ".wasm"
	return filepath.Join(ws.TargetDirectory, target, dir, name)
}
