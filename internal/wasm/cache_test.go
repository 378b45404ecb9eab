package wasm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceCacheLifecycle(t *testing.T) {
	cache := NewSourceCache()

	assert.False(t, cache.Matches("abc"), "empty cache matches nothing")
	assert.False(t, cache.Matches(""), "empty hash never matches")

	cache.Store("abc")
	assert.True(t, cache.Matches("abc"))
	assert.True(t, cache.Matches("abc"))
	assert.False(t, cache.Matches("def"))
	assert.Equal(t, int64(2), cache.Hits())

	cache.Invalidate()
	assert.False(t, cache.Matches("abc"))
	assert.False(t, cache.Matches(""), "invalidated cache must not match the empty hash")
}

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestHashSourcesStable(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/main.rs", "fn main() {}")
	writeSource(t, root, "src/lib.rs", "pub fn run() {}")
	writeSource(t, root, "Cargo.toml", "[package]\nname = \"app\"\n")

	first, err := HashSources(root, []string{"src"})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := HashSources(root, []string{"src"})
	require.NoError(t, err)
	assert.Equal(t, first, second, "unchanged tree hashes identically")
}

func TestHashSourcesChangesOnEdit(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/main.rs", "fn main() {}")

	before, err := HashSources(root, []string{"src"})
	require.NoError(t, err)

	// Size change guarantees a new hash even with coarse mtime resolution
	writeSource(t, root, "src/main.rs", "fn main() { println!(\"hi\"); }")

	after, err := HashSources(root, []string{"src"})
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestHashSourcesManifestInvalidates(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/main.rs", "fn main() {}")
	writeSource(t, root, "Cargo.toml", "[package]\nname = \"app\"\n")

	before, err := HashSources(root, []string{"src"})
	require.NoError(t, err)

	writeSource(t, root, "Cargo.toml", "[package]\nname = \"app\"\nversion = \"0.2.0\"\n")

	after, err := HashSources(root, []string{"src"})
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "manifest edits must invalidate the hash")
}

func TestHashSourcesSkipsTargetDir(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/main.rs", "fn main() {}")
	writeSource(t, root, "src/target/debug/app.d", "build output")

	before, err := HashSources(root, []string{"src"})
	require.NoError(t, err)

	writeSource(t, root, "src/target/debug/app.d", "different build output entirely")
	// Keep mtime-based hashing honest
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src/target/debug/app.d"), future, future))

	after, err := HashSources(root, []string{"src"})
	require.NoError(t, err)
	assert.Equal(t, before, after, "build output must not affect the source hash")
}

func TestHashSourcesMissingPath(t *testing.T) {
	root := t.TempDir()

	hash, err := HashSources(root, []string{"src", "assets"})
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}
