package wasm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const indexTemplate = `<!doctype html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>%s</title>
	<style>
		html, body { margin: 0; padding: 0; height: 100%%; }
		canvas { display: block; width: 100%%; height: 100%%; }
	</style>
</head>
<body>
	<script type="module">
		import init from './%s.js';
		init();
	</script>
</body>
</html>
`

// EnsureIndexHTML writes a minimal bootstrap page into the dist directory if
// the project does not ship its own. The page loads the wasm-bindgen module
// named after the crate.
func EnsureIndexHTML(distDir, crateName string) error {
	indexPath := filepath.Join(distDir, "index.html")
	if _, err := os.Stat(indexPath); err == nil {
		return nil
	}

	moduleName := strings.ReplaceAll(crateName, "-", "_")
	content := fmt.Sprintf(indexTemplate, crateName, moduleName)

	if err := os.WriteFile(indexPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing index.html: %w", err)
	}

	return nil
}

// CopyAssets copies the static asset directory into dist. A missing asset
// directory is not an error.
func CopyAssets(assetsDir, distDir string) error {
	if _, err := os.Stat(assetsDir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading assets directory: %w", err)
	}

	return copyDir(assetsDir, distDir)
}

func copyDir(src, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dest, relPath)

		if info.IsDir() {
			return os.MkdirAll(destPath, info.Mode())
		}

		return copyFile(path, destPath)
	})
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}
