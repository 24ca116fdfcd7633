package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// vaultMarker is the settings directory Obsidian keeps at a vault's root.
const vaultMarker = ".obsidian"

// FindVaultRoot looks upwards from startDir for a directory containing an
// Obsidian settings directory and returns its absolute path.
func FindVaultRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isDir(filepath.Join(dir, vaultMarker)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no %s directory above %s", vaultMarker, abs)
}

// vaultRoot is FindVaultRoot with the parent of outputDir as fallback.
// outputDir need not exist yet.
func vaultRoot(outputDir string) string {
	if root, err := FindVaultRoot(outputDir); err == nil {
		return root
	}
	return filepath.Dir(outputDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
