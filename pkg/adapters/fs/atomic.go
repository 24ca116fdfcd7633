package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempFilePrefix names staged files. The leading dot keeps them out of the
// watcher's view when the archive lives below the raw directory.
const TempFilePrefix = ".sediment-tmp-"

// stageFile writes data to a hidden file next to target and returns its path.
// The caller either commits it with commitFile or removes it.
func stageFile(target string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(target), TempFilePrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", filepath.Base(target), err)
	}
	staged := f.Name()

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(staged, perm)
	}
	if err != nil {
		_ = os.Remove(staged)
		return "", fmt.Errorf("failed to stage %s: %w", filepath.Base(target), err)
	}
	return staged, nil
}

// commitFile moves a staged file onto target, replacing any existing file.
func commitFile(staged, target string) error {
	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("failed to publish %s: %w", target, err)
	}
	syncDir(filepath.Dir(target))
	return nil
}

// writeFileAtomic makes data visible at filename in a single rename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	staged, err := stageFile(filename, data, perm)
	if err != nil {
		return err
	}
	return commitFile(staged, filename)
}

// syncDir flushes a directory entry change. Best effort: not every platform
// allows opening directories for sync.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
