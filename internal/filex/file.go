// Package filex contains filesystem helpers for the data and backup
// directories.
package filex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/lifevault/internal/common"
)

// EnsureDir creates dir (and parents) with 0700 permissions and returns its
// absolute path. Relative paths are resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// WriteFileAtomic writes data to dir/name through a temporary file in the
// same directory followed by a rename, so readers never observe a partially
// written file. It returns the final path.
func WriteFileAtomic(dir, name string, data []byte) (string, error) {
	dir, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}

	suffix, err := common.MakeRandHexString(6)
	if err != nil {
		return "", err
	}

	final := filepath.Join(dir, name)
	tmp := final + ".tmp-" + suffix

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}

	return final, nil
}
