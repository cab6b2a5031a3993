package fsutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// CheckFile reports an error unless path names an existing regular file.
func CheckFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// CheckExecutable resolves bin the way exec.Command would and reports whether
// it can be started. Bare names are looked up in PATH.
func CheckExecutable(bin string) (string, error) {
	if bin == "" {
		return "", errors.New("empty binary path")
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return bin, err
	}
	if err := CheckFile(resolved); err != nil {
		return resolved, err
	}
	return resolved, nil
}
