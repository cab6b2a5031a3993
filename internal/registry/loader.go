package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"koboldd/internal/common/fsutil"
)

// softPromptExt is the extension KoboldAI soft prompt archives use.
const softPromptExt = ".zip"

// LoadDir scans a directory for soft prompt archives (*.zip) and returns their
// filenames, sorted. An empty dir yields no soft prompts and no error.
func LoadDir(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), softPromptExt) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Contains reports whether name is one of the soft prompts in dir.
func Contains(dir, name string) (bool, error) {
	names, err := LoadDir(dir)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
