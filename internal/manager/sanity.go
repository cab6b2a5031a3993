package manager

import (
	"koboldd/internal/common/fsutil"
)

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	BinaryFound bool   `json:"binary_found"`
	BinaryPath  string `json:"binary_path,omitempty"`
	ModelFound  bool   `json:"model_found"`
	ModelPath   string `json:"model_path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// OK reports whether both the runner binary and the model are usable.
func (r SanityReport) OK() bool { return r.BinaryFound && r.ModelFound }

// SanityCheck validates that the runner binary and model file exist.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	s := m.settings.GenerationSettings()
	r := SanityReport{BinaryPath: s.BinaryPath, ModelPath: s.ModelPath}
	resolved, err := fsutil.CheckExecutable(s.BinaryPath)
	r.BinaryPath = resolved
	if err != nil {
		r.Error = "runner binary: " + err.Error()
		return r
	}
	r.BinaryFound = true
	if err := fsutil.CheckFile(s.ModelPath); err != nil {
		r.Error = "model: " + err.Error()
		return r
	}
	r.ModelFound = true
	return r
}
