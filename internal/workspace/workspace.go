package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
)

// Manager owns the scratch directory used for clones and downloads of one run.
type Manager struct {
	baseDir string
	tempDir string
}

// NewManager creates a workspace manager rooted at baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create makes a uniquely named workspace directory. Calling it twice is a no-op.
func (m *Manager) Create() error {
	if m.tempDir != "" {
		return nil
	}
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "codetutor-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.tempDir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the path to the workspace directory
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Cleanup removes the workspace directory.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}

// CreateSubdir creates a subdirectory within the workspace, creating the workspace on demand.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if err := m.Create(); err != nil {
		return "", err
	}
	subdir := filepath.Join(m.tempDir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}
