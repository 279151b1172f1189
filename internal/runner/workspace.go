package runner

import (
	"fmt"
	"os"
	"path/filepath"
)

const workspacePattern = "gorepl-*"

// Workspace is a temporary directory owned by a single compile/run attempt.
// Close removes it together with everything written into it.
type Workspace struct {
	dir string
}

// NewWorkspace creates a workspace under parent (os.TempDir() when empty)
func NewWorkspace(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, workspacePattern)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}
	return &Workspace{dir: abs}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of name inside the workspace
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile writes data to name inside the workspace and returns its path
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// Close removes the workspace. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
