package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/foundation/normalization"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
)

// KeepPolicy decides which workspaces survive Release.
type KeepPolicy int

const (
	KeepNever KeepPolicy = iota
	KeepOnFailure
	KeepAlways
)

var keepPolicies = normalization.NewEnum("keepWorkspace", map[string]KeepPolicy{
	"never":      KeepNever,
	"on-failure": KeepOnFailure,
	"always":     KeepAlways,
})

// ParseKeepPolicy reads a configured policy; empty means never.
func ParseKeepPolicy(raw string) (KeepPolicy, error) {
	if strings.TrimSpace(raw) == "" {
		return KeepNever, nil
	}
	return keepPolicies.Normalize(raw)
}

func (p KeepPolicy) String() string {
	switch p {
	case KeepOnFailure:
		return "on-failure"
	case KeepAlways:
		return "always"
	default:
		return "never"
	}
}

// Manager hands out scratch directories below baseDir.
type Manager struct {
	baseDir string
	keep    KeepPolicy
}

// NewManager creates a manager rooted at baseDir, or the system temp dir
// when baseDir is empty.
func NewManager(baseDir string, keep KeepPolicy) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, keep: keep}
}

// Workspace is one scratch directory.
type Workspace struct {
	path string
	keep KeepPolicy
}

// Create makes a new uniquely named workspace. label ends up in the
// directory name.
func (m *Manager) Create(label string) (*Workspace, error) {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "spritegen-"+sanitize(label)+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	slog.Debug("Created workspace", logfields.Path(dir))
	return &Workspace{path: dir, keep: m.keep}, nil
}

func (w *Workspace) Path() string { return w.path }

// File returns the path of name inside the workspace.
func (w *Workspace) File(name string) string {
	return filepath.Join(w.path, name)
}

// WriteFile writes data to name inside the workspace and returns its path.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	p := w.File(name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write workspace file: %w", err)
	}
	return p, nil
}

// Release removes the workspace unless the policy keeps it. failed reports
// whether the work done inside it failed. Releasing twice is a no-op.
func (w *Workspace) Release(failed bool) error {
	if w.path == "" {
		return nil
	}
	if w.keep == KeepAlways || (failed && w.keep == KeepOnFailure) {
		slog.Info("Keeping converter workspace", logfields.Path(w.path))
		w.path = ""
		return nil
	}
	dir := w.path
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	slog.Debug("Removed workspace", logfields.Path(dir))
	w.path = ""
	return nil
}

func sanitize(label string) string {
	if label == "" {
		return "tmp"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
