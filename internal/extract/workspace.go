package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Workspace is the per-request temporary directory that owns every
// downloaded video, extracted audio track and sampled frame.
type Workspace struct {
	dir      string
	mu       sync.Mutex
	released bool
}

// NewWorkspace creates a uniquely named directory under base.
// An empty base uses os.TempDir().
func NewWorkspace(base string) (*Workspace, error) {
	dir, err := os.MkdirTemp(base, "judolscan-"+uuid.NewString()+"-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns a path for name inside the workspace
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// Mkdir creates a uniquely named subdirectory
func (w *Workspace) Mkdir(prefix string) (string, error) {
	dir, err := os.MkdirTemp(w.dir, prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("create %s dir: %w", prefix, err)
	}
	return dir, nil
}

// Save streams r into a uniquely named file ending in suffix and
// returns its path and size
func (w *Workspace) Save(suffix string, r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(w.dir, "upload-*"+filepath.Ext("x"+suffix))
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return "", n, fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", n, fmt.Errorf("close upload file: %w", err)
	}
	return f.Name(), n, nil
}

// Release removes the workspace and everything in it. Safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil
	}
	w.released = true
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("release workspace: %w", err)
	}
	return nil
}
