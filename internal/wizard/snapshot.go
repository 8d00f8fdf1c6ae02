package wizard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoSnapshot is returned by Snapshots.Load when no draft exists for the
// owner. The store treats it the same as a corrupt snapshot: empty state.
var ErrNoSnapshot = errors.New("no wizard snapshot")

// Snapshots persists wizard drafts between sessions, keyed by owner. The
// payload is the versioned JSON produced by the store; backends treat it as
// an opaque blob.
type Snapshots interface {
	Load(owner string) ([]byte, error)
	Save(owner string, data []byte) error
	Delete(owner string) error
}

type MemorySnapshots struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{blobs: make(map[string][]byte)}
}

func (m *MemorySnapshots) Load(owner string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok := m.blobs[owner]
	if !ok {
		return nil, ErrNoSnapshot
	}

	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (m *MemorySnapshots) Save(owner string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob := make([]byte, len(data))
	copy(blob, data)
	m.blobs[owner] = blob
	return nil
}

func (m *MemorySnapshots) Delete(owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, owner)
	return nil
}

// FileSnapshots writes one JSON file per owner under dir.
type FileSnapshots struct {
	dir string
}

func NewFileSnapshots(dir string) (*FileSnapshots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	return &FileSnapshots{dir: dir}, nil
}

func (f *FileSnapshots) path(owner string) string {
	// Owner IDs are nanoids or UUIDs; strip anything path-hostile anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, owner)

	return filepath.Join(f.dir, safe+".json")
}

func (f *FileSnapshots) Load(owner string) ([]byte, error) {
	data, err := os.ReadFile(f.path(owner))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return data, nil
}

func (f *FileSnapshots) Save(owner string, data []byte) error {
	tmp := f.path(owner) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp, f.path(owner)); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

func (f *FileSnapshots) Delete(owner string) error {
	err := os.Remove(f.path(owner))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}

	return nil
}
