package retrieval

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrNoSnapshot is returned by Load when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotStore persists the serialized retrieval state as an opaque blob.
// Saves are best-effort; the in-memory state stays authoritative for the
// process lifetime.
type SnapshotStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// FileSnapshotStore keeps the snapshot as a single JSON file in the data
// directory.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a file-backed snapshot store rooted at dir.
func NewFileSnapshotStore(dir string) *FileSnapshotStore {
	return &FileSnapshotStore{path: filepath.Join(dir, "retrieval_snapshot.json")}
}

// Save writes the blob via a temp file and rename so a crash never leaves a
// truncated snapshot.
func (s *FileSnapshotStore) Save(ctx context.Context, data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}
	return nil
}

// Load reads the snapshot blob, returning ErrNoSnapshot when the file does
// not exist.
func (s *FileSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	return data, nil
}
