package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// SnapshotSink receives a copy of every case snapshot written to disk.
type SnapshotSink interface {
	PutSnapshot(ctx context.Context, name string, data []byte) error
}

type SnapshotOptions struct {
	// Path of the JSON case snapshot. Empty disables persistence.
	Path        string
	Sink        SnapshotSink
	SinkTimeout time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// SnapshotName is the object name a snapshot at path is mirrored under.
func SnapshotName(path string) string {
	if path == "" {
		return "cases.json"
	}
	return filepath.Base(path)
}

func readSnapshot(path string) ([]Case, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var cases []Case
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return cases, nil
}

func encodeSnapshot(cases []Case) ([]byte, error) {
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory, so readers never observe a partial snapshot.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
