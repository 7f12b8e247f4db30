package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

const snapshotExt = ".json"

// Compile-time interface checks.
var (
	_ ports.SnapshotStore = (*FileStore)(nil)
	_ ports.HealthChecker = (*FileStore)(nil)
)

// FileStore stores each snapshot as {dir}/{YYYY-MM-DD}.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir. The directory is created on first write.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file store: directory is required")
	}

	return &FileStore{dir: filepath.Clean(dir)}, nil
}

// Dir returns the directory snapshots are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file a date's snapshot is stored in.
func (s *FileStore) Path(dateKey string) string {
	return filepath.Join(s.dir, dateKey+snapshotExt)
}

// Write encodes the snapshot as indented JSON and atomically replaces the date's file.
func (s *FileStore) Write(ctx context.Context, dateKey string, snapshot *domain.Snapshot) error {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return err
	}

	if snapshot == nil {
		snapshot = domain.NewSnapshot(0)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	data = append(data, '\n')

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	return writeAtomic(s.Path(dateKey), data)
}

// writeAtomic writes data to a temp file in the target directory and renames it into place.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}

// Read loads the snapshot stored for a date.
func (s *FileStore) Read(ctx context.Context, dateKey string) (*domain.Snapshot, error) {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(dateKey))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError("snapshot", dateKey)
	}

	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", dateKey, err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", dateKey, err)
	}

	return &snapshot, nil
}

// List returns the dates with a stored snapshot, newest first.
// Files that are not named after a date are ignored.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}

	keys := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		key, ok := strings.CutSuffix(e.Name(), snapshotExt)
		if !ok || domain.ValidateDateKey(key) != nil {
			continue
		}

		keys = append(keys, key)
	}

	slices.Sort(keys)
	slices.Reverse(keys)

	return keys, nil
}

// Name implements ports.HealthChecker.
func (s *FileStore) Name() string {
	return "snapshot-files"
}

// Check reports an error when the output path exists but is not a directory.
// A missing directory is healthy because the first write creates it.
func (s *FileStore) Check(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return domain.NewUnavailableError(s.Name(), err.Error())
	}

	if !info.IsDir() {
		return domain.NewUnavailableError(s.Name(), s.dir+" is not a directory")
	}

	return nil
}
