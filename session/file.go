package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage persists each key as one file under Dir. Writes go to a
// temporary file in the same directory which is then renamed over the
// target, so readers never observe a partial record.
type FileStorage struct {
	dir    string
	sealer *Sealer
}

// NewFileStorage creates the directory if needed. A non-nil sealer encrypts
// records at rest.
func NewFileStorage(dir string, sealer *Sealer) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file storage directory required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &FileStorage{dir: dir, sealer: sealer}, nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key)+".json")
}

// Get reads and, when sealed, opens the record for key.
func (f *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if f.sealer != nil {
		return f.sealer.Open(data)
	}
	return data, nil
}

// Set writes value through a temp file and rename.
func (f *FileStorage) Set(_ context.Context, key string, value []byte) error {
	if f.sealer != nil {
		sealed, err := f.sealer.Seal(value)
		if err != nil {
			return err
		}
		value = sealed
	}

	tmp, err := os.CreateTemp(f.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes the record file. A missing file is not an error.
func (f *FileStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
