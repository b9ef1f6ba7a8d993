package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"crumbs/internal/domain"
)

// Blob is one saved session: the economy blob and the prestige blob.
type Blob struct {
	Economy  []byte
	Prestige []byte
}

// Store persists blobs. Load returns domain.ErrNotFound when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (Blob, error)
	Save(ctx context.Context, b Blob) error
}

const (
	economyFile  = "save.txt"
	prestigeFile = "prestige.txt"
)

// FileStore keeps the blobs as two text files in Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) Load(ctx context.Context) (Blob, error) {
	eco, err := os.ReadFile(filepath.Join(s.Dir, economyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Blob{}, fmt.Errorf("save file: %w", domain.ErrNotFound)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("read save file: %w", err)
	}

	pre, err := os.ReadFile(filepath.Join(s.Dir, prestigeFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Blob{}, fmt.Errorf("read prestige file: %w", err)
	}
	return Blob{Economy: eco, Prestige: pre}, nil
}

func (s *FileStore) Save(ctx context.Context, b Blob) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.Dir, economyFile), b.Economy); err != nil {
		return err
	}
	if b.Prestige != nil {
		if err := writeAtomic(filepath.Join(s.Dir, prestigeFile), b.Prestige); err != nil {
			return err
		}
	}
	return nil
}

// writeAtomic replaces path through a temp file and a rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}
