package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type DiskConfig struct {
	// Dir is the directory the blobs are stored in. It will be created if it
	// doesn't exist.
	Dir string
}

type diskStore struct {
	dir string
}

// NewDiskStore returns a store that keeps every blob in its own file. Blobs are
// spread over subdirectories named after the first two characters of the key.
func NewDiskStore(config DiskConfig) (Store, error) {
	if len(config.Dir) == 0 {
		return nil, fmt.Errorf("no directory provided")
	}

	dir, err := filepath.Abs(config.Dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("can't create blob directory %s: %w", dir, err)
	}

	return &diskStore{
		dir: dir,
	}, nil
}

func (s *diskStore) Type() string {
	return "disk"
}

func (s *diskStore) path(key string) string {
	if len(key) < 2 {
		return filepath.Join(s.dir, "_", key)
	}

	return filepath.Join(s.dir, key[:2], key)
}

func (s *diskStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	path := s.path(key)

	if _, err := os.Stat(path); err == nil {
		_, err = io.Copy(io.Discard, r)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if size >= 0 && n != size {
		return fmt.Errorf("expected %d bytes, got %d: %w", size, n, io.ErrUnexpectedEOF)
	}

	return os.Rename(tmp.Name(), path)
}

func (s *diskStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

type sectionReadCloser struct {
	io.Reader
	file *os.File
}

func (r *sectionReadCloser) Close() error {
	return r.file.Close()
}

func (s *diskStore) Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	file, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if offset < 0 || offset > stat.Size() {
		file.Close()
		return nil, fmt.Errorf("offset %d out of range", offset)
	}

	if length < 0 || offset+length > stat.Size() {
		length = stat.Size() - offset
	}

	return &sectionReadCloser{
		Reader: io.NewSectionReader(file, offset, length),
		file:   file,
	}, nil
}

func (s *diskStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
