package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type memStore struct {
	blobs map[string][]byte
	lock  sync.RWMutex
}

// NewMemStore returns a store that keeps all blobs in memory.
func NewMemStore() Store {
	return &memStore{
		blobs: map[string][]byte{},
	}
}

func (s *memStore) Type() string {
	return "mem"
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	buf := bytes.Buffer{}
	if size > 0 {
		buf.Grow(int(size))
	}

	n, err := io.Copy(&buf, r)
	if err != nil {
		return err
	}

	if size >= 0 && n != size {
		return fmt.Errorf("expected %d bytes, got %d: %w", size, n, io.ErrUnexpectedEOF)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.blobs[key]; !ok {
		s.blobs[key] = buf.Bytes()
	}

	return nil
}

func (s *memStore) Has(ctx context.Context, key string) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.blobs[key]

	return ok, nil
}

func (s *memStore) Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	s.lock.RLock()
	data, ok := s.blobs[key]
	s.lock.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if offset < 0 || offset > int64(len(data)) {
		return nil, fmt.Errorf("offset %d out of range", offset)
	}

	end := int64(len(data))
	if length >= 0 && offset+length < end {
		end = offset + length
	}

	return io.NopCloser(bytes.NewReader(data[offset:end])), nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.blobs, key)

	return nil
}
