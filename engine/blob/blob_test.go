package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	has, err := s.Has(ctx, "abcdef")
	require.NoError(t, err)
	require.False(t, has)

	_, err = s.Open(ctx, "abcdef", 0, -1)
	require.ErrorIs(t, err, ErrNotFound)

	err = s.Put(ctx, "abcdef", strings.NewReader("0123456789"), 10)
	require.NoError(t, err)

	has, err = s.Has(ctx, "abcdef")
	require.NoError(t, err)
	require.True(t, has)

	r, err := s.Open(ctx, "abcdef", 0, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "0123456789", string(data))

	r, err = s.Open(ctx, "abcdef", 3, 4)
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	r.Close()
	require.Equal(t, "3456", string(data))

	r, err = s.Open(ctx, "abcdef", 8, 10)
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	r.Close()
	require.Equal(t, "89", string(data))

	err = s.Put(ctx, "abcdef", bytes.NewReader([]byte("other")), 5)
	require.NoError(t, err)

	r, err = s.Open(ctx, "abcdef", 0, -1)
	require.NoError(t, err)
	data, _ = io.ReadAll(r)
	r.Close()
	require.Equal(t, "0123456789", string(data), "existing blobs are immutable")

	err = s.Put(ctx, "short", strings.NewReader("abc"), 5)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	has, _ = s.Has(ctx, "short")
	require.False(t, has)

	require.NoError(t, s.Delete(ctx, "abcdef"))
	require.NoError(t, s.Delete(ctx, "abcdef"))

	has, err = s.Has(ctx, "abcdef")
	require.NoError(t, err)
	require.False(t, has)
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	require.Equal(t, "mem", s.Type())

	testStore(t, s)
}

func TestDiskStore(t *testing.T) {
	_, err := NewDiskStore(DiskConfig{})
	require.Error(t, err)

	s, err := NewDiskStore(DiskConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "disk", s.Type())

	testStore(t, s)
}
