package bolt

import (
	"path/filepath"
	"testing"

	"github.com/slickfs/gateway/engine"

	"github.com/stretchr/testify/require"
)

func TestNewWithoutPath(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "operations.db")

	s, err := New(Config{Path: path})
	require.NoError(t, err)

	id, err := s.NextID()
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	err = s.Put(engine.Operation{
		ID:          id,
		Type:        "add",
		State:       engine.StateRunning,
		Volume:      "vol",
		Destination: "/",
		Sources:     []string{"/tmp/a"},
		Total:       10,
		Current:     4,
	})
	require.NoError(t, err)

	err = s.Put(engine.Operation{ID: 5, State: engine.StateCompleted})
	require.NoError(t, err)

	require.NoError(t, s.Close())

	s, err = New(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()

	op, ok, err := s.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, engine.StateRunning, op.State)
	require.Equal(t, []string{"/tmp/a"}, op.Sources)
	require.Equal(t, int64(4), op.Current)

	_, ok, err = s.Get(2)
	require.NoError(t, err)
	require.False(t, ok)

	id, err = s.NextID()
	require.NoError(t, err)
	require.Equal(t, int64(6), id)

	ids := []int64{}
	err = s.Each(func(op engine.Operation) error {
		ids = append(ids, op.ID)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 5}, ids)
}
