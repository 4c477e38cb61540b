package store

import (
	"fmt"
	"testing"

	"github.com/slickfs/gateway/engine"

	"github.com/stretchr/testify/require"
)

func TestMemoryNextID(t *testing.T) {
	s := NewMemory()

	id, err := s.NextID()
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	err = s.Put(engine.Operation{ID: 10})
	require.NoError(t, err)

	id, err = s.NextID()
	require.NoError(t, err)
	require.Equal(t, int64(11), id)
}

func TestMemoryPutGet(t *testing.T) {
	s := NewMemory()

	_, ok, err := s.Get(1)
	require.NoError(t, err)
	require.False(t, ok)

	sources := []string{"/a", "/b"}

	err = s.Put(engine.Operation{ID: 1, State: engine.StateQueued, Sources: sources})
	require.NoError(t, err)

	sources[0] = "/c"

	op, ok, err := s.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, engine.StateQueued, op.State)
	require.Equal(t, []string{"/a", "/b"}, op.Sources)

	err = s.Put(engine.Operation{ID: 1, State: engine.StateCompleted})
	require.NoError(t, err)

	op, _, _ = s.Get(1)
	require.Equal(t, engine.StateCompleted, op.State)
}

func TestMemoryEach(t *testing.T) {
	s := NewMemory()

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, s.Put(engine.Operation{ID: id}))
	}

	ids := []int64{}
	err := s.Each(func(op engine.Operation) error {
		ids = append(ids, op.ID)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, ids)

	err = s.Each(func(op engine.Operation) error {
		return fmt.Errorf("stop")
	})
	require.Error(t, err)
}
