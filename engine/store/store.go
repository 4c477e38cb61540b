// Package store keeps the records of operations.
package store

import (
	"sort"
	"sync"

	"github.com/slickfs/gateway/engine"
)

type Store interface {
	// NextID returns a new ID that is greater than every ID returned before.
	NextID() (int64, error)

	// Put stores the operation under its ID, replacing an existing record.
	Put(op engine.Operation) error

	// Get returns the operation with the given ID and whether it exists.
	Get(id int64) (engine.Operation, bool, error)

	// Each calls fn for every operation in ascending order of their IDs. It stops
	// at the first error and returns it.
	Each(fn func(op engine.Operation) error) error

	Close() error
}

type memStore struct {
	lastID     int64
	operations map[int64]engine.Operation
	lock       sync.RWMutex
}

// NewMemory returns a store that doesn't persist the operations.
func NewMemory() Store {
	return &memStore{
		operations: map[int64]engine.Operation{},
	}
}

func (s *memStore) NextID() (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.lastID++

	return s.lastID, nil
}

func (s *memStore) Put(op engine.Operation) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	op.Sources = append([]string(nil), op.Sources...)
	s.operations[op.ID] = op

	if op.ID > s.lastID {
		s.lastID = op.ID
	}

	return nil
}

func (s *memStore) Get(id int64) (engine.Operation, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	op, ok := s.operations[id]

	return op, ok, nil
}

func (s *memStore) Each(fn func(op engine.Operation) error) error {
	s.lock.RLock()
	ops := make([]engine.Operation, 0, len(s.operations))
	for _, op := range s.operations {
		ops = append(ops, op)
	}
	s.lock.RUnlock()

	sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })

	for _, op := range ops {
		if err := fn(op); err != nil {
			return err
		}
	}

	return nil
}

func (s *memStore) Close() error {
	return nil
}
