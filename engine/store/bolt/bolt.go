// Package bolt implements an operation store on top of a bbolt database file.
package bolt

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/engine/store"
	"github.com/slickfs/gateway/log"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("operations")

type Config struct {
	// Path is the full path to the database file
	Path   string
	Logger log.Logger
}

type boltStore struct {
	db     *bbolt.DB
	logger log.Logger
}

func New(config Config) (store.Store, error) {
	s := &boltStore{
		logger: config.Logger,
	}

	if len(config.Path) == 0 {
		return nil, fmt.Errorf("no database file provided")
	}

	if s.logger == nil {
		s.logger = log.New("")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(config.Path, 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("can't open database %s: %w", config.Path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db

	s.logger.Debug().WithField("path", config.Path).Log("Opened operation database")

	return s, nil
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))

	return k
}

func (s *boltStore) NextID() (int64, error) {
	var id int64

	err := s.db.Update(func(tx *bbolt.Tx) error {
		seq, err := tx.Bucket(bucketName).NextSequence()
		if err != nil {
			return err
		}

		id = int64(seq)

		return nil
	})

	return id, err
}

func (s *boltStore) Put(op engine.Operation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)

		if uint64(op.ID) > b.Sequence() {
			if err := b.SetSequence(uint64(op.ID)); err != nil {
				return err
			}
		}

		return b.Put(key(op.ID), data)
	})
}

func (s *boltStore) Get(id int64) (engine.Operation, bool, error) {
	op := engine.Operation{}
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get(key(id))
		if data == nil {
			return nil
		}

		found = true

		return json.Unmarshal(data, &op)
	})

	return op, found, err
}

func (s *boltStore) Each(fn func(op engine.Operation) error) error {
	ops := []engine.Operation{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			op := engine.Operation{}
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("operation %d: %w", binary.BigEndian.Uint64(k), err)
			}

			ops = append(ops, op)

			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, op := range ops {
		if err := fn(op); err != nil {
			return err
		}
	}

	return nil
}

func (s *boltStore) Close() error {
	return s.db.Close()
}
