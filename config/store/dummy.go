package store

import (
	"fmt"

	"github.com/slickfs/gateway/config"
)

type dummyStore struct {
	current *config.Config
}

// NewDummy returns a store that keeps the configuration only in memory. It
// starts with the default configuration.
func NewDummy() Store {
	return &dummyStore{
		current: config.New(),
	}
}

func (c *dummyStore) Get() *config.Config {
	return c.current.Clone()
}

func (c *dummyStore) Set(d *config.Config) error {
	d.Validate(true)

	if d.HasErrors() {
		return fmt.Errorf("configuration data has errors after validation")
	}

	c.current = d.Clone()

	return nil
}
