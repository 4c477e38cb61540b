package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/slickfs/gateway/config"
	"github.com/slickfs/gateway/encoding/json"
)

type jsonStore struct {
	path string
	data *config.Config
}

// NewJSON reads the JSON config file from the given path. If the file doesn't
// exist, the default configuration is written to it.
func NewJSON(path string) (Store, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("no path provided")
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to determine absolute path of '%s': %w", path, err)
	}

	c := &jsonStore{
		path: path,
		data: config.New(),
	}

	exists, err := c.load(c.data)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON from '%s': %w", path, err)
	}

	if !exists {
		if err := c.store(c.data); err != nil {
			return nil, fmt.Errorf("failed to write JSON to '%s': %w", path, err)
		}
	}

	return c, nil
}

func (c *jsonStore) Get() *config.Config {
	return c.data.Clone()
}

func (c *jsonStore) Set(d *config.Config) error {
	d.Validate(true)

	if d.HasErrors() {
		return fmt.Errorf("configuration data has errors after validation")
	}

	data := d.Clone()

	if err := c.store(data); err != nil {
		return fmt.Errorf("failed to write JSON to '%s': %w", c.path, err)
	}

	c.data = data

	return nil
}

func (c *jsonStore) load(cfg *config.Config) (bool, error) {
	jsondata, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	if len(jsondata) == 0 {
		return true, nil
	}

	version := DataVersion{}

	if err := json.Unmarshal(jsondata, &version); err != nil {
		return true, json.FormatError(jsondata, err)
	}

	if version.Version != 1 {
		return true, fmt.Errorf("unknown configuration layout version %d", version.Version)
	}

	if err := json.Unmarshal(jsondata, &cfg.Data); err != nil {
		return true, json.FormatError(jsondata, err)
	}

	cfg.LoadedAt = time.Now()

	return true, nil
}

func (c *jsonStore) store(data *config.Config) error {
	jsondata, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jsondata); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path)
}
