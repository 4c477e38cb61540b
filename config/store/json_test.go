package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	_, err := NewJSON("")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "slick", "config.json")

	s, err := NewJSON(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "the default configuration is written")

	cfg := s.Get()
	cfg.Name = "gateway"
	cfg.Operations.Workers = 8

	require.NoError(t, s.Set(cfg))

	s, err = NewJSON(path)
	require.NoError(t, err)

	cfg = s.Get()
	require.Equal(t, "gateway", cfg.Name)
	require.Equal(t, 8, cfg.Operations.Workers)
	require.False(t, cfg.LoadedAt.IsZero())
}

func TestSetInvalid(t *testing.T) {
	s, err := NewJSON(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := s.Get()
	cfg.Operations.Workers = 0

	require.Error(t, s.Set(cfg))
	require.Equal(t, 2, s.Get().Operations.Workers)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"name":42}`), 0644))
	_, err := NewJSON(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"version":3}`), 0644))
	_, err = NewJSON(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"name":"foobar"}`), 0644))
	s, err := NewJSON(path)
	require.NoError(t, err)
	require.Equal(t, "foobar", s.Get().Name)
	require.Equal(t, ":8042", s.Get().Address)
}

func TestDummy(t *testing.T) {
	s := NewDummy()

	cfg := s.Get()
	cfg.Name = "gateway"
	require.NoError(t, s.Set(cfg))
	require.Equal(t, "gateway", s.Get().Name)

	cfg.Storage.Type = "s3"
	require.Error(t, s.Set(cfg))
}

func TestLocation(t *testing.T) {
	require.Equal(t, "/etc/slick.json", Location("/etc/slick.json"))

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	path := filepath.Join(home, ".config", "slick", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	require.Equal(t, path, Location(""))
}
