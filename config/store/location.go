package store

import (
	"os"
	"path/filepath"
)

// Location returns the path to the config file. If no path is provided,
// these locations will be probed:
// - os.UserConfigDir() + /slick/config.json
// - os.UserHomeDir() + /.config/slick/config.json
// - ./config/config.json
// An empty string is returned if the config exists in none of them.
func Location(path string) string {
	if len(path) != 0 {
		return path
	}

	locations := []string{}

	if dir, err := os.UserConfigDir(); err == nil {
		locations = append(locations, filepath.Join(dir, "slick", "config.json"))
	}

	if dir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(dir, ".config", "slick", "config.json"))
	}

	locations = append(locations, filepath.Join(".", "config", "config.json"))

	for _, location := range locations {
		info, err := os.Stat(location)
		if err != nil {
			continue
		}

		if info.IsDir() {
			continue
		}

		return location
	}

	return ""
}
