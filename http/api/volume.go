package api

import (
	"net/url"

	"github.com/slickfs/gateway/engine"
)

// Volume is a named storage root
type Volume struct {
	Name string `json:"name" jsonschema:"required"`
	URL  string `json:"url" jsonschema:"required"`
	Size int64  `json:"size" jsonschema:"required" format:"int64"`
}

// Unmarshal converts an engine volume to its API representation
func (v *Volume) Unmarshal(vol engine.Volume) {
	v.Name = vol.Name
	v.URL = "/api/volumes/" + url.PathEscape(vol.Name) + "/entries"
	v.Size = vol.Root.Size
}

type VolumeList struct {
	Volumes []Volume `json:"volumes" jsonschema:"required"`
}

type VolumeItem struct {
	Volume Volume `json:"volume" jsonschema:"required"`
}

// VolumeCreate is the request to create a new volume
type VolumeCreate struct {
	Name string `json:"name" validate:"required"`
}
