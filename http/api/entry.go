package api

import (
	"encoding/hex"
	"path"
	"time"

	"github.com/slickfs/gateway/engine"
)

// Entry is a file or a folder in a volume
type Entry struct {
	Digest   string    `json:"digest,omitempty"`
	CTime    time.Time `json:"ctime" jsonschema:"required"`
	MTime    time.Time `json:"mtime" jsonschema:"required"`
	Name     string    `json:"name" jsonschema:"required"`
	Folder   bool      `json:"folder" jsonschema:"required"`
	Type     string    `json:"type,omitempty"`
	Size     int64     `json:"size" jsonschema:"required" format:"int64"`
	URL      string    `json:"url" jsonschema:"required"`
	Fullpath string    `json:"fullpath" jsonschema:"required"`
}

// Unmarshal converts the entry at fullpath in a volume to its API
// representation. The query is appended to the URL of the entry.
func (e *Entry) Unmarshal(volume, fullpath, query string, entry engine.Entry) {
	e.Digest = ""
	if len(entry.Digest) != 0 {
		e.Digest = hex.EncodeToString(entry.Digest)
	}

	e.CTime = entry.CreatedAt
	e.MTime = entry.ModifiedAt
	e.Name = path.Base(fullpath)
	e.Folder = entry.IsFolder()
	e.Type = entry.Type
	e.Size = entry.Size
	e.URL = path.Join("/api/volumes", volume, "entries", fullpath)
	e.Fullpath = fullpath

	if len(query) != 0 {
		e.URL += "?" + query
	}
}

type EntryList struct {
	Entries []Entry `json:"entries" jsonschema:"required"`
}
