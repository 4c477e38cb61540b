// Package engine describes the storage engine the gateway talks to. The engine
// owns volumes, their entries and the records of asynchronous operations.
package engine

import (
	"context"
	"io"
	"time"

	"github.com/slickfs/gateway/event"
)

// ObjectType discriminates the entries of a volume.
type ObjectType string

const (
	ObjectFolder ObjectType = "fo"
	ObjectFile   ObjectType = "fl"
)

// Entry is a file or a folder at a path within a volume.
type Entry struct {
	// Digest is the content digest of a file. It is nil for folders and for
	// files without committed content.
	Digest []byte

	// Reference is the serialized pointer to the latest content of the entry.
	Reference []byte

	ObjectType ObjectType
	Type       string // MIME type, files only
	Size       int64  // Size in bytes, aggregated for folders
	Count      int64  // Number of children, folders only
	CreatedAt  time.Time
	ModifiedAt time.Time
}

func (e Entry) IsFolder() bool {
	return e.ObjectType == ObjectFolder
}

// Volume is a named storage root.
type Volume struct {
	Name string
	Root Entry
}

// ConflictMode tells an add operation what to do if an entry already exists
// at the destination.
type ConflictMode string

const (
	ConflictSkip    ConflictMode = "skip"
	ConflictReplace ConflictMode = "replace"
	ConflictRename  ConflictMode = "rename"
)

func (m ConflictMode) IsValid() bool {
	switch m {
	case ConflictSkip, ConflictReplace, ConflictRename:
		return true
	}

	return false
}

// OperationState is the state of an operation as reported by the engine.
type OperationState string

const (
	StateQueued    OperationState = "queued"
	StateRunning   OperationState = "running"
	StateCompleted OperationState = "completed"
	StateError     OperationState = "error"
)

func (s OperationState) IsFinal() bool {
	return s == StateCompleted || s == StateError
}

// Operation is the record of an asynchronous add.
type Operation struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	State       OperationState `json:"state"`
	Volume      string         `json:"volume"`
	Destination string         `json:"destination"`
	Sources     []string       `json:"sources"`
	Mode        ConflictMode   `json:"mode"`
	Message     string         `json:"message,omitempty"`
	Total       int64          `json:"total"`
	Current     int64          `json:"current"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type CopyOptions struct {
	// Force overwrites an existing entry at the destination.
	Force bool
}

type AddOptions struct {
	Conflict ConflictMode
}

// Listener receives the events of one or all operations from the time it has
// been created on. Events are returned in the order they have been emitted.
type Listener interface {
	// Notify receives a value whenever new events are available. It is closed
	// if the engine shuts down.
	Notify() <-chan struct{}

	// Events returns and removes the pending events.
	Events() []event.Event

	// Close releases the listener.
	Close()
}

// Operations is the registry of asynchronous operations.
type Operations interface {
	// Each calls fn for every known operation in ascending order of their IDs.
	// Iteration stops at the first error, which is returned.
	Each(ctx context.Context, fn func(op Operation) error) error

	// Get returns the operation with the given ID. An unknown ID returns a
	// NotFound error.
	Get(ctx context.Context, id int64) (Operation, error)

	// Cancel requests the cancellation of a queued or running operation. An
	// unknown or already finished operation returns an InvalidData error.
	Cancel(ctx context.Context, id int64) error

	// Listen returns a listener for the events of the operation with the given ID.
	Listen(id int64) Listener

	// ListenAll returns a listener for the events of all operations.
	ListenAll() Listener
}

// Engine is the storage engine. All paths are absolute within a volume.
type Engine interface {
	CreateVolume(ctx context.Context, name string) error
	DestroyVolume(ctx context.Context, name string) error
	Volume(ctx context.Context, name string) (Volume, error)

	// EachVolume calls fn for every volume in ascending order of their names.
	EachVolume(ctx context.Context, fn func(v Volume) error) error

	// List calls fn for every child of the folder at path.
	List(ctx context.Context, volume, path string, fn func(fullpath string, entry Entry) error) error

	// Stat returns the entry at path.
	Stat(ctx context.Context, volume, path string) (Entry, error)

	// EachBuffer calls fn with consecutive chunks of the file at path. The next
	// chunk is read after fn returned.
	EachBuffer(ctx context.Context, volume, path string, fn func(p []byte) error) error

	// RangeReader returns a reader for the bytes [start, end) of the file at path.
	RangeReader(ctx context.Context, volume, path string, start, end int64) (io.ReadCloser, error)

	Remove(ctx context.Context, volume, path string) error
	Mkdir(ctx context.Context, volume, path string) error
	Copy(ctx context.Context, volume, path, dstVolume, dstPath string, options CopyOptions) error
	Move(ctx context.Context, volume, path, dstVolume, dstPath string, options CopyOptions) error

	// Add starts an asynchronous operation that adds the sources to the volume
	// at path. It returns the ID of the operation.
	Add(ctx context.Context, volume, path string, sources []string, options AddOptions) (int64, error)

	Operations() Operations

	// Close stops all running operations and releases the resources of the engine.
	Close() error
}
