// Package blob provides stores for content addressed data. A blob is written
// once under its digest and never modified.
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	// Put stores size bytes from r under key. Storing an existing key is a no-op
	// apart from consuming r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Has returns whether a blob with the key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Open returns a reader for length bytes of the blob starting at offset. A
	// negative length reads until the end of the blob.
	Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)

	// Delete removes the blob. Deleting an unknown key is not an error.
	Delete(ctx context.Context, key string) error

	// Type returns the type of the store, e.g. mem, disk, s3
	Type() string
}
