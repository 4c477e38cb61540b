// Package slick is a storage engine that keeps the namespace of its volumes in
// memory and the content of the files in a content addressed blob store.
package slick

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/engine/blob"
	"github.com/slickfs/gateway/engine/store"
	"github.com/slickfs/gateway/log"
)

type Config struct {
	// Blobs stores the content of the files. Defaults to a memory store.
	Blobs blob.Store

	// Operations stores the records of the add operations. Defaults to a
	// memory store.
	Operations store.Store

	// ChunkSize is the size of the buffers of EachBuffer in bytes.
	ChunkSize int64

	// Workers is the number of add operations that run concurrently.
	Workers int

	Logger log.Logger
}

type volume struct {
	name string
	root *node
}

type slick struct {
	volumes map[string]*volume
	lock    sync.RWMutex

	blobs    blob.Store
	refs     map[string]int
	refsLock sync.Mutex

	chunkSize int64

	ops *operations

	logger log.Logger
}

func New(config Config) (engine.Engine, error) {
	e := &slick{
		volumes:   map[string]*volume{},
		blobs:     config.Blobs,
		refs:      map[string]int{},
		chunkSize: config.ChunkSize,
		logger:    config.Logger,
	}

	if e.logger == nil {
		e.logger = log.New("")
	}

	if e.blobs == nil {
		e.blobs = blob.NewMemStore()
	}

	if e.chunkSize <= 0 {
		e.chunkSize = 64 * 1024
	}

	records := config.Operations
	if records == nil {
		records = store.NewMemory()
	}

	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	ops, err := newOperations(e, records, workers, e.logger.WithComponent("Operations"))
	if err != nil {
		return nil, err
	}

	e.ops = ops

	e.logger.Info().WithFields(log.Fields{
		"blobs":   e.blobs.Type(),
		"workers": workers,
	}).Log("Engine ready")

	return e, nil
}

func (e *slick) Close() error {
	if err := e.ops.close(); err != nil {
		return fmt.Errorf("can't close operation store: %w", err)
	}

	e.logger.Info().Log("Engine closed")

	return nil
}

func (e *slick) Operations() engine.Operations {
	return e.ops
}

func (e *slick) volume(name string) (*volume, error) {
	v, ok := e.volumes[name]
	if !ok {
		return nil, engine.NotFound("volume %s not found", name)
	}

	return v, nil
}

func (e *slick) CreateVolume(ctx context.Context, name string) error {
	if len(name) == 0 {
		return engine.InvalidData("name not defined")
	}

	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return engine.InvalidData("invalid volume name %s", name)
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if _, ok := e.volumes[name]; ok {
		return engine.InvalidData("volume %s already exists", name)
	}

	e.volumes[name] = &volume{
		name: name,
		root: newFolder(time.Now()),
	}

	e.logger.Info().WithField("volume", name).Log("Volume created")

	return nil
}

func (e *slick) DestroyVolume(ctx context.Context, name string) error {
	e.lock.Lock()

	v, err := e.volume(name)
	if err != nil {
		e.lock.Unlock()
		return err
	}

	delete(e.volumes, name)

	e.lock.Unlock()

	e.release(ctx, v.root)

	e.logger.Info().WithField("volume", name).Log("Volume destroyed")

	return nil
}

func (e *slick) Volume(ctx context.Context, name string) (engine.Volume, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	v, err := e.volume(name)
	if err != nil {
		return engine.Volume{}, err
	}

	return engine.Volume{
		Name: v.name,
		Root: v.root.entry(),
	}, nil
}

func (e *slick) EachVolume(ctx context.Context, fn func(v engine.Volume) error) error {
	e.lock.RLock()

	names := make([]string, 0, len(e.volumes))
	for name := range e.volumes {
		names = append(names, name)
	}

	e.lock.RUnlock()

	sort.Strings(names)

	for _, name := range names {
		v, err := e.Volume(ctx, name)
		if err != nil {
			if engine.IsNotFound(err) {
				continue
			}

			return err
		}

		if err := fn(v); err != nil {
			return err
		}
	}

	return nil
}

func (e *slick) List(ctx context.Context, name, p string, fn func(fullpath string, entry engine.Entry) error) error {
	p = cleanPath(p)

	type item struct {
		fullpath string
		entry    engine.Entry
	}

	e.lock.RLock()

	v, err := e.volume(name)
	if err != nil {
		e.lock.RUnlock()
		return err
	}

	folder, err := lookup(v.root, p)
	if err != nil {
		e.lock.RUnlock()
		return err
	}

	if !folder.folder {
		e.lock.RUnlock()
		return engine.InvalidData("%s is not a folder", p)
	}

	items := make([]item, 0, len(folder.children))
	for _, n := range folder.names() {
		items = append(items, item{
			fullpath: path.Join(p, n),
			entry:    folder.children[n].entry(),
		})
	}

	e.lock.RUnlock()

	for _, i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(i.fullpath, i.entry); err != nil {
			return err
		}
	}

	return nil
}

func (e *slick) Stat(ctx context.Context, name, p string) (engine.Entry, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	v, err := e.volume(name)
	if err != nil {
		return engine.Entry{}, err
	}

	n, err := lookup(v.root, cleanPath(p))
	if err != nil {
		return engine.Entry{}, err
	}

	return n.entry(), nil
}

// file returns the digest and the size of the file at p.
func (e *slick) file(name, p string) (string, int64, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	v, err := e.volume(name)
	if err != nil {
		return "", 0, err
	}

	p = cleanPath(p)

	n, err := lookup(v.root, p)
	if err != nil {
		return "", 0, err
	}

	if n.folder {
		return "", 0, engine.InvalidData("%s is a folder", p)
	}

	return n.key(), n.size, nil
}

func (e *slick) open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	r, err := e.blobs.Open(ctx, key, offset, length)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, engine.Internal(err, "content %s is missing", key)
		}

		return nil, engine.Internal(err, "can't read content %s", key)
	}

	return r, nil
}

func (e *slick) EachBuffer(ctx context.Context, name, p string, fn func(p []byte) error) error {
	key, _, err := e.file(name, p)
	if err != nil {
		return err
	}

	r, err := e.open(ctx, key, 0, -1)
	if err != nil {
		return err
	}

	defer r.Close()

	buf := make([]byte, e.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if err := fn(buf[:n]); err != nil {
				return err
			}
		}

		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}

			return engine.Internal(err, "can't read content %s", key)
		}
	}
}

func (e *slick) RangeReader(ctx context.Context, name, p string, start, end int64) (io.ReadCloser, error) {
	key, size, err := e.file(name, p)
	if err != nil {
		return nil, err
	}

	if start < 0 || end < start || start > size {
		return nil, engine.InvalidData("invalid range %d-%d", start, end)
	}

	if end > size {
		end = size
	}

	return e.open(ctx, key, start, end-start)
}

func (e *slick) Mkdir(ctx context.Context, name, p string) error {
	p = cleanPath(p)

	e.lock.Lock()
	defer e.lock.Unlock()

	v, err := e.volume(name)
	if err != nil {
		return err
	}

	if _, err := lookup(v.root, p); err == nil {
		return engine.InvalidData("%s already exists", p)
	}

	if _, err := mkdirAll(v.root, p, time.Now()); err != nil {
		return err
	}

	changed(v.root, p)

	return nil
}

func (e *slick) Remove(ctx context.Context, name, p string) error {
	p = cleanPath(p)

	if p == "/" {
		return engine.InvalidData("can't remove the root folder")
	}

	e.lock.Lock()

	v, err := e.volume(name)
	if err != nil {
		e.lock.Unlock()
		return err
	}

	parent, err := lookup(v.root, path.Dir(p))
	if err != nil {
		e.lock.Unlock()
		return err
	}

	n, ok := parent.children[path.Base(p)]
	if !parent.folder || !ok {
		e.lock.Unlock()
		return engine.NotFound("%s not found", p)
	}

	delete(parent.children, path.Base(p))
	parent.mtime = time.Now()

	changed(v.root, path.Dir(p))

	e.lock.Unlock()

	e.release(ctx, n)

	return nil
}

func (e *slick) Copy(ctx context.Context, name, p, dstName, dstPath string, options engine.CopyOptions) error {
	return e.transfer(ctx, name, p, dstName, dstPath, options, false)
}

func (e *slick) Move(ctx context.Context, name, p, dstName, dstPath string, options engine.CopyOptions) error {
	return e.transfer(ctx, name, p, dstName, dstPath, options, true)
}

// transfer copies or moves the entry at p to dstPath in the volume dstName.
func (e *slick) transfer(ctx context.Context, name, p, dstName, dstPath string, options engine.CopyOptions, move bool) error {
	p = cleanPath(p)
	dstPath = cleanPath(dstPath)

	if dstPath == "/" {
		return engine.InvalidData("can't replace the root folder")
	}

	if move && p == "/" {
		return engine.InvalidData("can't move the root folder")
	}

	if name == dstName && (p == dstPath || strings.HasPrefix(dstPath, strings.TrimSuffix(p, "/")+"/")) {
		return engine.InvalidData("can't copy %s into itself", p)
	}

	e.lock.Lock()

	replaced, err := e.transferLocked(name, p, dstName, dstPath, options, move)

	e.lock.Unlock()

	if err != nil {
		return err
	}

	if replaced != nil {
		e.release(ctx, replaced)
	}

	return nil
}

func (e *slick) transferLocked(name, p, dstName, dstPath string, options engine.CopyOptions, move bool) (*node, error) {
	src, err := e.volume(name)
	if err != nil {
		return nil, err
	}

	dst, err := e.volume(dstName)
	if err != nil {
		return nil, err
	}

	n, err := lookup(src.root, p)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	parent, err := mkdirAll(dst.root, path.Dir(dstPath), now)
	if err != nil {
		return nil, err
	}

	base := path.Base(dstPath)

	replaced, exists := parent.children[base]
	if exists && !options.Force {
		return nil, engine.InvalidData("%s already exists", dstPath)
	}

	if move {
		srcParent, _ := lookup(src.root, path.Dir(p))
		delete(srcParent.children, path.Base(p))
		srcParent.mtime = now

		changed(src.root, path.Dir(p))
	} else {
		n = n.clone()
		e.retain(n)
	}

	parent.children[base] = n
	parent.mtime = now

	changed(dst.root, path.Dir(dstPath))

	return replaced, nil
}

// retain adds a reference to the content of every file in the subtree of n.
func (e *slick) retain(n *node) {
	e.refsLock.Lock()
	defer e.refsLock.Unlock()

	n.files(func(f *node) {
		e.refs[f.key()]++
	})
}

// release removes a reference to the content of every file in the subtree of
// n and deletes the content that isn't referenced anymore.
func (e *slick) release(ctx context.Context, n *node) {
	e.refsLock.Lock()
	defer e.refsLock.Unlock()

	n.files(func(f *node) {
		e.unref(ctx, f.key())
	})
}

func (e *slick) unref(ctx context.Context, key string) {
	e.refs[key]--
	if e.refs[key] > 0 {
		return
	}

	delete(e.refs, key)

	if err := e.blobs.Delete(ctx, key); err != nil {
		e.logger.Warn().WithError(err).WithField("key", key).Log("Failed to delete content")
	}
}

// pin adds a reference to the content with the given key before it is stored.
func (e *slick) pin(key string) {
	e.refsLock.Lock()
	defer e.refsLock.Unlock()

	e.refs[key]++
}

func (e *slick) unpin(ctx context.Context, key string) {
	e.refsLock.Lock()
	defer e.refsLock.Unlock()

	e.unref(ctx, key)
}
