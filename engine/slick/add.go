package slick

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/glob"
)

// source is a local file or directory that will be added to a volume.
type source struct {
	name     string
	path     string
	dir      bool
	size     int64
	children []*source
}

func scan(p string) (*source, int64, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, 0, err
	}

	s := &source{
		name: filepath.Base(p),
		path: p,
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, 0, nil
		}

		s.size = info.Size()

		return s, s.size, nil
	}

	s.dir = true

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, 0, err
	}

	total := int64(0)

	for _, entry := range entries {
		child, size, err := scan(filepath.Join(p, entry.Name()))
		if err != nil {
			return nil, 0, err
		}

		if child == nil {
			continue
		}

		s.children = append(s.children, child)
		total += size
	}

	return s, total, nil
}

// expand resolves the sources of an add operation to the local files and
// directories they name.
func expand(sources []string) ([]*source, int64, error) {
	list := []*source{}
	total := int64(0)

	for _, pattern := range sources {
		matches, err := glob.Expand(pattern)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, 0, engine.InvalidData("source %s not found", pattern)
			}

			return nil, 0, engine.InvalidData("invalid source %s: %s", pattern, err)
		}

		for _, match := range matches {
			s, size, err := scan(match)
			if err != nil {
				return nil, 0, engine.Internal(err, "can't read source %s", match)
			}

			if s == nil {
				continue
			}

			list = append(list, s)
			total += size
		}
	}

	return list, total, nil
}

// uploader stores the content of local files in the blob store.
type uploader struct {
	engine   *slick
	total    int64
	current  int64
	progress func(total, current int64)
	pinned   []string
}

func (u *uploader) upload(ctx context.Context, s *source, now time.Time) (*node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.dir {
		folder := newFolder(now)

		for _, child := range s.children {
			n, err := u.upload(ctx, child, now)
			if err != nil {
				return nil, err
			}

			folder.children[child.name] = n
		}

		return folder, nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, engine.Internal(err, "can't open %s", s.path)
	}

	defer file.Close()

	h := sha256.New()

	size, err := io.Copy(h, file)
	if err != nil {
		return nil, engine.Internal(err, "can't read %s", s.path)
	}

	digest := h.Sum(nil)
	key := hex.EncodeToString(digest)

	u.engine.pin(key)
	u.pinned = append(u.pinned, key)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, engine.Internal(err, "can't read %s", s.path)
	}

	if err := u.engine.blobs.Put(ctx, key, file, size); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, engine.Internal(err, "can't store %s", s.path)
	}

	u.current += size
	u.progress(u.total, u.current)

	return newFile(s.name, digest, size, now), nil
}

// unpinAll drops the references taken for the uploaded files.
func (u *uploader) unpinAll(ctx context.Context) {
	for _, key := range u.pinned {
		u.engine.unpin(ctx, key)
	}

	u.pinned = nil
}

// add copies the local sources into the folder at p in the volume. Existing
// entries with the same name are treated according to the conflict mode.
func (e *slick) add(ctx context.Context, name, p string, sources []string, mode engine.ConflictMode, progress func(total, current int64)) error {
	list, total, err := expand(sources)
	if err != nil {
		return err
	}

	progress(total, 0)

	u := &uploader{
		engine:   e,
		total:    total,
		progress: progress,
	}

	now := time.Now()

	type upload struct {
		name string
		node *node
	}

	uploads := make([]upload, 0, len(list))

	for _, s := range list {
		n, err := u.upload(ctx, s, now)
		if err != nil {
			u.unpinAll(context.Background())
			return err
		}

		uploads = append(uploads, upload{name: s.name, node: n})
	}

	e.lock.Lock()

	v, err := e.volume(name)
	if err != nil {
		e.lock.Unlock()
		u.unpinAll(context.Background())
		return err
	}

	folder, err := mkdirAll(v.root, cleanPath(p), now)
	if err != nil {
		e.lock.Unlock()
		u.unpinAll(context.Background())
		return err
	}

	skipped := []*node{}
	replaced := []*node{}

	for _, up := range uploads {
		if existing, ok := folder.children[up.name]; ok {
			switch mode {
			case engine.ConflictReplace:
				replaced = append(replaced, existing)
			case engine.ConflictRename:
				up.name = freeName(folder, up.name)
			default:
				skipped = append(skipped, up.node)
				continue
			}
		}

		folder.children[up.name] = up.node
		folder.mtime = now
	}

	changed(v.root, cleanPath(p))

	e.lock.Unlock()

	for _, n := range skipped {
		e.release(context.Background(), n)
	}

	for _, n := range replaced {
		e.release(context.Background(), n)
	}

	return nil
}
