package slick

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/slickfs/gateway/engine"
)

// node is a file or a folder in the namespace of a volume.
type node struct {
	folder   bool
	digest   []byte
	mimeType string
	size     int64
	ctime    time.Time
	mtime    time.Time
	children map[string]*node

	// cached reference, nil if the subtree changed since the last update
	ref []byte
}

func newFolder(now time.Time) *node {
	return &node{
		folder:   true,
		ctime:    now,
		mtime:    now,
		children: map[string]*node{},
	}
}

func newFile(name string, digest []byte, size int64, now time.Time) *node {
	return &node{
		digest:   digest,
		mimeType: mimeType(name),
		size:     size,
		ctime:    now,
		mtime:    now,
	}
}

func mimeType(name string) string {
	t := mime.TypeByExtension(filepath.Ext(name))
	if len(t) == 0 {
		return "application/octet-stream"
	}

	return t
}

func (n *node) key() string {
	return hex.EncodeToString(n.digest)
}

// clone returns a deep copy of the node.
func (n *node) clone() *node {
	c := *n

	if n.folder {
		c.children = make(map[string]*node, len(n.children))
		for name, child := range n.children {
			c.children[name] = child.clone()
		}
	}

	return &c
}

// names returns the names of the children in lexical order.
func (n *node) names() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// files calls fn for every file in the subtree of the node.
func (n *node) files(fn func(f *node)) {
	if !n.folder {
		fn(n)
		return
	}

	for _, child := range n.children {
		child.files(fn)
	}
}

func (n *node) totalSize() int64 {
	if !n.folder {
		return n.size
	}

	size := int64(0)
	for _, child := range n.children {
		size += child.totalSize()
	}

	return size
}

// reference returns the serialized pointer to the content of the node. It is
// the object type followed by the digest of a file or by the digest over the
// names and references of the children of a folder. Cached references are
// used where available, nothing is written to the tree.
func (n *node) reference() []byte {
	if n.ref != nil {
		return n.ref
	}

	return n.hash((*node).reference)
}

// update computes and caches the missing references in the subtree of n. It
// must only be called while holding the write lock of the engine.
func (n *node) update() []byte {
	if n.ref == nil {
		n.ref = n.hash((*node).update)
	}

	return n.ref
}

func (n *node) hash(child func(c *node) []byte) []byte {
	if !n.folder {
		return append([]byte(engine.ObjectFile), n.digest...)
	}

	h := sha256.New()
	for _, name := range n.names() {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(child(n.children[name]))
		h.Write([]byte{0})
	}

	return append([]byte(engine.ObjectFolder), h.Sum(nil)...)
}

// changed drops the cached references of root and of the folders down to the
// cleaned path p and computes the references of the tree again.
func changed(root *node, p string) {
	n := root
	n.ref = nil

	for _, name := range split(p) {
		child, ok := n.children[name]
		if !ok || !child.folder {
			break
		}

		child.ref = nil
		n = child
	}

	root.update()
}

func (n *node) entry() engine.Entry {
	e := engine.Entry{
		Reference:  append([]byte(nil), n.reference()...),
		Size:       n.totalSize(),
		CreatedAt:  n.ctime,
		ModifiedAt: n.mtime,
	}

	if n.folder {
		e.ObjectType = engine.ObjectFolder
		e.Count = int64(len(n.children))
	} else {
		e.ObjectType = engine.ObjectFile
		e.Digest = append([]byte(nil), n.digest...)
		e.Type = n.mimeType
	}

	return e
}

// cleanPath returns the absolute, cleaned form of p.
func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// split returns the names of the elements of the cleaned absolute path p.
func split(p string) []string {
	if p == "/" {
		return nil
	}

	return strings.Split(p[1:], "/")
}

// lookup returns the node at the cleaned path p below root.
func lookup(root *node, p string) (*node, error) {
	n := root

	for i, name := range split(p) {
		if !n.folder {
			return nil, engine.InvalidData("%s is not a folder", "/"+strings.Join(split(p)[:i], "/"))
		}

		child, ok := n.children[name]
		if !ok {
			return nil, engine.NotFound("%s not found", p)
		}

		n = child
	}

	return n, nil
}

// mkdirAll returns the folder at the cleaned path p below root and creates it
// and its missing parents.
func mkdirAll(root *node, p string, now time.Time) (*node, error) {
	n := root

	for _, name := range split(p) {
		child, ok := n.children[name]
		if !ok {
			child = newFolder(now)
			n.children[name] = child
			n.mtime = now
		} else if !child.folder {
			return nil, engine.InvalidData("%s is not a folder", p)
		}

		n = child
	}

	return n, nil
}

// freeName returns a name for a new child of the folder that doesn't collide
// with an existing one. "name.ext" becomes "name (1).ext", "name (2).ext", ...
func freeName(folder *node, name string) string {
	if _, ok := folder.children[name]; !ok {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		candidate := base + " (" + strconv.Itoa(i) + ")" + ext
		if _, ok := folder.children[candidate]; !ok {
			return candidate
		}
	}
}
