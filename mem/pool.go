// Package mem provides a pool of reusable byte buffers.
package mem

import (
	"sync"
)

type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	p := &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return &Buffer{}
			},
		},
	}

	return p
}

// Get returns an empty buffer from the pool.
func (p *BufferPool) Get() *Buffer {
	buf := p.pool.Get().(*Buffer)
	buf.Reset()

	return buf
}

// Put returns the buffer to the pool. Buffers that grew beyond maxCapacity
// are dropped.
func (p *BufferPool) Put(buf *Buffer) {
	if buf.Cap() > maxCapacity {
		return
	}

	p.pool.Put(buf)
}

const maxCapacity = 4 * 1024 * 1024

var defaultPool = NewBufferPool()

func Get() *Buffer {
	return defaultPool.Get()
}

func Put(buf *Buffer) {
	defaultPool.Put(buf)
}
