package compress

import (
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type Compressor interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

// Compression hands out pooled compressors of one scheme.
type Compression interface {
	Acquire() Compressor
	Release(c Compressor)
}

type pool struct {
	pool sync.Pool
}

func newPool(create func() (Compressor, error)) Compression {
	return &pool{
		pool: sync.Pool{
			New: func() interface{} {
				c, err := create()
				if err != nil {
					return nil
				}
				return c
			},
		},
	}
}

func (p *pool) Acquire() Compressor {
	c, ok := p.pool.Get().(Compressor)
	if !ok {
		return nil
	}

	c.Reset(io.Discard)

	return c
}

func (p *pool) Release(c Compressor) {
	c.Reset(io.Discard)
	p.pool.Put(c)
}

func NewGzip(level Level) Compression {
	gzipLevel := gzip.DefaultCompression
	if level == BestCompression {
		gzipLevel = gzip.BestCompression
	} else if level == BestSpeed {
		gzipLevel = gzip.BestSpeed
	}

	return newPool(func() (Compressor, error) {
		return gzip.NewWriterLevel(io.Discard, gzipLevel)
	})
}

func NewZstd(level Level) Compression {
	zstdLevel := zstd.SpeedDefault
	if level == BestCompression {
		zstdLevel = zstd.SpeedBestCompression
	} else if level == BestSpeed {
		zstdLevel = zstd.SpeedFastest
	}

	return newPool(func() (Compressor, error) {
		return zstd.NewWriter(io.Discard, zstd.WithZeroFrames(true), zstd.WithEncoderLevel(zstdLevel))
	})
}

func NewBrotli(level Level) Compression {
	brotliLevel := brotli.DefaultCompression
	if level == BestCompression {
		brotliLevel = brotli.BestCompression
	} else if level == BestSpeed {
		brotliLevel = brotli.BestSpeed
	}

	return newPool(func() (Compressor, error) {
		return brotli.NewWriterLevel(io.Discard, brotliLevel), nil
	})
}
