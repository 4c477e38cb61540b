// Package compress implements a middleware that compresses responses with
// gzip, brotli or zstd, depending on what the client accepts.
package compress

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/slickfs/gateway/mem"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config defines the config for compress middleware.
type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper

	// Compression level. Optional. Default value 0.
	Level Level

	// Length threshold before compression is used. Optional. Default value 0.
	MinLength int

	// Schemes is a list of enabled compressions in order of preference.
	// Optional. Default [zstd, br, gzip]
	Schemes []string

	// List of content types to compress. If empty, everything will be compressed.
	ContentTypes []string
}

type Level int

const (
	DefaultCompression Level = 0
	BestCompression    Level = 1
	BestSpeed          Level = 2
)

// DefaultConfig is the default compress middleware config.
var DefaultConfig = Config{
	Skipper:      middleware.DefaultSkipper,
	Level:        DefaultCompression,
	MinLength:    0,
	Schemes:      []string{"zstd", "br", "gzip"},
	ContentTypes: []string{},
}

type scheme struct {
	name        string
	compression Compression
}

// New returns a middleware which compresses HTTP responses.
func New() echo.MiddlewareFunc {
	mw, _ := NewWithConfig(DefaultConfig)

	return mw
}

// NewWithConfig returns a compress middleware with config. See New().
func NewWithConfig(config Config) (echo.MiddlewareFunc, error) {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	if config.MinLength < 0 {
		config.MinLength = DefaultConfig.MinLength
	}

	if len(config.Schemes) == 0 {
		config.Schemes = DefaultConfig.Schemes
	}

	schemes := []scheme{}

	for _, name := range config.Schemes {
		switch name {
		case "gzip":
			schemes = append(schemes, scheme{name, NewGzip(config.Level)})
		case "zstd":
			schemes = append(schemes, scheme{name, NewZstd(config.Level)})
		case "br":
			schemes = append(schemes, scheme{name, NewBrotli(config.Level)})
		default:
			return nil, fmt.Errorf("unknown compression scheme %s", name)
		}
	}

	contentTypes := append([]string{}, config.ContentTypes...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			res := c.Response()
			encodings := c.Request().Header.Get(echo.HeaderAcceptEncoding)

			var selected *scheme
			for i := range schemes {
				if strings.Contains(encodings, schemes[i].name) {
					selected = &schemes[i]
					break
				}
			}

			if selected == nil {
				return next(c)
			}

			compressor := selected.compression.Acquire()
			if compressor == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, fmt.Errorf("failed to acquire compressor for %s", selected.name))
			}

			rw := res.Writer
			compressor.Reset(rw)

			w := &responseWriter{
				Compressor:     compressor,
				ResponseWriter: rw,
				scheme:         selected.name,
				minLength:      config.MinLength,
				contentTypes:   contentTypes,
				buffer:         mem.Get(),
			}

			defer func() {
				if !w.compressing {
					// Short or uncompressable responses are written as they are
					res.Writer = rw
					if w.hasHeader {
						w.writeHeader(false)
					}
					w.buffer.WriteTo(rw)
					compressor.Reset(io.Discard)
				}

				compressor.Close()
				selected.compression.Release(compressor)
				mem.Put(w.buffer)
			}()

			res.Writer = w

			return next(c)
		}
	}, nil
}

type responseWriter struct {
	Compressor
	http.ResponseWriter

	scheme       string
	minLength    int
	contentTypes []string

	code          int
	contentLength string
	hasHeader     bool
	wroteHeader   bool
	passThrough   bool
	compressing   bool

	buffer *mem.Buffer
}

func (w *responseWriter) WriteHeader(code int) {
	w.contentLength = w.Header().Get(echo.HeaderContentLength)

	if code == http.StatusNoContent || code == http.StatusNotModified || !w.canCompress(w.Header().Get(echo.HeaderContentType)) {
		w.passThrough = true
	}

	w.hasHeader = true

	// Delay writing of the header until we know if the response will be compressed
	w.code = code
}

func (w *responseWriter) writeHeader(compressed bool) {
	if w.wroteHeader {
		return
	}

	if compressed {
		w.Header().Del(echo.HeaderContentLength)
		w.Header().Set(echo.HeaderContentEncoding, w.scheme)
		w.Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)
	} else if len(w.contentLength) != 0 {
		w.Header().Set(echo.HeaderContentLength, w.contentLength)
	}

	w.ResponseWriter.WriteHeader(w.code)
	w.wroteHeader = true
}

func (w *responseWriter) canCompress(contentType string) bool {
	if len(w.contentTypes) == 0 {
		return true
	}

	for _, t := range w.contentTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}

	return false
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.Header().Get(echo.HeaderContentType) == "" {
		w.Header().Set(echo.HeaderContentType, http.DetectContentType(b))
	}

	if !w.hasHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.passThrough {
		w.writeHeader(false)
		return w.ResponseWriter.Write(b)
	}

	if w.compressing {
		return w.Compressor.Write(b)
	}

	n, _ := w.buffer.Write(b)

	if w.buffer.Len() < w.minLength {
		return n, nil
	}

	if err := w.startCompression(); err != nil {
		return 0, err
	}

	return n, nil
}

func (w *responseWriter) startCompression() error {
	w.compressing = true
	w.writeHeader(true)

	_, err := w.Compressor.Write(w.buffer.Bytes())
	w.buffer.Reset()

	return err
}

func (w *responseWriter) Flush() {
	if !w.hasHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.passThrough {
		w.writeHeader(false)
	} else {
		if !w.compressing {
			w.startCompression()
		}

		w.Compressor.Flush()
	}

	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
