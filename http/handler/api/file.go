package api

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/byterange"
	"github.com/slickfs/gateway/http/handler/util"
	"github.com/slickfs/gateway/log"

	"github.com/fujiwara/shapeio"
	"github.com/labstack/echo/v4"
)

// FolderType is the content type reported for folders
const FolderType = "x-slick/folder"

type FileConfig struct {
	Engine engine.Engine

	// MaxBandwidth limits the rate of each response body in kbit/s. 0 means no limit.
	MaxBandwidth uint64

	Logger log.Logger
}

// The FileHandler type provides handler functions for the contents of files
type FileHandler struct {
	engine       engine.Engine
	maxBandwidth uint64
	logger       log.Logger

	bytesServed atomic.Uint64
}

// NewFile returns a new FileHandler type
func NewFile(config FileConfig) *FileHandler {
	h := &FileHandler{
		engine:       config.Engine,
		maxBandwidth: config.MaxBandwidth,
		logger:       config.Logger,
	}

	if h.logger == nil {
		h.logger = log.New("")
	}

	return h
}

// BytesServed returns the number of body bytes written by Get.
func (h *FileHandler) BytesServed() uint64 {
	return h.bytesServed.Load()
}

// setHeader sets a header without canonicalizing its name.
func setHeader(header http.Header, key, value string) {
	header[key] = []string{value}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Head returns the metadata of a file or a folder
// @Summary Fetch the metadata of an entry
// @Description The metadata is returned in the headers X-Created-time, X-Modified-time, X-Slick-base64, X-Slick-type and X-Slick-folder-count for folders.
// @ID file-head
// @Param name path string true "Name of the volume"
// @Param path path string false "Path of the entry"
// @Success 200
// @Failure 404
// @Failure 500
// @Router /api/volumes/{name}/file/{path} [head]
func (h *FileHandler) Head(c echo.Context) error {
	name := util.PathParam(c, "name")
	path := util.PathWildcardParam(c)

	entry, err := h.engine.Stat(c.Request().Context(), name, path)
	if err != nil {
		return api.FromEngine(err)
	}

	header := c.Response().Header()

	contentType := entry.Type
	if len(contentType) == 0 {
		contentType = FolderType
	}

	setHeader(header, "X-Created-time", formatTime(entry.CreatedAt))
	setHeader(header, "X-Modified-time", formatTime(entry.ModifiedAt))
	setHeader(header, "X-Slick-base64", base64.StdEncoding.EncodeToString(entry.Reference))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(entry.Size, 10))
	header.Set(echo.HeaderContentType, contentType)

	switch entry.ObjectType {
	case engine.ObjectFolder:
		setHeader(header, "X-Slick-type", "folder")
		setHeader(header, "X-Slick-folder-count", strconv.FormatInt(entry.Count, 10))
	case engine.ObjectFile:
		header.Set("Accept-Ranges", "bytes")
		setHeader(header, "X-Slick-type", "file")
	default:
		h.logger.Error().WithFields(log.Fields{
			"volume": name,
			"path":   path,
			"type":   entry.ObjectType,
		}).Log("Unknown object type")

		for _, key := range []string{"X-Created-time", "X-Modified-time", "X-Slick-base64", echo.HeaderContentLength, echo.HeaderContentType} {
			delete(header, key)
		}

		return api.Err(http.StatusInternalServerError, api.FatalMessage)
	}

	c.Response().WriteHeader(http.StatusOK)

	return nil
}

// Get returns the content of a file
// @Summary Fetch the content of a file
// @Description Fetch the content of a file. A single byte range "bytes=start-end" is supported.
// @ID file-get
// @Produce application/octet-stream
// @Param name path string true "Name of the volume"
// @Param path path string true "Path of the file"
// @Param Range header string false "Byte range"
// @Success 200 {file} byte
// @Success 206 {file} byte
// @Failure 400 {object} api.Error
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/volumes/{name}/file/{path} [get]
func (h *FileHandler) Get(c echo.Context) error {
	name := util.PathParam(c, "name")
	path := util.PathWildcardParam(c)
	ctx := c.Request().Context()

	entry, err := h.engine.Stat(ctx, name, path)
	if err != nil {
		return api.FromEngine(err)
	}

	if entry.IsFolder() {
		return api.Err(http.StatusBadRequest, "invalid target")
	}

	if header := c.Request().Header.Get("Range"); len(header) != 0 {
		return h.getRange(c, name, path, header, entry)
	}

	res := c.Response()

	res.Header().Set(echo.HeaderContentType, entry.Type)
	res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(entry.Size, 10))
	res.WriteHeader(http.StatusOK)

	w := h.writer(ctx, res)

	err = h.engine.EachBuffer(ctx, name, path, func(p []byte) error {
		n, err := w.Write(p)
		h.bytesServed.Add(uint64(n))
		if err != nil {
			return err
		}

		res.Flush()

		return nil
	})
	if err != nil {
		h.logger.Warn().WithError(err).WithFields(log.Fields{
			"volume": name,
			"path":   path,
		}).Log("Transfer aborted")
	}

	return nil
}

func (h *FileHandler) getRange(c echo.Context, name, path, header string, entry engine.Entry) error {
	ctx := c.Request().Context()

	r, err := byterange.Parse(header, entry.Size)
	if err != nil {
		return api.Err(http.StatusBadRequest, err.Error())
	}

	// The window is inclusive, the reader is exclusive
	reader, err := h.engine.RangeReader(ctx, name, path, r.Start, r.End+1)
	if err != nil {
		return api.FromEngine(err)
	}

	defer reader.Close()

	res := c.Response()

	res.Header().Set("Content-Range", r.ContentRange())
	res.Header().Set("Accept-Ranges", "bytes")
	res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(r.Length(), 10))
	res.Header().Set(echo.HeaderContentType, entry.Type)
	res.WriteHeader(http.StatusPartialContent)

	n, err := io.Copy(h.writer(ctx, res), reader)
	h.bytesServed.Add(uint64(n))

	if err != nil {
		h.logger.Warn().WithError(err).WithFields(log.Fields{
			"volume": name,
			"path":   path,
			"range":  header,
		}).Log("Transfer aborted")
	} else if n != r.Length() {
		h.logger.Warn().WithFields(log.Fields{
			"volume":   name,
			"path":     path,
			"range":    header,
			"expected": r.Length(),
			"written":  n,
		}).Log("Range reaches beyond the end of the file")
	}

	return nil
}

// writer returns a writer that respects the bandwidth limit.
func (h *FileHandler) writer(ctx context.Context, w io.Writer) io.Writer {
	if h.maxBandwidth == 0 {
		return w
	}

	shaped := shapeio.NewWriterWithContext(w, ctx)
	shaped.SetRateLimit(float64(h.maxBandwidth) * 1024 / 8)

	return shaped
}
