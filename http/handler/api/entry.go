package api

import (
	"net/http"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/handler/util"

	"github.com/labstack/echo/v4"
)

// The EntryHandler type provides handler functions for the entries of a volume
type EntryHandler struct {
	engine engine.Engine
}

// NewEntry returns a new EntryHandler type
func NewEntry(engine engine.Engine) *EntryHandler {
	return &EntryHandler{
		engine: engine,
	}
}

// List lists the entries of a folder
// @Summary List the entries of a folder
// @Description List the files and folders in a folder of a volume. The query of the request is kept in the URLs of the entries.
// @ID entry-list
// @Produce json
// @Param name path string true "Name of the volume"
// @Param path path string false "Path of the folder"
// @Success 200 {object} api.EntryList
// @Failure 400 {object} api.Error
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/volumes/{name}/entries/{path} [get]
func (h *EntryHandler) List(c echo.Context) error {
	name := util.PathParam(c, "name")
	path := util.PathWildcardParam(c)
	query := c.Request().URL.RawQuery

	list := api.EntryList{
		Entries: []api.Entry{},
	}

	err := h.engine.List(c.Request().Context(), name, path, func(fullpath string, e engine.Entry) error {
		entry := api.Entry{}
		entry.Unmarshal(name, fullpath, query, e)

		list.Entries = append(list.Entries, entry)

		return nil
	})
	if err != nil {
		return api.FromEngine(err)
	}

	return c.JSON(http.StatusOK, list)
}

// Remove removes a file or a folder
// @Summary Remove an entry
// @ID entry-remove
// @Produce json
// @Param name path string true "Name of the volume"
// @Param path path string true "Path of the entry"
// @Success 201 {object} object
// @Failure 400 {object} api.Error
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/volumes/{name}/entries/{path} [delete]
func (h *EntryHandler) Remove(c echo.Context) error {
	name := util.PathParam(c, "name")
	path := util.PathWildcardParam(c)

	if err := h.engine.Remove(c.Request().Context(), name, path); err != nil {
		return api.FromEngine(err)
	}

	return c.JSON(http.StatusCreated, struct{}{})
}
