package api

import (
	"net/http"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/handler/util"

	"github.com/labstack/echo/v4"
)

// The VolumeHandler type provides handler functions for managing volumes
type VolumeHandler struct {
	engine engine.Engine
}

// NewVolume returns a new VolumeHandler type
func NewVolume(engine engine.Engine) *VolumeHandler {
	return &VolumeHandler{
		engine: engine,
	}
}

// List returns all volumes
// @Summary List all volumes
// @Description List all volumes with their size
// @ID volume-list
// @Produce json
// @Success 200 {object} api.VolumeList
// @Failure 500 {object} api.Error
// @Router /api/volumes [get]
func (h *VolumeHandler) List(c echo.Context) error {
	list := api.VolumeList{
		Volumes: []api.Volume{},
	}

	err := h.engine.EachVolume(c.Request().Context(), func(v engine.Volume) error {
		volume := api.Volume{}
		volume.Unmarshal(v)

		list.Volumes = append(list.Volumes, volume)

		return nil
	})
	if err != nil {
		return api.Err(http.StatusInternalServerError, api.FatalMessage)
	}

	return c.JSON(http.StatusOK, list)
}

// Create creates a new volume
// @Summary Create a volume
// @ID volume-create
// @Accept json
// @Produce json
// @Param config body api.VolumeCreate true "Volume"
// @Success 201 {object} object
// @Failure 400 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/volumes [post]
func (h *VolumeHandler) Create(c echo.Context) error {
	req := api.VolumeCreate{}

	body, err := util.ReadJSON(c)
	if err != nil {
		return api.Err(http.StatusBadRequest, "name not defined")
	}

	if err := util.BindJSONValidation(c, body, &req, true); err != nil {
		return api.Err(http.StatusBadRequest, err.Error())
	}

	if err := h.engine.CreateVolume(c.Request().Context(), req.Name); err != nil {
		return api.FromEngine(err)
	}

	return c.JSON(http.StatusCreated, struct{}{})
}

// Get returns a volume
// @Summary Fetch a volume
// @ID volume-get
// @Produce json
// @Param name path string true "Name of the volume"
// @Success 200 {object} api.VolumeItem
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/volumes/{name} [get]
func (h *VolumeHandler) Get(c echo.Context) error {
	name := util.PathParam(c, "name")

	v, err := h.engine.Volume(c.Request().Context(), name)
	if err != nil {
		return api.FromEngine(err)
	}

	item := api.VolumeItem{}
	item.Volume.Unmarshal(v)

	return c.JSON(http.StatusOK, item)
}

// Delete destroys a volume and its contents
// @Summary Destroy a volume
// @ID volume-delete
// @Param name path string true "Name of the volume"
// @Success 204
// @Failure 400 {object} api.Error
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/volumes/{name} [delete]
func (h *VolumeHandler) Delete(c echo.Context) error {
	name := util.PathParam(c, "name")

	if err := h.engine.DestroyVolume(c.Request().Context(), name); err != nil {
		return api.FromEngine(err)
	}

	return c.NoContent(http.StatusNoContent)
}
