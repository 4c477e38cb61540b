package api

import (
	"errors"
	"net/http"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/handler/util"
	"github.com/slickfs/gateway/log"

	"github.com/labstack/echo/v4"
)

// The OperationHandler type provides handler functions for operations
type OperationHandler struct {
	engine engine.Engine
	logger log.Logger
}

// NewOperation returns a new OperationHandler type
func NewOperation(engine engine.Engine, logger log.Logger) *OperationHandler {
	h := &OperationHandler{
		engine: engine,
		logger: logger,
	}

	if h.logger == nil {
		h.logger = log.New("")
	}

	return h
}

// List returns all operations
// @Summary List all operations
// @ID operation-list
// @Produce json
// @Success 200 {object} api.OperationList
// @Failure 500 {object} api.Error
// @Router /api/operations [get]
func (h *OperationHandler) List(c echo.Context) error {
	list := api.OperationList{
		Operations: []api.Operation{},
	}

	err := h.engine.Operations().Each(c.Request().Context(), func(op engine.Operation) error {
		o := api.Operation{}
		o.Unmarshal(op)

		list.Operations = append(list.Operations, o)

		return nil
	})
	if err != nil {
		h.logger.Error().WithError(err).Log("Listing operations failed")
		return api.Err(http.StatusInternalServerError, api.FatalMessage)
	}

	return c.JSON(http.StatusOK, list)
}

// Submit submits an operation
// @Summary Submit an operation
// @Description mkdir, copy and move are executed immediately. An add is executed in the background and the response redirects to the new operation.
// @ID operation-submit
// @Accept json
// @Produce json
// @Param operation body api.AddRequest true "Operation"
// @Success 204
// @Success 303
// @Failure 400 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/operations [post]
func (h *OperationHandler) Submit(c echo.Context) error {
	body, err := util.ReadJSON(c)
	if err != nil {
		return api.Err(http.StatusBadRequest, "invalid JSON", "%s", err)
	}

	req := api.OperationRequest{}

	if err := util.BindJSONValidation(c, body, &req, false); err != nil {
		return api.Err(http.StatusBadRequest, "invalid JSON", "%s", err)
	}

	switch req.Type {
	case "mkdir":
		return h.mkdir(c, body)
	case "copy":
		return h.copy(c, body, false)
	case "move":
		return h.copy(c, body, true)
	case "add":
		return h.add(c, body)
	}

	return api.Err(http.StatusBadRequest, "unknown operation type "+req.Type)
}

func (h *OperationHandler) mkdir(c echo.Context, body []byte) error {
	req := api.MkdirRequest{}

	if err := bind(c, body, &req); err != nil {
		return err
	}

	if err := h.engine.Mkdir(c.Request().Context(), req.Target.Name, req.Target.Path); err != nil {
		return submitError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *OperationHandler) copy(c echo.Context, body []byte, move bool) error {
	req := api.CopyRequest{}

	if err := bind(c, body, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	options := engine.CopyOptions{Force: req.Force}

	var err error

	if move {
		err = h.engine.Move(ctx, req.Source.Name, req.Source.Path, req.Destination.Name, req.Destination.Path, options)
	} else {
		err = h.engine.Copy(ctx, req.Source.Name, req.Source.Path, req.Destination.Name, req.Destination.Path, options)
	}

	if err != nil {
		return submitError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// submitError maps the error of an immediate operation. A missing volume or
// entry is reported as a bad request.
func submitError(err error) error {
	if engine.IsNotFound(err) {
		return api.Err(http.StatusBadRequest, engine.Message(err))
	}

	return api.FromEngine(err)
}

func (h *OperationHandler) add(c echo.Context, body []byte) error {
	req := api.AddRequest{}

	if err := bind(c, body, &req); err != nil {
		return err
	}

	conflict := engine.ConflictMode(req.Conflict)
	if len(conflict) == 0 {
		conflict = engine.ConflictSkip
	}

	ctx := c.Request().Context()

	if _, err := h.engine.Volume(ctx, req.Destination.Name); err != nil {
		if engine.IsNotFound(err) {
			return api.Err(http.StatusBadRequest, "cannot find volume")
		}

		return api.FromEngine(err)
	}

	id, err := h.engine.Add(ctx, req.Destination.Name, req.Destination.Path, req.Sources, engine.AddOptions{
		Conflict: conflict,
	})
	if err != nil {
		return api.FromEngine(err)
	}

	return c.Redirect(http.StatusSeeOther, api.OperationURL(id))
}

// bind unmarshals and validates an operation request. A value of the wrong
// type for "sources" is reported like a missing one.
func bind(c echo.Context, body []byte, req interface{}) error {
	err := util.BindJSONValidation(c, body, req, true)
	if err == nil {
		return nil
	}

	var typeErr *json.TypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "sources" {
			return api.Err(http.StatusBadRequest, "sources must be an array")
		}

		return api.Err(http.StatusBadRequest, "invalid JSON", "%s", err)
	}

	return api.Err(http.StatusBadRequest, err.Error())
}

// Get returns the state of an operation
// @Summary Fetch the state of an operation
// @ID operation-get
// @Produce json
// @Param id path integer true "ID of the operation"
// @Success 200 {object} api.OperationItem
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/operations/{id} [get]
func (h *OperationHandler) Get(c echo.Context) error {
	id, err := util.PathParamInt(c, "id")
	if err != nil {
		return api.Err(http.StatusNotFound, "not found")
	}

	op, err := h.engine.Operations().Get(c.Request().Context(), id)
	if err != nil {
		return api.FromEngine(err)
	}

	return c.JSON(http.StatusOK, api.OperationItem{
		Operation: api.OperationState{
			State:  string(op.State),
			Events: api.OperationEventsURL(id),
		},
	})
}

// Cancel cancels an operation
// @Summary Cancel an operation
// @ID operation-cancel
// @Param id path integer true "ID of the operation"
// @Success 204
// @Failure 400 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /api/operations/{id} [delete]
func (h *OperationHandler) Cancel(c echo.Context) error {
	id, err := util.PathParamInt(c, "id")
	if err != nil {
		return api.Err(http.StatusBadRequest, "invalid operation id")
	}

	if err := h.engine.Operations().Cancel(c.Request().Context(), id); err != nil {
		return api.FromEngine(err)
	}

	return c.NoContent(http.StatusNoContent)
}
