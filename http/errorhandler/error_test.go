package errorhandler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/http/api"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, method string, err error) (*httptest.ResponseRecorder, api.Error) {
	router := echo.New()

	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := router.NewContext(req, rec)

	HTTPErrorHandler(err, c)

	e := api.Error{}
	if rec.Body.Len() != 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	}

	return rec, e
}

func TestAPIError(t *testing.T) {
	rec, e := handle(t, http.MethodGet, api.Err(http.StatusBadRequest, "target must have name"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "target must have name", e.Message)
	require.Equal(t, http.StatusBadRequest, e.Code)
}

func TestNoLeak(t *testing.T) {
	rec, e := handle(t, http.MethodGet, errors.New("open /secret/path: permission denied"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "fatal error", e.Message)
	require.Empty(t, e.Details)

	rec, e = handle(t, http.MethodGet, api.Err(http.StatusInternalServerError, "", "%s", "internal detail"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "fatal error", e.Message)
	require.Empty(t, e.Details)
}

func TestMethodNotAllowed(t *testing.T) {
	rec, e := handle(t, http.MethodGet, echo.ErrMethodNotAllowed)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not found", e.Message)

	rec, _ = handle(t, http.MethodGet, echo.ErrNotFound)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHead(t *testing.T) {
	rec, _ := handle(t, http.MethodHead, api.Err(http.StatusNotFound, "not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 0, rec.Body.Len())
}
