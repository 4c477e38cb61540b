package util

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/slickfs/gateway/encoding/json"

	"github.com/labstack/echo/v4"
)

// ReadJSON returns the body of the request. An error is returned if the
// request doesn't contain JSON.
func ReadJSON(c echo.Context) ([]byte, error) {
	req := c.Request()

	if req.ContentLength == 0 {
		return nil, fmt.Errorf("request doesn't contain any content")
	}

	ctype := req.Header.Get(echo.HeaderContentType)

	if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return nil, fmt.Errorf("request doesn't contain JSON content")
	}

	return io.ReadAll(req.Body)
}

// BindJSONValidation unmarshals the body into obj and validates the result if
// requested. Type mismatches are returned as *json.TypeError.
func BindJSONValidation(c echo.Context, body []byte, obj interface{}, validate bool) error {
	if err := json.Unmarshal(body, obj); err != nil {
		return json.FormatError(body, err)
	}

	if validate {
		return c.Validate(obj)
	}

	return nil
}

// ShouldBindJSON binds the body data of the request to the given object. An error is
// returned if the body data is not valid JSON or the validation of the unmarshalled
// data failed.
func ShouldBindJSON(c echo.Context, obj interface{}) error {
	body, err := ReadJSON(c)
	if err != nil {
		return err
	}

	return BindJSONValidation(c, body, obj, true)
}

// PathWildcardParam returns the path captured by the wildcard of the route as
// an absolute path.
func PathWildcardParam(c echo.Context) string {
	return "/" + PathParam(c, "*")
}

func PathParam(c echo.Context, name string) string {
	param := c.Param(name)

	param, err := url.PathUnescape(param)
	if err != nil {
		return ""
	}

	return param
}

// PathParamInt returns the path parameter as an integer.
func PathParamInt(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(PathParam(c, name), 10, 64)
}
