package errorhandler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/slickfs/gateway/http/api"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler is a genral handler for echo handler errors. Unmatched
// routes and methods are reported as 404. Responses with a 5xx code never
// carry the details of the error.
func HTTPErrorHandler(err error, c echo.Context) {
	var code int = 0
	var details []string
	message := ""

	if he, ok := err.(api.Error); ok {
		code = he.Code
		message = he.Message
		details = he.Details
	} else if he, ok := err.(*echo.HTTPError); ok {
		if he.Internal != nil {
			if herr, ok := he.Internal.(*echo.HTTPError); ok {
				he = herr
			}
		}

		code = he.Code
		if code == http.StatusMethodNotAllowed {
			code = http.StatusNotFound
			message = "not found"
		} else {
			message = http.StatusText(he.Code)
			details = strings.Split(fmt.Sprintf("%v", he.Message), "\n")
		}
	} else {
		code = http.StatusInternalServerError
	}

	if code >= http.StatusInternalServerError {
		message = api.FatalMessage
		details = nil
	}

	if code == http.StatusNotFound && len(message) == 0 {
		message = "not found"
	}

	if details == nil {
		details = []string{}
	}

	// Send response
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			c.NoContent(code)
		} else {
			c.JSON(code, api.Error{
				Code:    code,
				Message: message,
				Details: details,
			})
		}
	}
}
