package mock

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/engine/slick"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/errorhandler"
	"github.com/slickfs/gateway/http/validator"

	"github.com/invopop/jsonschema"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

// Fixture files and their contents
var Fixtures = map[string]string{
	"another-file": "123456789",
	"image.png":    "\x89PNG not really an image",
	"test-copy":    "This is the content of test-copy.\n",
	"test-copy2":   "8 bytes!",
	"dumb/one":     "0123456789abcdefgh",
	"dumb/two":     "ijklmnopqrstuvwxyz",
}

// DummyFixtures writes the fixture files to a new temporary directory and
// returns its path.
func DummyFixtures(t require.TestingT, dir string) string {
	for name, data := range Fixtures {
		path := filepath.Join(dir, filepath.FromSlash(name))

		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	}

	return dir
}

// DummyEngine returns an engine with a volume "test" that holds the fixture
// files if source is not empty.
func DummyEngine(t require.TestingT, source string) engine.Engine {
	e, err := slick.New(slick.Config{
		ChunkSize: 8,
		Workers:   2,
	})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, e.CreateVolume(ctx, "test"))

	if len(source) == 0 {
		return e
	}

	id, err := e.Add(ctx, "test", "/", []string{filepath.Join(source, "*")}, engine.AddOptions{})
	require.NoError(t, err)

	WaitOperation(t, e, id)

	return e
}

// WaitOperation waits until the operation finished and returns its record.
func WaitOperation(t require.TestingT, e engine.Engine, id int64) engine.Operation {
	var op engine.Operation

	require.Eventually(t, func() bool {
		var err error

		op, err = e.Operations().Get(context.Background(), id)
		if err != nil {
			return false
		}

		return op.State.IsFinal()
	}, 5*time.Second, 10*time.Millisecond)

	return op
}

func DummyEcho() *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	router.Logger.SetOutput(io.Discard)
	router.Validator = validator.New()

	return router
}

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Header  http.Header
	Raw     []byte
	Data    interface{}
}

func Request(t require.TestingT, httpstatus int, router *echo.Echo, method, path string, data io.Reader) *Response {
	return RequestEx(t, httpstatus, router, method, path, data, nil, true)
}

func RequestEx(t require.TestingT, httpstatus int, router *echo.Echo, method, path string, data io.Reader, header http.Header, checkResponse bool) *Response {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, data)
	if data != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	router.ServeHTTP(w, req)

	var response *Response = nil

	if checkResponse {
		response = CheckResponse(t, w.Result())
	} else {
		response = CheckResponseMinimal(t, w.Result())
	}

	require.Equal(t, httpstatus, w.Code, string(response.Raw))

	return response
}

func CheckResponseMinimal(t require.TestingT, res *http.Response) *Response {
	response := &Response{
		Code:   res.StatusCode,
		Header: res.Header,
	}

	res.Body.Close()

	return response
}

func CheckResponse(t require.TestingT, res *http.Response) *Response {
	response := &Response{
		Code:   res.StatusCode,
		Header: res.Header,
	}

	body, err := io.ReadAll(res.Body)
	require.Equal(t, nil, err)

	response.Raw = body

	if strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		err := json.Unmarshal(body, &response.Data)
		require.Equal(t, nil, err)

		if response.Code >= 400 {
			e := api.Error{}
			if err := json.Unmarshal(body, &e); err == nil {
				response.Message = e.Message
			}
		}
	} else {
		response.Data = body
	}

	return response
}

func Validate(t require.TestingT, datatype, data interface{}) bool {
	schema, err := jsonschema.Reflect(datatype).MarshalJSON()
	require.NoError(t, err)

	schemaLoader := gojsonschema.NewStringLoader(string(schema))
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	require.Equal(t, nil, err)
	require.Equal(t, true, result.Valid(), result.Errors())

	return true
}

func Read(t require.TestingT, path string) io.Reader {
	data, err := os.ReadFile(path)
	require.Equal(t, nil, err)

	return bytes.NewReader(data)
}

// JSON returns a reader for the JSON encoding of v.
func JSON(t require.TestingT, v interface{}) io.Reader {
	data, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(data)
}
