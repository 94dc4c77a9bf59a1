package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/samcharles93/twix/pkg/twix"
)

// Error types reported in the "type" field of an error body.
const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeNotFound       = "not_found_error"
	errTypeFormat         = "format_error"
	errTypeServer         = "server_error"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, errTypeInvalidRequest, msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, errTypeNotFound, msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return writeJSON(c, status, map[string]any{
		"error": ErrorBody{Message: msg, Type: errType},
	})
}

// writeFailure maps err onto a status code and error type.
func writeFailure(c *echo.Context, err error) error {
	status, typ := classify(err)
	return writeError(c, status, typ, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errTypeInvalidRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, errTypeNotFound
	case errors.Is(err, twix.ErrFormat), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusUnprocessableEntity, errTypeFormat
	default:
		return http.StatusInternalServerError, errTypeServer
	}
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.JSONBlob(status, b)
}

// decodeJSON decodes the request body into out. Fields absent from the body
// keep the values out already holds.
func decodeJSON(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return newInvalidRequest(fmt.Sprintf("decode request: %v", err))
	}
	return nil
}

// resolve joins name onto dir, refusing anything that would leave dir.
func resolve(dir, name string) (string, error) {
	if name == "" {
		return "", newInvalidRequest("path is required")
	}
	if !filepath.IsLocal(name) {
		return "", newInvalidRequest(fmt.Sprintf("path %q is not inside the data directory", name))
	}
	return filepath.Join(dir, name), nil
}
