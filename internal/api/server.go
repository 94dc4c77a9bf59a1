// Package api serves twix inspection and conversion over HTTP. Every path a
// client names is resolved inside a single data directory.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/samcharles93/twix/internal/convert"
	"github.com/samcharles93/twix/internal/logger"
	"github.com/samcharles93/twix/internal/version"
)

// DefaultProbeLimit bounds how many records GET /v1/files/:name reports
// when the client does not ask for a limit.
const DefaultProbeLimit = 64

// ConvertFunc runs one conversion. convert.File satisfies it.
type ConvertFunc func(ctx context.Context, input, output string, opts convert.Options) (convert.Stats, error)

type Server struct {
	dataDir string
	store   *ConversionStore
	log     logger.Logger
	convert ConvertFunc
	clock   func() time.Time
}

func NewServer(dataDir string, store *ConversionStore, log logger.Logger) *Server {
	if store == nil {
		store = NewConversionStore()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		dataDir: dataDir,
		store:   store,
		log:     log,
		convert: convert.File,
		clock:   time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/health", s.handleHealth)
	e.GET("/v1/files/:name", s.handleInspectFile)
	e.POST("/v1/conversions", s.handleCreateConversion)
	e.GET("/v1/conversions", s.handleListConversions)
	e.GET("/v1/conversions/:id", s.handleGetConversion)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.String(),
		DataDir: s.dataDir,
	})
}

func (s *Server) handleInspectFile(c *echo.Context) error {
	path, err := resolve(s.dataDir, c.Param("name"))
	if err != nil {
		return writeFailure(c, err)
	}

	limit := DefaultProbeLimit
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return writeBadRequest(c, fmt.Sprintf("invalid limit %q", q))
		}
		limit = n
	}

	rep, err := convert.Inspect(s.requestContext(c), path, limit)
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, rep)
}

func (s *Server) handleCreateConversion(c *echo.Context) error {
	req := ConversionRequest{Dims: convert.DefaultExtents}
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return writeFailure(c, err)
	}
	input, err := resolve(s.dataDir, req.Input)
	if err != nil {
		return writeFailure(c, fmt.Errorf("input: %w", err))
	}
	output, err := resolve(s.dataDir, req.Output)
	if err != nil {
		return writeFailure(c, fmt.Errorf("output: %w", err))
	}

	opts := convert.Options{Dims: req.Dims.Dims(), ADCs: req.ADCs}
	if err := opts.Validate(); err != nil {
		return writeBadRequest(c, err.Error())
	}

	conv := Conversion{
		Input:     req.Input,
		Output:    req.Output,
		Dims:      req.Dims,
		ADCs:      opts.RecordCount(),
		CreatedAt: s.clock().Unix(),
	}

	stats, err := s.convert(s.requestContext(c), input, output, opts)
	conv.CompletedAt = s.clock().Unix()
	conv.Records = stats.Records
	if stats.Layout.Version != 0 {
		conv.Layout = stats.Layout.String()
	}
	if err != nil {
		status, typ := classify(err)
		conv.Status = StatusFailed
		conv.Error = &ErrorBody{Message: err.Error(), Type: typ}
		conv = s.store.Add(conv)
		s.log.Warn("conversion failed", "id", conv.ID, "input", req.Input, "error", err)
		return writeJSON(c, status, map[string]any{
			"error":         conv.Error,
			"conversion_id": conv.ID,
		})
	}

	conv.Status = StatusCompleted
	conv = s.store.Add(conv)
	s.log.Info("conversion completed", "id", conv.ID, "input", req.Input, "output", req.Output, "records", conv.Records)
	return writeJSON(c, http.StatusCreated, conv)
}

func (s *Server) handleListConversions(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, ConversionList{
		Object: "list",
		Data:   s.store.List(),
	})
}

func (s *Server) handleGetConversion(c *echo.Context) error {
	id := c.Param("id")
	conv, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("conversion %q not found", id))
	}
	return writeJSON(c, http.StatusOK, conv)
}

// requestContext carries the server logger into request scoped work.
func (s *Server) requestContext(c *echo.Context) context.Context {
	return logger.WithContext(c.Request().Context(), s.log)
}
