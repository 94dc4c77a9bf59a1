package api

import "github.com/samcharles93/twix/internal/convert"

// Conversion statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type ConversionRequest struct {
	Input  string          `json:"input"`
	Output string          `json:"output"`
	Dims   convert.Extents `json:"dims"`
	ADCs   int             `json:"adcs,omitempty"`
}

type Conversion struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	Status      string          `json:"status"`
	Input       string          `json:"input"`
	Output      string          `json:"output"`
	Dims        convert.Extents `json:"dims"`
	ADCs        int             `json:"adcs"`
	Records     int             `json:"records"`
	Layout      string          `json:"layout,omitempty"`
	Error       *ErrorBody      `json:"error,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	CompletedAt int64           `json:"completed_at,omitempty"`
}

type ConversionList struct {
	Object string       `json:"object"`
	Data   []Conversion `json:"data"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	DataDir string `json:"data_dir"`
}
