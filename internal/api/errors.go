package api

import (
	"errors"
	"net/http"

	"github.com/ah-its-andy/docconvert/internal/convert"
	"github.com/ah-its-andy/docconvert/internal/format"
	"github.com/ah-its-andy/docconvert/internal/runner"
	"github.com/ah-its-andy/docconvert/internal/storage"
	"github.com/gin-gonic/gin"
)

// Error codes surfaced in the error_code field of failure responses.
const (
	CodeValidation        = "validation_error"
	CodeUnsupportedFormat = "unsupported_format"
	CodeUnsupportedPair   = "unsupported_pair"
	CodeExternalTool      = "external_tool_error"
	CodeTimeout           = "timeout"
	CodeNotFound          = "not_found"
	CodeInternal          = "internal_error"
)

// classify maps an error to HTTP status, error code and a client-safe
// message. Diagnostic detail stays in the server log.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, format.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, CodeUnsupportedFormat, "unsupported file format"
	case errors.Is(err, convert.ErrUnsupportedPair):
		return http.StatusUnprocessableEntity, CodeUnsupportedPair, "conversion between these formats is not supported"
	case errors.Is(err, runner.ErrTimeout):
		return http.StatusGatewayTimeout, CodeTimeout, "conversion timed out"
	case errors.Is(err, convert.ErrExternalTool):
		return http.StatusInternalServerError, CodeExternalTool, "conversion failed"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "file not found or expired"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"error_code": code,
	})
}
