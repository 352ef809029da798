package apierror

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

// Body is the canonical error body of §6: { timestamp, status, error,
// message, path, traceId, errors? }.
type Body struct {
	Timestamp string           `json:"timestamp"`
	Status    int              `json:"status"`
	Error     string           `json:"error"`
	Message   string           `json:"message"`
	Path      string           `json:"path"`
	TraceID   string           `json:"traceId"`
	Errors    []FieldViolation `json:"errors,omitempty"`
}

// Respond writes the typed error (or any error, wrapped as INTERNAL) as the
// canonical JSON body with the matching HTTP status. It is the single
// funnel every handler's failure path goes through.
func Respond(c *gin.Context, log *logging.Logger, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal("internal server error")
		if log != nil {
			log.Error("unmapped error reached the error mapping layer", err, logging.Fields{
				"path": c.Request.URL.Path,
			})
		}
	}

	body := Body{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    apiErr.Status,
		Error:     string(apiErr.Kind),
		Message:   apiErr.Message,
		Path:      c.Request.URL.Path,
		TraceID:   tracing.RequestID(c),
		Errors:    apiErr.Fields,
	}

	if apiErr.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed with server error", err, logging.Fields{
			"path":   c.Request.URL.Path,
			"status": apiErr.Status,
		})
	}

	c.AbortWithStatusJSON(apiErr.Status, body)
}
