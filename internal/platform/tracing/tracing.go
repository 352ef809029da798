// Package tracing extracts or generates x-request-id/x-correlation-id on
// every inbound request and threads them through context.Context so that
// the peer client (§4.3) and the event fabric (§4.4) can propagate them
// downstream, generalized from request-scoped
// src/diplomat/middleware/request_context.go idiom.
package tracing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderCorrelationID = "X-Correlation-Id"

	ginRequestIDKey     = "trace.requestId"
	ginCorrelationIDKey = "trace.correlationId"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxCorrelationID
	ctxBearerToken
)

// Middleware enforces X-Request-Id/X-Correlation-Id on mutating requests
// (absence yields 400 naming the missing header, per §6) and generates
// them for read-only requests where the headers are optional.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		correlationID := c.GetHeader(HeaderCorrelationID)

		if isMutating(c.Request.Method) {
			if requestID == "" {
				rejectMissingHeader(c, HeaderRequestID)
				return
			}
			if correlationID == "" {
				rejectMissingHeader(c, HeaderCorrelationID)
				return
			}
		}

		if requestID == "" {
			requestID = uuid.NewString()
		}
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Set(ginRequestIDKey, requestID)
		c.Set(ginCorrelationIDKey, correlationID)

		ctx := context.WithValue(c.Request.Context(), ctxRequestID, requestID)
		ctx = context.WithValue(ctx, ctxCorrelationID, correlationID)
		if token, ok := bearerToken(c); ok {
			ctx = context.WithValue(ctx, ctxBearerToken, token)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Writer.Header().Set(HeaderCorrelationID, correlationID)

		c.Next()
	}
}

// rejectMissingHeader writes the canonical error body directly instead of
// going through apierror.Respond: apierror itself depends on this package
// for the traceId field, so the dependency cannot run the other way.
func rejectMissingHeader(c *gin.Context, header string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    http.StatusBadRequest,
		"error":     "VALIDATION_ERROR",
		"message":   "missing required header: " + header,
		"path":      c.Request.URL.Path,
		"traceId":   "",
	})
}

func isMutating(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	default:
		return false
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):], true
	}
	return "", false
}

// RequestID reads the request id bound by Middleware, falling back to the
// empty string outside of a traced request (e.g. in unit tests).
func RequestID(c *gin.Context) string {
	if v, ok := c.Get(ginRequestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func CorrelationID(c *gin.Context) string {
	if v, ok := c.Get(ginCorrelationIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequestIDFromContext / CorrelationIDFromContext let non-gin layers (the
// peer client, the event publisher) read the propagated trace IDs off a
// plain context.Context.
func RequestIDFromContext(ctx context.Context) string {
	return stringOrEmpty(ctx.Value(ctxRequestID))
}

func CorrelationIDFromContext(ctx context.Context) string {
	return stringOrEmpty(ctx.Value(ctxCorrelationID))
}

func BearerTokenFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxBearerToken)
	s, ok := v.(string)
	return s, ok
}

func stringOrEmpty(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
