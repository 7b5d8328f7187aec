// Package httputil is the single translation layer from the error taxonomy
// to HTTP responses.
package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
)

func statusFor(k apperrors.Kind) int {
	switch k {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindPermissionDenied:
		return http.StatusForbidden
	case apperrors.KindInvalidTransition:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindGitPublish, apperrors.KindStorage:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// AbortWithError writes the taxonomy-mapped response and stops the handler
// chain. Internal errors get a correlation id and a generic body so nothing
// leaks to the client.
func AbortWithError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)

	if kind == apperrors.KindInternal {
		cid := uuid.NewString()
		logger.Errorf("internal error [%s] %s %s: %v", cid, c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":          "internal server error",
			"correlation_id": cid,
		})
		return
	}

	body := gin.H{"error": err.Error()}
	var e *apperrors.Error
	if errors.As(err, &e) {
		body["error"] = e.Message
		if e.Details != nil {
			body["details"] = e.Details
		}
	}
	c.AbortWithStatusJSON(statusFor(kind), body)
}
