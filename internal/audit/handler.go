package audit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
)

// Handler exposes the audit trail for administrators.
type Handler struct {
	recorder *Recorder
}

func NewHandler(recorder *Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// RegisterRoutes mounts the audit endpoint. The caller is responsible for
// guarding rg with an admin role check.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit", h.list)
}

func (h *Handler) list(c *gin.Context) {
	var q struct {
		ActorID      string `form:"actor_id"`
		Action       string `form:"action"`
		ResourceType string `form:"resource_type"`
		ResourceID   string `form:"resource_id"`
		Since        string `form:"since"`
		Until        string `form:"until"`
		Limit        int    `form:"limit"`
		Offset       int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid query: %v", err))
		return
	}

	f := Filter{
		ActorID:      q.ActorID,
		Action:       Action(q.Action),
		ResourceType: q.ResourceType,
		ResourceID:   q.ResourceID,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if q.Since != "" {
		ts, err := time.Parse(time.RFC3339, q.Since)
		if err != nil {
			httputil.AbortWithError(c, apperrors.Validation("since must be RFC3339"))
			return
		}
		f.Since = &ts
	}
	if q.Until != "" {
		ts, err := time.Parse(time.RFC3339, q.Until)
		if err != nil {
			httputil.AbortWithError(c, apperrors.Validation("until must be RFC3339"))
			return
		}
		f.Until = &ts
	}

	records, total, err := h.recorder.List(c.Request.Context(), f)
	if err != nil {
		httputil.AbortWithError(c, apperrors.Internal("failed to list audit records", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "total": total})
}
