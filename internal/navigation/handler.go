package navigation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
)

// Handler exposes the navigation tree and breadcrumbs over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/navigation/tree", h.tree)
	rg.GET("/navigation/breadcrumbs", h.breadcrumbs)
}

func (h *Handler) tree(c *gin.Context) {
	tree, err := h.svc.BuildTree(c.Request.Context(), c.Query("branch"))
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *Handler) breadcrumbs(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		httputil.AbortWithError(c, apperrors.Validation("path query parameter is required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"breadcrumbs": h.svc.Breadcrumbs(path)})
}
