package media

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/middleware"
)

// Handler exposes media upload, listing and deletion over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/media", h.upload)
	rg.GET("/media", h.list)
	rg.DELETE("/media/*key", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		httputil.AbortWithError(c, apperrors.Validation("file field is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		httputil.AbortWithError(c, apperrors.Internal("failed to open upload", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		httputil.AbortWithError(c, apperrors.Internal("failed to read upload", err))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	obj, err := h.svc.Upload(c.Request.Context(), fh.Filename, data, contentType, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, obj)
}

func (h *Handler) list(c *gin.Context) {
	objects, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objects": objects})
}

func (h *Handler) delete(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if err := h.svc.Delete(c.Request.Context(), key, actor); err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
