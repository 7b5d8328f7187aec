package document

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/middleware"
)

// Handler exposes published-document operations over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.create)
	rg.POST("/documents/move", h.move)
	rg.GET("/documents/*path", h.get)
	rg.PUT("/documents/*path", h.update)
	rg.DELETE("/documents/*path", h.delete)
}

func pathParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), pathParam(c), c.Query("branch"))
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) create(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in WriteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), in, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) update(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in WriteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}
	in.Path = pathParam(c)

	doc, err := h.svc.Update(c.Request.Context(), in, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) delete(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), pathParam(c), c.Query("message"), c.Query("branch"), actor); err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) move(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in struct {
		OldPath string `json:"oldPath"`
		NewPath string `json:"newPath"`
		Message string `json:"message"`
		Branch  string `json:"branch"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}

	doc, err := h.svc.Move(c.Request.Context(), in.OldPath, in.NewPath, in.Message, in.Branch, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
