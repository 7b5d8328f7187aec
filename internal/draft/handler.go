package draft

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/middleware"
)

// Handler exposes the draft lifecycle over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the draft endpoints on rg. rg must already carry the
// auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/drafts", h.create)
	rg.GET("/drafts", h.list)
	rg.GET("/drafts/:id", h.get)
	rg.PATCH("/drafts/:id", h.update)
	rg.DELETE("/drafts/:id", h.delete)
	rg.POST("/drafts/:id/submit", h.submit)
	rg.POST("/drafts/:id/review", h.review)
	rg.POST("/drafts/:id/publish", h.publish)
}

func (h *Handler) create(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}

	d, err := h.svc.Create(c.Request.Context(), in, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) list(c *gin.Context) {
	var q struct {
		AuthorID string `form:"author_id"`
		Status   string `form:"status"`
		Limit    int    `form:"limit"`
		Offset   int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid query: %v", err))
		return
	}

	drafts, total, err := h.svc.List(c.Request.Context(), ListFilter{
		AuthorID: q.AuthorID,
		Status:   Status(q.Status),
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts, "total": total})
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) update(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}

	d, err := h.svc.Update(c.Request.Context(), c.Param("id"), in, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) delete(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submit(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in struct {
		ReviewerID string `json:"reviewerId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
			return
		}
	}

	d, err := h.svc.SubmitForReview(c.Request.Context(), c.Param("id"), actor, in.ReviewerID)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) review(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in struct {
		Decision string `json:"decision"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
		return
	}

	d, err := h.svc.Review(c.Request.Context(), c.Param("id"), Status(in.Decision), in.Comments, actor)
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) publish(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var in struct {
		Message string `json:"message"`
		Branch  string `json:"branch"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			httputil.AbortWithError(c, apperrors.Validation("invalid request body: %v", err))
			return
		}
	}

	res, err := h.svc.Publish(c.Request.Context(), c.Param("id"), actor, in.Message, in.Branch, c.ClientIP())
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
