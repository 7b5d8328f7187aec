package metadata

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
)

// Handler exposes metadata search and stats over HTTP.
type Handler struct {
	indexer *Indexer
}

func NewHandler(indexer *Indexer) *Handler {
	return &Handler{indexer: indexer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/metadata/search", h.search)
	rg.GET("/metadata/stats", h.stats)
}

func (h *Handler) search(c *gin.Context) {
	var q struct {
		Query    string `form:"q"`
		Category string `form:"category"`
		Tags     string `form:"tags"`
		Team     string `form:"team"`
		Limit    int    `form:"limit"`
		Offset   int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.AbortWithError(c, apperrors.Validation("invalid query: %v", err))
		return
	}

	var tags []string
	if q.Tags != "" {
		tags = strings.Split(q.Tags, ",")
	}

	records, total, err := h.indexer.Search(c.Request.Context(), SearchFilter{
		Query:    q.Query,
		Category: q.Category,
		Tags:     tags,
		Team:     q.Team,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": records, "total": total})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.indexer.Stats(c.Request.Context())
	if err != nil {
		httputil.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
