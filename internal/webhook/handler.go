package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/httputil"
)

// Handler receives GitHub webhook deliveries. The endpoint is not behind the
// auth middleware; deliveries authenticate with an HMAC signature over the
// raw body instead.
type Handler struct {
	svc    *Service
	secret string
}

func NewHandler(svc *Service, secret string) *Handler {
	return &Handler{svc: svc, secret: secret}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/github", h.github)
}

func (h *Handler) github(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.AbortWithError(c, apperrors.Validation("failed to read request body"))
		return
	}
	if !verifySignature(h.secret, body, c.GetHeader("X-Hub-Signature-256")) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	switch event := c.GetHeader("X-GitHub-Event"); event {
	case "ping":
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	case "push":
		var e PushEvent
		if err := json.Unmarshal(body, &e); err != nil {
			httputil.AbortWithError(c, apperrors.Validation("invalid push payload: %v", err))
			return
		}
		res := h.svc.ProcessPush(c.Request.Context(), c.GetHeader("X-GitHub-Delivery"), &e)
		c.JSON(http.StatusOK, res)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "event ignored", "event": event})
	}
}

// verifySignature checks the X-Hub-Signature-256 HMAC over the raw body.
// Comparison is constant time.
func verifySignature(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
