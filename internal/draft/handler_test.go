package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/metadata"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

// actorMiddleware injects a fixed user, standing in for the auth middleware.
func actorMiddleware(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", u)
		c.Next()
	}
}

func newRouter(svc *Service, u *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(actorMiddleware(u))
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func newTestService() *Service {
	return NewService(
		NewMemoryRepository(),
		newFakePublisher(),
		metadata.NewIndexer(metadata.NewMemoryRepository()),
		audit.NewRecorder(audit.NewMemoryRepository()),
	)
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateAndGet(t *testing.T) {
	svc := newTestService()
	r := newRouter(svc, author)

	w := doJSON(t, r, http.MethodPost, "/api/v1/drafts", CreateInput{
		Title:      "Handler Test",
		TargetPath: "docs/test.md",
		Content:    "# Handler Test\n\nbody",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created Draft
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, StatusDraft, created.Status)

	w = doJSON(t, r, http.MethodGet, "/api/v1/drafts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerErrorMapping(t *testing.T) {
	svc := newTestService()
	r := newRouter(svc, author)

	// invalid path -> 400
	w := doJSON(t, r, http.MethodPost, "/api/v1/drafts", CreateInput{
		Title: "Bad", TargetPath: "../x.md", Content: "x",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// unknown id -> 404
	w = doJSON(t, r, http.MethodGet, "/api/v1/drafts/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// review before submission -> 409
	created := doJSON(t, r, http.MethodPost, "/api/v1/drafts", CreateInput{
		Title: "Flow", TargetPath: "docs/flow.md", Content: "x",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var d Draft
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &d))

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/drafts/%s/review", d.ID), gin.H{"decision": "approved"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "details")

	// viewer reviewing -> 403
	rv := newRouter(svc, viewer)
	w = doJSON(t, rv, http.MethodPost, fmt.Sprintf("/api/v1/drafts/%s/review", d.ID), gin.H{"decision": "approved"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// any authenticated actor may create
	w = doJSON(t, rv, http.MethodPost, "/api/v1/drafts", CreateInput{
		Title: "Viewer Draft", TargetPath: "docs/viewer-draft.md", Content: "x",
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestHandlerLifecycleFlow(t *testing.T) {
	svc := newTestService()
	authorRouter := newRouter(svc, author)
	editorRouter := newRouter(svc, editor)

	created := doJSON(t, authorRouter, http.MethodPost, "/api/v1/drafts", CreateInput{
		Title: "Flow Doc", TargetPath: "docs/flow-doc.md", Content: "# Flow Doc\n\nbody",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var d Draft
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &d))

	w := doJSON(t, authorRouter, http.MethodPost, fmt.Sprintf("/api/v1/drafts/%s/submit", d.ID), gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, editorRouter, http.MethodPost, fmt.Sprintf("/api/v1/drafts/%s/review", d.ID), gin.H{
		"decision": "approved", "comments": "lgtm",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, authorRouter, http.MethodPost, fmt.Sprintf("/api/v1/drafts/%s/publish", d.ID), gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	var res PublishResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, StatusApproved, res.Draft.Status)
	require.NotNil(t, res.Draft.PublishedAt)

	w = doJSON(t, authorRouter, http.MethodGet, "/api/v1/drafts?status=approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), d.ID)
}

func TestHandlerListAndDelete(t *testing.T) {
	svc := newTestService()
	r := newRouter(svc, author)

	created := doJSON(t, r, http.MethodPost, "/api/v1/drafts", CreateInput{
		Title: "Temp", TargetPath: "docs/temp.md", Content: "x",
	})
	var d Draft
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &d))

	w := doJSON(t, r, http.MethodGet, "/api/v1/drafts?author_id="+author.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/drafts/"+d.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/drafts/"+d.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
