package gitpub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.GitHubConfig{
		Token:    "test-token",
		Owner:    "acme",
		Repo:     "handbook",
		Branch:   "main",
		DocsRoot: "docs",
		BaseURL:  srv.URL,
	})
}

func TestGetFile(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/handbook/contents/docs/guide.md", r.URL.Path)
		require.Equal(t, "main", r.URL.Query().Get("ref"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"content":  base64.StdEncoding.EncodeToString([]byte("# Guide\n")),
			"encoding": "base64",
			"sha":      "abc123",
			"size":     8,
			"html_url": "https://example.com/guide.md",
		})
	})

	f, err := c.GetFile(context.Background(), "guide.md", "")
	require.NoError(t, err)
	require.Equal(t, "# Guide\n", f.Content)
	require.Equal(t, "abc123", f.SHA)
	require.Equal(t, "docs/guide.md", f.FullPath)
}

func TestGetFileNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := c.GetFile(context.Background(), "missing.md", "")
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestListFilesRecursesIntoDirectories(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/handbook/contents/docs":
			json.NewEncoder(w).Encode([]map[string]any{
				{"name": "intro.md", "path": "docs/intro.md", "sha": "s1", "size": 10, "type": "file", "html_url": "u1"},
				{"name": "api", "path": "docs/api", "sha": "s2", "type": "dir"},
			})
		case "/repos/acme/handbook/contents/docs/api":
			json.NewEncoder(w).Encode([]map[string]any{
				{"name": "auth.md", "path": "docs/api/auth.md", "sha": "s3", "size": 20, "type": "file", "html_url": "u3"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	entries, err := c.ListFiles(context.Background(), "", "", true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "intro.md", entries[0].Path)
	require.Equal(t, "api/auth.md", entries[1].Path)
	require.Equal(t, int64(20), entries[1].Size)
}

func TestListFilesShallowSkipsDirectories(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"name": "intro.md", "path": "docs/intro.md", "sha": "s1", "type": "file"},
			{"name": "api", "path": "docs/api", "sha": "s2", "type": "dir"},
		})
	})

	entries, err := c.ListFiles(context.Background(), "", "", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "intro.md", entries[0].Path)
}

func TestListFilesMissingDirectory(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	entries, err := c.ListFiles(context.Background(), "gone", "", true)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCreateFileGeneratesCommitMessage(t *testing.T) {
	var got struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{"sha": "blob1"},
			"commit":  map[string]any{"sha": "commit1", "html_url": "u", "message": got.Message},
		})
	})

	res, err := c.CreateFile(context.Background(), "api/auth.md", "# Authentication Guide\n\nBody.", "", "")
	require.NoError(t, err)
	require.Equal(t, "docs: Create Authentication Guide (api)", got.Message)
	require.Equal(t, "main", got.Branch)
	require.Equal(t, "commit1", res.Commit.SHA)

	decoded, err := base64.StdEncoding.DecodeString(got.Content)
	require.NoError(t, err)
	require.Contains(t, string(decoded), "Authentication Guide")
}

func TestUpdateFileFetchesSHAWhenMissing(t *testing.T) {
	var puts int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"content": base64.StdEncoding.EncodeToString([]byte("old")),
				"sha":     "oldsha",
			})
		case http.MethodPut:
			puts++
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "oldsha", body["sha"])
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]any{"sha": "blob2"},
				"commit":  map[string]any{"sha": "commit2"},
			})
		}
	})

	res, err := c.UpdateFile(context.Background(), "guide.md", "new content", "msg", "", "")
	require.NoError(t, err)
	require.Equal(t, 1, puts)
	require.Equal(t, "commit2", res.Commit.SHA)
}

func TestDeleteFile(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "sha1", body["sha"])
		json.NewEncoder(w).Encode(map[string]any{
			"commit": map[string]any{"sha": "commit3"},
		})
	})

	res, err := c.DeleteFile(context.Background(), "guide.md", "bye", "sha1", "")
	require.NoError(t, err)
	require.Equal(t, "commit3", res.Commit.SHA)
}

func TestMoveFile(t *testing.T) {
	var deleted bool
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"content": base64.StdEncoding.EncodeToString([]byte("# Old Guide\n")),
				"sha":     "oldsha",
			})
		case r.Method == http.MethodPut:
			require.Equal(t, "/repos/acme/handbook/contents/docs/new.md", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]any{"sha": "nb"},
				"commit":  map[string]any{"sha": "cmove"},
			})
		case r.Method == http.MethodDelete:
			deleted = true
			json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]any{"sha": "cdel"},
			})
		}
	})

	res, err := c.MoveFile(context.Background(), "old.md", "new.md", "", "")
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, "cmove", res.Commit.SHA)
}
