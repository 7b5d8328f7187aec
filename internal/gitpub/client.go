// Package gitpub publishes documents to a Git hosting provider. The canonical
// implementation speaks the GitHub contents API; services depend on the
// Publisher interface so tests can substitute fakes.
package gitpub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/config"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/markdown"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
)

// File is a document fetched from the repository.
type File struct {
	Path     string `json:"path"`
	FullPath string `json:"fullPath"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// Entry is one file in a repository directory listing. Paths are relative to
// the docs root.
type Entry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	SHA  string `json:"sha"`
	URL  string `json:"url"`
}

// Commit identifies the commit a change produced.
type Commit struct {
	SHA     string `json:"sha"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// CommitResult is returned by every mutating operation.
type CommitResult struct {
	Path       string `json:"path"`
	FullPath   string `json:"fullPath"`
	Commit     Commit `json:"commit"`
	ContentSHA string `json:"contentSha"`
}

// Publisher is the narrow repository interface the document and draft
// services consume.
type Publisher interface {
	GetFile(ctx context.Context, path, branch string) (*File, error)
	CreateFile(ctx context.Context, path, content, message, branch string) (*CommitResult, error)
	UpdateFile(ctx context.Context, path, content, message, sha, branch string) (*CommitResult, error)
	DeleteFile(ctx context.Context, path, message, sha, branch string) (*CommitResult, error)
	MoveFile(ctx context.Context, oldPath, newPath, message, branch string) (*CommitResult, error)
}

const defaultBaseURL = "https://api.github.com"

// Client implements Publisher against the GitHub contents API.
type Client struct {
	base     string
	owner    string
	repo     string
	token    string
	branch   string
	docsRoot string
	httpc    *http.Client
	// GitHub applies secondary rate limits to content writes; pace them.
	lim *rate.Limiter
}

func NewClient(cfg *config.GitHubConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		owner:    cfg.Owner,
		repo:     cfg.Repo,
		token:    cfg.Token,
		branch:   cfg.Branch,
		docsRoot: strings.Trim(cfg.DocsRoot, "/"),
		httpc:    &http.Client{Timeout: 30 * time.Second},
		lim:      rate.NewLimiter(rate.Limit(5), 5),
	}
}

// fullPath prefixes the configured docs root unless already present.
func (c *Client) fullPath(path string) string {
	path = strings.TrimLeft(path, "/")
	if c.docsRoot == "" || strings.HasPrefix(path, c.docsRoot+"/") {
		return path
	}
	return c.docsRoot + "/" + path
}

func (c *Client) contentsURL(fullPath string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.base, c.owner, c.repo, fullPath)
}

func (c *Client) resolveBranch(branch string) string {
	if branch != "" {
		return branch
	}
	return c.branch
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) (int, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("github API status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	HTMLURL  string `json:"html_url"`
}

type commitResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
		Message string `json:"message"`
	} `json:"commit"`
}

// GetFile fetches a file and its blob SHA from the repository.
func (c *Client) GetFile(ctx context.Context, path, branch string) (*File, error) {
	full := c.fullPath(path)
	url := fmt.Sprintf("%s?ref=%s", c.contentsURL(full), c.resolveBranch(branch))

	var res contentsResponse
	status, err := c.do(ctx, http.MethodGet, url, nil, &res)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, apperrors.NotFound("document", path)
		}
		return nil, apperrors.GitPublish(fmt.Sprintf("failed to get file: %s", path), err)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(res.Content, "\n", ""))
	if err != nil {
		return nil, apperrors.GitPublish(fmt.Sprintf("failed to decode file: %s", path), err)
	}

	return &File{
		Path:     path,
		FullPath: full,
		Content:  string(decoded),
		SHA:      res.SHA,
		Size:     res.Size,
		URL:      res.HTMLURL,
	}, nil
}

type listItem struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Size    int64  `json:"size"`
	HTMLURL string `json:"html_url"`
	Type    string `json:"type"`
}

// ListFiles lists the files under dir, relative to the docs root. With
// recursive set it descends into subdirectories. Only files are returned;
// a missing directory yields an empty listing.
func (c *Client) ListFiles(ctx context.Context, dir, branch string, recursive bool) ([]Entry, error) {
	branch = c.resolveBranch(branch)
	full := strings.Trim(c.fullPath(dir), "/")
	url := fmt.Sprintf("%s?ref=%s", c.contentsURL(full), branch)

	var items []listItem
	status, err := c.do(ctx, http.MethodGet, url, nil, &items)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, apperrors.GitPublish(fmt.Sprintf("failed to list directory: %s", dir), err)
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		rel := c.relPath(it.Path)
		switch it.Type {
		case "file":
			entries = append(entries, Entry{Path: rel, Name: it.Name, Size: it.Size, SHA: it.SHA, URL: it.HTMLURL})
		case "dir":
			if recursive {
				sub, err := c.ListFiles(ctx, rel, branch, true)
				if err != nil {
					return nil, err
				}
				entries = append(entries, sub...)
			}
		}
	}
	return entries, nil
}

func (c *Client) relPath(full string) string {
	if c.docsRoot == "" {
		return full
	}
	return strings.TrimPrefix(full, c.docsRoot+"/")
}

// CreateFile creates a new file; the commit message is generated from the
// content title when not supplied.
func (c *Client) CreateFile(ctx context.Context, path, content, message, branch string) (*CommitResult, error) {
	full := c.fullPath(path)
	branch = c.resolveBranch(branch)
	if message == "" {
		message = CommitMessage(ActionCreate, path, markdown.Title(content), "")
	}

	logger.Infof("creating file %s on %s", full, branch)

	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	var res commitResponse
	if _, err := c.do(ctx, http.MethodPut, c.contentsURL(full), body, &res); err != nil {
		return nil, apperrors.GitPublish(fmt.Sprintf("failed to create file: %s", path), err)
	}
	return c.result(path, full, &res), nil
}

// UpdateFile replaces an existing file. The current blob SHA is fetched when
// not supplied; a missing path surfaces as NotFound.
func (c *Client) UpdateFile(ctx context.Context, path, content, message, sha, branch string) (*CommitResult, error) {
	full := c.fullPath(path)
	branch = c.resolveBranch(branch)

	if sha == "" {
		existing, err := c.GetFile(ctx, path, branch)
		if err != nil {
			return nil, err
		}
		sha = existing.SHA
	}
	if message == "" {
		message = CommitMessage(ActionUpdate, path, markdown.Title(content), "")
	}

	logger.Infof("updating file %s on %s", full, branch)

	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
		"sha":     sha,
	}
	var res commitResponse
	status, err := c.do(ctx, http.MethodPut, c.contentsURL(full), body, &res)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, apperrors.NotFound("document", path)
		}
		return nil, apperrors.GitPublish(fmt.Sprintf("failed to update file: %s", path), err)
	}
	return c.result(path, full, &res), nil
}

// DeleteFile removes a file from the repository.
func (c *Client) DeleteFile(ctx context.Context, path, message, sha, branch string) (*CommitResult, error) {
	full := c.fullPath(path)
	branch = c.resolveBranch(branch)

	if sha == "" {
		existing, err := c.GetFile(ctx, path, branch)
		if err != nil {
			return nil, err
		}
		sha = existing.SHA
	}
	if message == "" {
		message = CommitMessage(ActionDelete, path, "", "")
	}

	logger.Infof("deleting file %s on %s", full, branch)

	body := map[string]string{
		"message": message,
		"branch":  branch,
		"sha":     sha,
	}
	var res commitResponse
	status, err := c.do(ctx, http.MethodDelete, c.contentsURL(full), body, &res)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, apperrors.NotFound("document", path)
		}
		return nil, apperrors.GitPublish(fmt.Sprintf("failed to delete file: %s", path), err)
	}
	return c.result(path, full, &res), nil
}

// MoveFile relocates a file by creating it at the new path and deleting the
// old one. The contents API has no rename primitive, so this produces two
// commits.
func (c *Client) MoveFile(ctx context.Context, oldPath, newPath, message, branch string) (*CommitResult, error) {
	existing, err := c.GetFile(ctx, oldPath, branch)
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = CommitMessage(ActionMove, oldPath, markdown.Title(existing.Content), newPath)
	}

	created, err := c.CreateFile(ctx, newPath, existing.Content, message, branch)
	if err != nil {
		return nil, err
	}
	if _, err := c.DeleteFile(ctx, oldPath, message, existing.SHA, branch); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) result(path, full string, res *commitResponse) *CommitResult {
	return &CommitResult{
		Path:     path,
		FullPath: full,
		Commit: Commit{
			SHA:     res.Commit.SHA,
			URL:     res.Commit.HTMLURL,
			Message: res.Commit.Message,
		},
		ContentSHA: res.Content.SHA,
	}
}
