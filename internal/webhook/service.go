// Package webhook ingests GitHub push deliveries so the metadata index stays
// in sync with commits made outside the API.
package webhook

import (
	"context"
	"strings"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/gitpub"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/metadata"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
)

// Commit is the slice of a push commit the sync needs.
type Commit struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// PushEvent is the GitHub push webhook payload.
type PushEvent struct {
	Ref        string `json:"ref"`
	Before     string `json:"before"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
	Commits []Commit `json:"commits"`
}

// Branch strips the refs/heads/ prefix from the push ref.
func (e *PushEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// AffectedDocs returns the markdown paths touched across all commits,
// deduplicated in first-seen order.
func (e *PushEvent) AffectedDocs() []string {
	seen := map[string]bool{}
	var docs []string
	add := func(paths []string) {
		for _, p := range paths {
			if strings.HasSuffix(p, ".md") && !seen[p] {
				seen[p] = true
				docs = append(docs, p)
			}
		}
	}
	for _, c := range e.Commits {
		add(c.Added)
		add(c.Modified)
		add(c.Removed)
	}
	return docs
}

func (e *PushEvent) removedSet() map[string]bool {
	removed := map[string]bool{}
	for _, c := range e.Commits {
		for _, p := range c.Removed {
			removed[p] = true
		}
	}
	return removed
}

// FileGetter fetches file contents from the repository.
type FileGetter interface {
	GetFile(ctx context.Context, path, branch string) (*gitpub.File, error)
}

// MetadataIndexer keeps the metadata cache current.
type MetadataIndexer interface {
	Reindex(ctx context.Context, path, content string, fm map[string]any, ref *metadata.GitRef) (*metadata.Record, error)
	Remove(ctx context.Context, path string) error
}

// AuditRecorder appends audit events.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service reconciles the metadata index with push events on the publish
// branch.
type Service struct {
	getter   FileGetter
	indexer  MetadataIndexer
	recorder AuditRecorder
	branch   string
}

func NewService(getter FileGetter, indexer MetadataIndexer, recorder AuditRecorder, branch string) *Service {
	if branch == "" {
		branch = "main"
	}
	return &Service{getter: getter, indexer: indexer, recorder: recorder, branch: branch}
}

// SyncResult reports what a push delivery changed in the index.
type SyncResult struct {
	Processed bool     `json:"processed"`
	Branch    string   `json:"branch"`
	Synced    []string `json:"synced"`
	Removed   []string `json:"removed"`
	Failed    []string `json:"failed,omitempty"`
}

// ProcessPush applies one push delivery. Pushes to branches other than the
// publish branch are acknowledged without processing. Per-file failures are
// logged and reported in the result; they never fail the delivery, since
// GitHub retries non-2xx responses and the commits themselves already landed.
func (s *Service) ProcessPush(ctx context.Context, deliveryID string, e *PushEvent) *SyncResult {
	res := &SyncResult{Branch: e.Branch(), Synced: []string{}, Removed: []string{}}
	if res.Branch != s.branch {
		logger.Debugf("webhook %s: ignoring push to %s", deliveryID, res.Branch)
		return res
	}
	res.Processed = true

	removed := e.removedSet()
	for _, path := range e.AffectedDocs() {
		if removed[path] {
			if err := s.indexer.Remove(ctx, path); err != nil {
				logger.Warnf("webhook %s: failed to drop metadata for %s: %v", deliveryID, path, err)
				res.Failed = append(res.Failed, path)
				continue
			}
			res.Removed = append(res.Removed, path)
			continue
		}

		file, err := s.getter.GetFile(ctx, path, s.branch)
		if err != nil {
			// deleted again after the push; drop it rather than serving
			// stale metadata
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				if rmErr := s.indexer.Remove(ctx, path); rmErr == nil {
					res.Removed = append(res.Removed, path)
					continue
				}
			}
			logger.Warnf("webhook %s: failed to fetch %s: %v", deliveryID, path, err)
			res.Failed = append(res.Failed, path)
			continue
		}

		ref := &metadata.GitRef{SHA: e.After, URL: file.URL}
		if _, err := s.indexer.Reindex(ctx, path, file.Content, nil, ref); err != nil {
			logger.Warnf("webhook %s: failed to reindex %s: %v", deliveryID, path, err)
			res.Failed = append(res.Failed, path)
			continue
		}
		res.Synced = append(res.Synced, path)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionWebhookReceived,
		ResourceType: "webhook",
		ResourceID:   deliveryID,
		Description:  "push to " + res.Branch + " by " + e.Pusher.Name,
		Metadata: map[string]any{
			"event":      "push",
			"deliveryId": deliveryID,
			"branch":     res.Branch,
			"pusher":     e.Pusher.Name,
			"repository": e.Repository.FullName,
			"commits":    len(e.Commits),
			"synced":     len(res.Synced),
			"removed":    len(res.Removed),
			"failed":     len(res.Failed),
		},
		Success: len(res.Failed) == 0,
	})
	return res
}
