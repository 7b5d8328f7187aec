package document

import (
	"context"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/docpath"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/frontmatter"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/gitpub"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/metadata"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
)

// MetadataIndexer is the slice of the metadata service document operations
// need.
type MetadataIndexer interface {
	Reindex(ctx context.Context, path, content string, fm map[string]any, ref *metadata.GitRef) (*metadata.Record, error)
	Remove(ctx context.Context, path string) error
}

// AuditRecorder appends audit events.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Document is a published file with its front matter split out.
type Document struct {
	Path        string         `json:"path"`
	Content     string         `json:"content"`
	FrontMatter map[string]any `json:"frontMatter,omitempty"`
	SHA         string         `json:"sha"`
	Size        int64          `json:"size"`
	URL         string         `json:"url,omitempty"`
}

// WriteInput carries the fields for creating or updating a document.
type WriteInput struct {
	Path        string         `json:"path"`
	Content     string         `json:"content"`
	FrontMatter map[string]any `json:"frontMatter"`
	Message     string         `json:"message"`
	Branch      string         `json:"branch"`
}

// Service manages documents that live directly in the Git repository,
// bypassing the draft workflow. Every mutation keeps the metadata cache in
// sync.
type Service struct {
	pub      gitpub.Publisher
	indexer  MetadataIndexer
	recorder AuditRecorder
}

func NewService(pub gitpub.Publisher, indexer MetadataIndexer, recorder AuditRecorder) *Service {
	return &Service{pub: pub, indexer: indexer, recorder: recorder}
}

func (s *Service) Get(ctx context.Context, path, branch string) (*Document, error) {
	if err := docpath.Validate(path); err != nil {
		return nil, err
	}
	f, err := s.pub.GetFile(ctx, path, branch)
	if err != nil {
		return nil, err
	}
	fm, body := frontmatter.Split(f.Content)
	return &Document{
		Path:        f.Path,
		Content:     body,
		FrontMatter: fm,
		SHA:         f.SHA,
		Size:        f.Size,
		URL:         f.URL,
	}, nil
}

func (s *Service) Create(ctx context.Context, in WriteInput, actor *models.User) (*Document, error) {
	if err := s.validateWrite(in, actor); err != nil {
		return nil, err
	}

	existing, err := s.pub.GetFile(ctx, in.Path, in.Branch)
	if err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.InvalidTransition("document already exists", "present", "absent")
	}

	content, err := s.combine(in)
	if err != nil {
		return nil, err
	}
	res, err := s.pub.CreateFile(ctx, in.Path, content, in.Message, in.Branch)
	if err != nil {
		return nil, err
	}

	s.sync(ctx, in.Path, content, in.FrontMatter, res)
	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDocumentCreate,
		ActorID:      actor.ID,
		ResourceType: "document",
		ResourceID:   in.Path,
		Description:  "created document " + in.Path,
		Metadata:     map[string]any{"commitSha": res.Commit.SHA},
		Success:      true,
	})
	return s.Get(ctx, in.Path, in.Branch)
}

func (s *Service) Update(ctx context.Context, in WriteInput, actor *models.User) (*Document, error) {
	if err := s.validateWrite(in, actor); err != nil {
		return nil, err
	}

	existing, err := s.pub.GetFile(ctx, in.Path, in.Branch)
	if err != nil {
		return nil, err
	}

	content, err := s.combine(in)
	if err != nil {
		return nil, err
	}
	res, err := s.pub.UpdateFile(ctx, in.Path, content, in.Message, existing.SHA, in.Branch)
	if err != nil {
		return nil, err
	}

	s.sync(ctx, in.Path, content, in.FrontMatter, res)
	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDocumentUpdate,
		ActorID:      actor.ID,
		ResourceType: "document",
		ResourceID:   in.Path,
		Description:  "updated document " + in.Path,
		Metadata:     map[string]any{"commitSha": res.Commit.SHA},
		Success:      true,
	})
	return s.Get(ctx, in.Path, in.Branch)
}

func (s *Service) Delete(ctx context.Context, path, message, branch string, actor *models.User) error {
	if !actor.Role.AtLeast(models.RoleEditor) {
		return apperrors.PermissionDenied("editor role required to delete documents")
	}
	if err := docpath.Validate(path); err != nil {
		return err
	}

	existing, err := s.pub.GetFile(ctx, path, branch)
	if err != nil {
		return err
	}
	if _, err := s.pub.DeleteFile(ctx, path, message, existing.SHA, branch); err != nil {
		return err
	}

	// No orphaned metadata after the source file is gone.
	if err := s.indexer.Remove(ctx, path); err != nil {
		logger.Errorf("failed to remove metadata for %s: %v", path, err)
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDocumentDelete,
		ActorID:      actor.ID,
		ResourceType: "document",
		ResourceID:   path,
		Description:  "deleted document " + path,
		Success:      true,
	})
	return nil
}

// Move relocates a document and rekeys its metadata to the new path.
func (s *Service) Move(ctx context.Context, oldPath, newPath, message, branch string, actor *models.User) (*Document, error) {
	if !actor.Role.AtLeast(models.RoleEditor) {
		return nil, apperrors.PermissionDenied("editor role required to move documents")
	}
	if err := docpath.Validate(oldPath); err != nil {
		return nil, err
	}
	if err := docpath.Validate(newPath); err != nil {
		return nil, err
	}
	if oldPath == newPath {
		return nil, apperrors.Validation("source and destination paths are the same")
	}

	res, err := s.pub.MoveFile(ctx, oldPath, newPath, message, branch)
	if err != nil {
		return nil, err
	}

	moved, err := s.pub.GetFile(ctx, newPath, branch)
	if err == nil {
		fm, _ := frontmatter.Split(moved.Content)
		s.sync(ctx, newPath, moved.Content, fm, res)
	}
	if err := s.indexer.Remove(ctx, oldPath); err != nil {
		logger.Errorf("failed to remove metadata for %s: %v", oldPath, err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDocumentMove,
		ActorID:      actor.ID,
		ResourceType: "document",
		ResourceID:   newPath,
		Description:  "moved document " + oldPath + " to " + newPath,
		OldValue:     map[string]any{"path": oldPath},
		NewValue:     map[string]any{"path": newPath},
		Success:      true,
	})
	return s.Get(ctx, newPath, branch)
}

func (s *Service) validateWrite(in WriteInput, actor *models.User) error {
	if !actor.Role.AtLeast(models.RoleEditor) {
		return apperrors.PermissionDenied("editor role required to modify documents")
	}
	if in.Content == "" {
		return apperrors.Validation("content is required")
	}
	return docpath.Validate(in.Path)
}

func (s *Service) combine(in WriteInput) (string, error) {
	if len(in.FrontMatter) == 0 {
		return in.Content, nil
	}
	content, err := frontmatter.Combine(in.FrontMatter, in.Content)
	if err != nil {
		return "", apperrors.Internal("failed to serialize front matter", err)
	}
	return content, nil
}

func (s *Service) sync(ctx context.Context, path, content string, fm map[string]any, res *gitpub.CommitResult) {
	ref := &metadata.GitRef{SHA: res.Commit.SHA, URL: res.Commit.URL}
	if _, err := s.indexer.Reindex(ctx, path, content, fm, ref); err != nil {
		logger.Errorf("metadata reindex failed for %s: %v", path, err)
	}
}
