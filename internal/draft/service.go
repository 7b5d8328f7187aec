package draft

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/docpath"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/frontmatter"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/gitpub"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/metadata"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/metrics"
)

// MetadataIndexer is the slice of the metadata service the publish pipeline
// needs.
type MetadataIndexer interface {
	Reindex(ctx context.Context, path, content string, fm map[string]any, ref *metadata.GitRef) (*metadata.Record, error)
}

// AuditRecorder appends audit events. Implementations never fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service implements the draft lifecycle: create, revise, submit for review,
// approve or reject, publish to Git.
type Service struct {
	repo     Repository
	pub      gitpub.Publisher
	indexer  MetadataIndexer
	recorder AuditRecorder
}

func NewService(repo Repository, pub gitpub.Publisher, indexer MetadataIndexer, recorder AuditRecorder) *Service {
	return &Service{repo: repo, pub: pub, indexer: indexer, recorder: recorder}
}

// CreateInput holds the fields for a new draft.
type CreateInput struct {
	Title       string `json:"title"`
	TargetPath  string `json:"targetPath"`
	Content     string `json:"content"`
	FrontMatter string `json:"frontMatter"`
}

// UpdateInput holds a partial revision. Nil fields are left unchanged.
// ExpectedVersion, when set, makes the update conditional on the stored
// version.
type UpdateInput struct {
	Title           *string `json:"title"`
	TargetPath      *string `json:"targetPath"`
	Content         *string `json:"content"`
	FrontMatter     *string `json:"frontMatter"`
	ExpectedVersion *int    `json:"expectedVersion"`
}

// PublishResult reports a successful publish.
type PublishResult struct {
	Draft    *Draft           `json:"draft"`
	Commit   gitpub.Commit    `json:"commit"`
	Metadata *metadata.Record `json:"metadata,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor *models.User) (*Draft, error) {
	if in.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if in.Content == "" {
		return nil, apperrors.Validation("content is required")
	}
	if err := docpath.Validate(in.TargetPath); err != nil {
		return nil, err
	}
	if in.FrontMatter != "" {
		if _, err := frontmatter.Parse(in.FrontMatter); err != nil {
			return nil, apperrors.Validation("invalid front matter: %v", err)
		}
	}

	now := time.Now().UTC()
	d := &Draft{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Slug:        docpath.Slug(in.Title),
		TargetPath:  in.TargetPath,
		Content:     in.Content,
		FrontMatter: in.FrontMatter,
		Status:      StatusDraft,
		Version:     1,
		AuthorID:    actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to create draft", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDraftCreate,
		ActorID:      actor.ID,
		ResourceType: "draft",
		ResourceID:   d.ID,
		Description:  "created draft " + d.Title,
		NewValue:     map[string]any{"title": d.Title, "targetPath": d.TargetPath, "status": string(d.Status)},
		Success:      true,
	})
	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Draft, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to load draft", err)
	}
	if d == nil {
		return nil, apperrors.NotFound("draft", id)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Draft, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperrors.Validation("unknown status %q", f.Status)
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	drafts, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list drafts", err)
	}
	return drafts, total, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actor *models.User) (*Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(d, actor); err != nil {
		return nil, err
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion != d.Version {
		return nil, apperrors.InvalidTransition("version mismatch",
			strconv.Itoa(d.Version), strconv.Itoa(*in.ExpectedVersion))
	}

	old := map[string]any{"title": d.Title, "targetPath": d.TargetPath, "version": d.Version, "status": string(d.Status)}
	changed := false

	if in.Title != nil && *in.Title != d.Title {
		if *in.Title == "" {
			return nil, apperrors.Validation("title is required")
		}
		d.Title = *in.Title
		d.Slug = docpath.Slug(d.Title)
		changed = true
	}
	if in.TargetPath != nil && *in.TargetPath != d.TargetPath {
		if err := docpath.Validate(*in.TargetPath); err != nil {
			return nil, err
		}
		d.TargetPath = *in.TargetPath
		changed = true
	}
	if in.Content != nil && *in.Content != d.Content {
		if *in.Content == "" {
			return nil, apperrors.Validation("content is required")
		}
		d.Content = *in.Content
		changed = true
	}
	if in.FrontMatter != nil && *in.FrontMatter != d.FrontMatter {
		if *in.FrontMatter != "" {
			if _, err := frontmatter.Parse(*in.FrontMatter); err != nil {
				return nil, apperrors.Validation("invalid front matter: %v", err)
			}
		}
		d.FrontMatter = *in.FrontMatter
		changed = true
	}

	if !changed {
		return d, nil
	}

	// Revising an already reviewed draft invalidates the review: the new
	// content has not been looked at.
	if d.Status == StatusApproved || d.Status == StatusRejected {
		d.Status = StatusDraft
		d.ReviewerID = ""
		d.ReviewComments = ""
		d.ReviewedAt = nil
		d.SubmittedAt = nil
	}

	d.Version++
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to update draft", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDraftUpdate,
		ActorID:      actor.ID,
		ResourceType: "draft",
		ResourceID:   d.ID,
		Description:  "updated draft " + d.Title,
		OldValue:     old,
		NewValue:     map[string]any{"title": d.Title, "targetPath": d.TargetPath, "version": d.Version, "status": string(d.Status)},
		Success:      true,
	})
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string, actor *models.User) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwner(d, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal("failed to delete draft", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDraftDelete,
		ActorID:      actor.ID,
		ResourceType: "draft",
		ResourceID:   d.ID,
		Description:  "deleted draft " + d.Title,
		OldValue:     map[string]any{"title": d.Title, "targetPath": d.TargetPath, "status": string(d.Status)},
		Success:      true,
	})
	return nil
}

// SubmitForReview moves a draft into review. Only the author can submit.
func (s *Service) SubmitForReview(ctx context.Context, id string, actor *models.User, reviewerID string) (*Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.AuthorID != actor.ID {
		return nil, apperrors.PermissionDenied("only the author can submit a draft for review")
	}
	if d.Status != StatusDraft {
		return nil, apperrors.InvalidTransition("draft cannot be submitted for review",
			string(d.Status), string(StatusDraft))
	}

	now := time.Now().UTC()
	d.Status = StatusInReview
	d.SubmittedAt = &now
	d.ReviewerID = reviewerID
	d.UpdatedAt = now
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to submit draft", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDraftSubmit,
		ActorID:      actor.ID,
		ResourceType: "draft",
		ResourceID:   d.ID,
		Description:  "submitted draft " + d.Title + " for review",
		Success:      true,
	})
	return d, nil
}

// Review records an approve or reject decision on a draft in review.
func (s *Service) Review(ctx context.Context, id string, decision Status, comments string, reviewer *models.User) (*Draft, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, apperrors.Validation("decision must be %q or %q", StatusApproved, StatusRejected)
	}
	if !reviewer.Role.AtLeast(models.RoleEditor) {
		return nil, apperrors.PermissionDenied("editor role required to review drafts")
	}
	if decision == StatusRejected && comments == "" {
		return nil, apperrors.Validation("comments are required when rejecting a draft")
	}

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusInReview {
		return nil, apperrors.InvalidTransition("draft is not in review",
			string(d.Status), string(StatusInReview))
	}

	now := time.Now().UTC()
	d.Status = decision
	d.ReviewerID = reviewer.ID
	d.ReviewComments = comments
	d.ReviewedAt = &now
	d.UpdatedAt = now
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to record review", err)
	}

	action := audit.ActionDraftApprove
	if decision == StatusRejected {
		action = audit.ActionDraftReject
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:       action,
		ActorID:      reviewer.ID,
		ResourceType: "draft",
		ResourceID:   d.ID,
		Description:  "reviewed draft " + d.Title + ": " + string(decision),
		Metadata:     map[string]any{"comments": comments},
		Success:      true,
	})
	return d, nil
}

// Publish writes the draft's content to the Git repository and reindexes
// metadata. Allowed from approved or draft status. The draft row is only
// mutated after the Git write succeeds.
func (s *Service) Publish(ctx context.Context, id string, actor *models.User, commitMessage, branch, ip string) (*PublishResult, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(d, actor); err != nil {
		return nil, err
	}
	if d.Status != StatusApproved && d.Status != StatusDraft {
		return nil, apperrors.InvalidTransition("draft cannot be published",
			string(d.Status), string(StatusApproved))
	}

	fm, content, err := s.serialize(d)
	if err != nil {
		return nil, err
	}

	res, err := s.writeToGit(ctx, d.TargetPath, content, commitMessage, branch)
	if err != nil {
		metrics.DraftPublishes.WithLabelValues("git_error").Inc()
		s.recorder.Record(ctx, audit.Entry{
			Action:       audit.ActionDocumentPublish,
			ActorID:      actor.ID,
			ResourceType: "draft",
			ResourceID:   d.ID,
			Description:  "publish failed for " + d.TargetPath,
			Success:      false,
			ErrorMessage: err.Error(),
			IPAddress:    ip,
		})
		return nil, err
	}

	ref := &metadata.GitRef{SHA: res.Commit.SHA, URL: res.Commit.URL}
	rec, err := s.indexer.Reindex(ctx, d.TargetPath, content, fm, ref)
	if err != nil {
		// The document is already live; a stale search index is not worth
		// failing the publish over.
		logger.Errorf("metadata reindex failed for %s: %v", d.TargetPath, err)
	}

	now := time.Now().UTC()
	d.Status = StatusApproved
	d.PublishedAt = &now
	d.UpdatedAt = now
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to mark draft published", err)
	}

	metrics.DraftPublishes.WithLabelValues("success").Inc()
	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionDocumentPublish,
		ActorID:      actor.ID,
		ResourceType: "document",
		ResourceID:   d.TargetPath,
		Description:  "published " + d.Title + " to " + d.TargetPath,
		Metadata:     map[string]any{"draftId": d.ID, "commitSha": res.Commit.SHA},
		Success:      true,
		IPAddress:    ip,
	})
	logger.Infof("published draft %s to %s (commit %s)", d.ID, d.TargetPath, res.Commit.SHA)

	return &PublishResult{Draft: d, Commit: res.Commit, Metadata: rec}, nil
}

// serialize combines front matter and body into the file content and returns
// the parsed front matter for the indexer.
func (s *Service) serialize(d *Draft) (map[string]any, string, error) {
	if d.FrontMatter == "" {
		return nil, d.Content, nil
	}
	fm, err := frontmatter.Parse(d.FrontMatter)
	if err != nil {
		return nil, "", apperrors.Validation("invalid front matter: %v", err)
	}
	if _, ok := fm["title"]; !ok {
		fm["title"] = d.Title
	}
	content, err := frontmatter.Combine(fm, d.Content)
	if err != nil {
		return nil, "", apperrors.Internal("failed to serialize front matter", err)
	}
	return fm, content, nil
}

// writeToGit creates the file when absent, otherwise updates it in place.
func (s *Service) writeToGit(ctx context.Context, path, content, message, branch string) (*gitpub.CommitResult, error) {
	existing, err := s.pub.GetFile(ctx, path, branch)
	if err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}
	if existing == nil {
		return s.pub.CreateFile(ctx, path, content, message, branch)
	}
	return s.pub.UpdateFile(ctx, path, content, message, existing.SHA, branch)
}

func (s *Service) requireOwner(d *Draft, actor *models.User) error {
	if d.AuthorID == actor.ID || actor.Role.AtLeast(models.RoleAdmin) {
		return nil
	}
	return apperrors.PermissionDenied("draft belongs to another author")
}
