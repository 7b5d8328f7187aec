package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/gitpub"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/metadata"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

type fakePublisher struct {
	files map[string]string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{files: make(map[string]string)}
}

func (f *fakePublisher) GetFile(ctx context.Context, path, branch string) (*gitpub.File, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, apperrors.NotFound("document", path)
	}
	return &gitpub.File{Path: path, Content: content, SHA: "sha-" + path, Size: int64(len(content))}, nil
}

func (f *fakePublisher) CreateFile(ctx context.Context, path, content, message, branch string) (*gitpub.CommitResult, error) {
	f.files[path] = content
	return &gitpub.CommitResult{Path: path, Commit: gitpub.Commit{SHA: "c1", Message: message}}, nil
}

func (f *fakePublisher) UpdateFile(ctx context.Context, path, content, message, sha, branch string) (*gitpub.CommitResult, error) {
	f.files[path] = content
	return &gitpub.CommitResult{Path: path, Commit: gitpub.Commit{SHA: "c2", Message: message}}, nil
}

func (f *fakePublisher) DeleteFile(ctx context.Context, path, message, sha, branch string) (*gitpub.CommitResult, error) {
	delete(f.files, path)
	return &gitpub.CommitResult{Path: path}, nil
}

func (f *fakePublisher) MoveFile(ctx context.Context, oldPath, newPath, message, branch string) (*gitpub.CommitResult, error) {
	f.files[newPath] = f.files[oldPath]
	delete(f.files, oldPath)
	return &gitpub.CommitResult{Path: newPath, Commit: gitpub.Commit{SHA: "c3"}}, nil
}

type harness struct {
	svc      *Service
	pub      *fakePublisher
	indexer  *metadata.Indexer
	auditLog *audit.MemoryRepository
}

func newHarness() *harness {
	pub := newFakePublisher()
	indexer := metadata.NewIndexer(metadata.NewMemoryRepository())
	auditRepo := audit.NewMemoryRepository()
	return &harness{
		svc:      NewService(pub, indexer, audit.NewRecorder(auditRepo)),
		pub:      pub,
		indexer:  indexer,
		auditLog: auditRepo,
	}
}

var editor = &models.User{ID: "u-editor", Role: models.RoleEditor}

func TestCreateDocument(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	doc, err := h.svc.Create(ctx, WriteInput{
		Path:        "docs/api/auth.md",
		Content:     "# Authentication\n\nHow tokens work.",
		FrontMatter: map[string]any{"category": "api"},
	}, editor)
	require.NoError(t, err)
	require.Equal(t, "docs/api/auth.md", doc.Path)
	require.Equal(t, "api", doc.FrontMatter["category"])
	require.Contains(t, doc.Content, "# Authentication")

	rec, err := h.indexer.Get(ctx, "docs/api/auth.md")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "Authentication", rec.Title)
	require.Equal(t, "c1", rec.GitSHA)
}

func TestCreateRejectsExisting(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	in := WriteInput{Path: "docs/a.md", Content: "# A\n\nbody"}

	_, err := h.svc.Create(ctx, in, editor)
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, in, editor)
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestMutationsRequireEditor(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	viewer := &models.User{ID: "u-viewer", Role: models.RoleViewer}

	_, err := h.svc.Create(ctx, WriteInput{Path: "docs/a.md", Content: "x"}, viewer)
	require.True(t, apperrors.IsKind(err, apperrors.KindPermissionDenied))

	err = h.svc.Delete(ctx, "docs/a.md", "", "", viewer)
	require.True(t, apperrors.IsKind(err, apperrors.KindPermissionDenied))

	_, err = h.svc.Move(ctx, "docs/a.md", "docs/b.md", "", "", viewer)
	require.True(t, apperrors.IsKind(err, apperrors.KindPermissionDenied))
}

func TestUpdateDocument(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, WriteInput{Path: "docs/a.md", Content: "# A\n\nfirst"}, editor)
	require.NoError(t, err)

	doc, err := h.svc.Update(ctx, WriteInput{Path: "docs/a.md", Content: "# A\n\nsecond edition"}, editor)
	require.NoError(t, err)
	require.Contains(t, doc.Content, "second edition")

	rec, err := h.indexer.Get(ctx, "docs/a.md")
	require.NoError(t, err)
	require.Equal(t, "c2", rec.GitSHA)
}

func TestUpdateMissingDocument(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Update(context.Background(), WriteInput{Path: "docs/missing.md", Content: "x"}, editor)
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeleteRemovesMetadata(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, WriteInput{Path: "docs/a.md", Content: "# A\n\nbody"}, editor)
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, "docs/a.md", "", "", editor))

	_, err = h.svc.Get(ctx, "docs/a.md", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	rec, err := h.indexer.Get(ctx, "docs/a.md")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestMoveRekeysMetadata(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, WriteInput{
		Path:        "docs/guides/old.md",
		Content:     "# Old Guide\n\nStill relevant.",
		FrontMatter: map[string]any{"category": "guides"},
	}, editor)
	require.NoError(t, err)

	doc, err := h.svc.Move(ctx, "docs/guides/old.md", "docs/guides/new.md", "", "", editor)
	require.NoError(t, err)
	require.Equal(t, "docs/guides/new.md", doc.Path)

	oldRec, err := h.indexer.Get(ctx, "docs/guides/old.md")
	require.NoError(t, err)
	require.Nil(t, oldRec)

	newRec, err := h.indexer.Get(ctx, "docs/guides/new.md")
	require.NoError(t, err)
	require.NotNil(t, newRec)
	require.Equal(t, "Old Guide", newRec.Title)
}

func TestMoveSamePath(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Move(context.Background(), "docs/a.md", "docs/a.md", "", "", editor)
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestGetSplitsFrontMatter(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.pub.files["docs/a.md"] = "---\ntitle: A Doc\ncategory: api\n---\n\n# A Doc\n\nbody"

	doc, err := h.svc.Get(ctx, "docs/a.md", "")
	require.NoError(t, err)
	require.Equal(t, "A Doc", doc.FrontMatter["title"])
	require.NotContains(t, doc.Content, "---")
	require.Contains(t, doc.Content, "# A Doc")
}
