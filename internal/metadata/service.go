package metadata

import (
	"context"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/docpath"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/frontmatter"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/markdown"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
)

// ExcerptLength caps the description derived from document content.
const ExcerptLength = 200

// GitRef carries the commit reference recorded alongside a reindex.
type GitRef struct {
	SHA string
	URL string
}

// Indexer keeps the metadata cache in sync with published documents.
type Indexer struct {
	repo Repository
}

func NewIndexer(repo Repository) *Indexer {
	return &Indexer{repo: repo}
}

// Reindex recomputes the metadata record for a published document and upserts
// it by path. Reindexing the same content twice leaves the record unchanged.
func (i *Indexer) Reindex(ctx context.Context, docPath, content string, fm map[string]any, ref *GitRef) (*Record, error) {
	parsed, body := frontmatter.Split(content)
	if fm == nil {
		fm = parsed
	}

	title := strString(fm, "title")
	if title == "" {
		title = markdown.Title(content)
	}
	if title == "" {
		title = stemTitle(docPath)
	}

	description := strString(fm, "description")
	if description == "" {
		description = markdown.Excerpt(body, ExcerptLength)
	}

	rec := &Record{
		Path:        docPath,
		Title:       title,
		Slug:        docpath.Slug(title),
		Category:    strString(fm, "category"),
		Tags:        strSlice(fm, "tags"),
		Team:        strString(fm, "team"),
		Description: description,
		Author:      strString(fm, "author"),
		Version:     strString(fm, "version"),
		WordCount:   markdown.WordCount(body),
		ReadingTime: markdown.ReadingTime(body),
	}
	if ref != nil {
		rec.GitSHA = ref.SHA
		rec.GitURL = ref.URL
	}

	stored, err := i.repo.UpsertByPath(ctx, rec)
	if err != nil {
		return nil, err
	}
	logger.Debugf("indexed %s (%d words)", docPath, stored.WordCount)
	return stored, nil
}

// Remove drops the metadata record for a deleted document. Removing a path
// with no record is a no-op.
func (i *Indexer) Remove(ctx context.Context, docPath string) error {
	return i.repo.DeleteByPath(ctx, docPath)
}

func (i *Indexer) Get(ctx context.Context, docPath string) (*Record, error) {
	return i.repo.GetByPath(ctx, docPath)
}

func (i *Indexer) Search(ctx context.Context, f SearchFilter) ([]*Record, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return i.repo.Search(ctx, f)
}

func (i *Indexer) Stats(ctx context.Context) (*Stats, error) {
	return i.repo.Stats(ctx)
}

func stemTitle(docPath string) string {
	stem := strings.TrimSuffix(path.Base(docPath), path.Ext(docPath))
	stem = strings.ReplaceAll(stem, "-", " ")
	stem = strings.ReplaceAll(stem, "_", " ")
	words := strings.Fields(stem)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func strString(fm map[string]any, key string) string {
	if v, ok := fm[key].(string); ok {
		return v
	}
	return ""
}

func strSlice(fm map[string]any, key string) []string {
	raw, ok := fm[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
