// Package markdown provides content analysis for the metadata indexer:
// plain-text extraction, word counts, reading time and excerpts.
package markdown

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// WordsPerMinute is the average reading speed used for reading-time estimates.
const WordsPerMinute = 200

// PlainText strips markdown formatting by walking the goldmark AST. Code
// blocks, code spans and image alt text are dropped entirely; link text is
// kept; paragraphs and headings become blank-line separated blocks.
func PlainText(source string) string {
	md := goldmark.New()
	node := md.Parser().Parse(text.NewReader([]byte(source)))

	var b strings.Builder
	src := []byte(source)

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		case ast.KindParagraph, ast.KindHeading:
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindCodeSpan, ast.KindImage:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// WordCount counts whitespace-separated words in the stripped text.
func WordCount(source string) int {
	return len(strings.Fields(PlainText(source)))
}

// ReadingTime estimates reading time in minutes, minimum 1.
func ReadingTime(source string) int {
	minutes := int(math.Round(float64(WordCount(source)) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt returns the first paragraph of the stripped text, truncated to
// maxLength characters on a word boundary with a trailing ellipsis when cut.
func Excerpt(source string, maxLength int) string {
	plain := PlainText(source)
	excerpt := plain
	if i := strings.Index(plain, "\n\n"); i >= 0 {
		excerpt = plain[:i]
	}
	if len(excerpt) > maxLength {
		// back up to a rune boundary so a multi-byte character is never
		// split mid-sequence
		end := maxLength
		for end > 0 && !utf8.RuneStart(excerpt[end]) {
			end--
		}
		cut := excerpt[:end]
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		excerpt = cut + "..."
	}
	return excerpt
}

// Title returns the front-matter title or the first H1 heading, empty when
// neither is present. Used for auto-generated commit messages.
func Title(source string) string {
	lines := strings.Split(source, "\n")

	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		for _, line := range lines[1:] {
			trimmed := strings.TrimSpace(line)
			if trimmed == "---" {
				break
			}
			if strings.HasPrefix(trimmed, "title:") {
				return strings.Trim(strings.TrimSpace(strings.TrimPrefix(trimmed, "title:")), `"'`)
			}
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
