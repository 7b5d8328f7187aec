// Package navigation derives a site tree and breadcrumbs from the repository
// layout, so the frontend can render a sidebar without knowing Git.
package navigation

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/gitpub"
)

// Node is one entry of the navigation tree. Folders carry children;
// documents are leaves.
type Node struct {
	Label    string  `json:"label"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Children []*Node `json:"children,omitempty"`
}

const (
	TypeFolder   = "folder"
	TypeDocument = "document"
)

// Tree is the full navigation structure with entry counts.
type Tree struct {
	Nodes     []*Node `json:"nodes"`
	Documents int     `json:"documents"`
	Folders   int     `json:"folders"`
}

// Crumb is one breadcrumb segment.
type Crumb struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// FileLister enumerates repository files. Satisfied by gitpub.Client.
type FileLister interface {
	ListFiles(ctx context.Context, dir, branch string, recursive bool) ([]gitpub.Entry, error)
}

// Service builds navigation structures from the repository file listing.
type Service struct {
	lister FileLister
}

func NewService(lister FileLister) *Service {
	return &Service{lister: lister}
}

// BuildTree lists every markdown file and folds the paths into a nested
// tree. Folders sort before documents, both alphabetically by label.
func (s *Service) BuildTree(ctx context.Context, branch string) (*Tree, error) {
	entries, err := s.lister.ListFiles(ctx, "", branch, true)
	if err != nil {
		return nil, err
	}

	root := &Node{Type: TypeFolder}
	docs, folders := 0, 0
	for _, e := range entries {
		if !strings.HasSuffix(e.Path, ".md") {
			continue
		}
		segments := strings.Split(e.Path, "/")
		node := root
		for i, seg := range segments {
			if i == len(segments)-1 {
				node.Children = append(node.Children, &Node{
					Label: segmentLabel(seg),
					Path:  e.Path,
					Type:  TypeDocument,
				})
				docs++
				break
			}
			child := findChild(node, seg)
			if child == nil {
				child = &Node{
					Label: segmentLabel(seg),
					Path:  strings.Join(segments[:i+1], "/"),
					Type:  TypeFolder,
				}
				node.Children = append(node.Children, child)
				folders++
			}
			node = child
		}
	}

	sortTree(root.Children)
	return &Tree{Nodes: root.Children, Documents: docs, Folders: folders}, nil
}

// Breadcrumbs expands a document path into the trail from the site root.
func (s *Service) Breadcrumbs(path string) []Crumb {
	crumbs := []Crumb{{Label: "Home", Path: "/"}}
	path = strings.Trim(path, "/")
	if path == "" {
		return crumbs
	}

	current := ""
	for _, seg := range strings.Split(path, "/") {
		current += "/" + seg
		crumbs = append(crumbs, Crumb{Label: segmentLabel(seg), Path: current})
	}
	return crumbs
}

func findChild(n *Node, seg string) *Node {
	for _, c := range n.Children {
		if c.Type == TypeFolder && lastSegment(c.Path) == seg {
			return c
		}
	}
	return nil
}

func lastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func sortTree(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == TypeFolder
		}
		return nodes[i].Label < nodes[j].Label
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortTree(n.Children)
		}
	}
}

// segmentLabel turns a path segment into a display label: extension dropped,
// dashes and underscores become spaces, each word capitalized.
func segmentLabel(seg string) string {
	stem := strings.TrimSuffix(seg, ".md")
	stem = strings.ReplaceAll(stem, "-", " ")
	stem = strings.ReplaceAll(stem, "_", " ")
	words := strings.Fields(stem)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
