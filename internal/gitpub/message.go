package gitpub

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Action is the kind of change a commit records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionMove   Action = "move"
)

func docName(path, title string) string {
	filename := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".md")
	if title != "" {
		return title
	}
	name := strings.NewReplacer("-", " ", "_", " ").Replace(filename)
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// CommitMessage generates a conventional-commit message for a document
// change, e.g. "docs: Create Authentication Guide (api)". The parenthetical
// category is added when the path has more than one directory segment.
func CommitMessage(action Action, path, title, newPath string) string {
	name := docName(path, title)

	var message string
	switch action {
	case ActionCreate:
		message = fmt.Sprintf("docs: Create %s", name)
	case ActionUpdate:
		message = fmt.Sprintf("docs: Update %s", name)
	case ActionDelete:
		message = fmt.Sprintf("docs: Delete %s", name)
	case ActionMove:
		target := "unknown"
		if newPath != "" {
			target = strings.TrimSuffix(newPath[strings.LastIndex(newPath, "/")+1:], ".md")
		}
		message = fmt.Sprintf("docs: Move %s to %s", name, target)
	default:
		message = fmt.Sprintf("docs: Modify %s", name)
	}

	if strings.Count(path, "/") > 1 {
		parts := strings.Split(path, "/")
		category := parts[0]
		if strings.HasPrefix(path, "docs/") {
			category = parts[1]
		}
		message += fmt.Sprintf(" (%s)", category)
	}

	return message
}

// Change describes one entry of a bulk operation.
type Change struct {
	Action Action
	Path   string
}

// BulkCommitMessage summarizes a multi-document operation.
func BulkCommitMessage(changes []Change) string {
	if len(changes) == 0 {
		return "docs: Bulk update"
	}

	counts := map[Action]int{}
	for _, c := range changes {
		a := c.Action
		if a == "" {
			a = "modify"
		}
		counts[a]++
	}

	if len(counts) == 1 {
		for action := range counts {
			return fmt.Sprintf("docs: Bulk %s - %d documents", action, len(changes))
		}
	}

	actions := make([]string, 0, len(counts))
	for a := range counts {
		actions = append(actions, string(a))
	}
	sort.Strings(actions)

	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, fmt.Sprintf("%d %sd", counts[Action(a)], a))
	}
	return fmt.Sprintf("docs: Bulk update - %s", strings.Join(parts, ", "))
}
