package gitpub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitMessage(t *testing.T) {
	require.Equal(t, "docs: Create Authentication Guide (api)",
		CommitMessage(ActionCreate, "docs/api/auth.md", "Authentication Guide", ""))

	// no category suffix for single-segment paths
	require.Equal(t, "docs: Update Setup",
		CommitMessage(ActionUpdate, "docs/setup.md", "Setup", ""))

	// title derived from filename when absent
	require.Equal(t, "docs: Delete Getting Started",
		CommitMessage(ActionDelete, "getting-started.md", "", ""))

	require.Equal(t, "docs: Move Old Guide to new-guide (guides)",
		CommitMessage(ActionMove, "docs/guides/old-guide.md", "Old Guide", "docs/guides/new-guide.md"))
}

func TestCommitMessageNonASCIIFilename(t *testing.T) {
	// leading multi-byte rune in the derived name is uppercased, not mangled
	require.Equal(t, "docs: Create Über Uns",
		CommitMessage(ActionCreate, "über-uns.md", "", ""))
}

func TestCommitMessageCategoryOutsideDocs(t *testing.T) {
	require.Equal(t, "docs: Create Runbook (wiki)",
		CommitMessage(ActionCreate, "wiki/ops/runbook.md", "Runbook", ""))
}

func TestBulkCommitMessage(t *testing.T) {
	require.Equal(t, "docs: Bulk update", BulkCommitMessage(nil))

	same := []Change{
		{Action: ActionCreate, Path: "docs/a.md"},
		{Action: ActionCreate, Path: "docs/b.md"},
	}
	require.Equal(t, "docs: Bulk create - 2 documents", BulkCommitMessage(same))

	mixed := []Change{
		{Action: ActionCreate, Path: "docs/a.md"},
		{Action: ActionUpdate, Path: "docs/b.md"},
	}
	require.Equal(t, "docs: Bulk update - 1 created, 1 updated", BulkCommitMessage(mixed))
}
