package draft

import "time"

// Status is the lifecycle state of a draft.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusInReview Status = "in_review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Draft is a document under revision. Published content lives in Git; the
// draft row only tracks the working copy and its review state. PublishedAt
// marks that the draft's content has been published at least once and is
// independent of Status.
type Draft struct {
	ID             string     `bson:"_id" json:"id"`
	Title          string     `bson:"title" json:"title"`
	Slug           string     `bson:"slug" json:"slug"`
	TargetPath     string     `bson:"targetPath" json:"targetPath"`
	Content        string     `bson:"content" json:"content"`
	FrontMatter    string     `bson:"frontMatter,omitempty" json:"frontMatter,omitempty"`
	Status         Status     `bson:"status" json:"status"`
	Version        int        `bson:"version" json:"version"`
	AuthorID       string     `bson:"authorId" json:"authorId"`
	ReviewerID     string     `bson:"reviewerId,omitempty" json:"reviewerId,omitempty"`
	ReviewComments string     `bson:"reviewComments,omitempty" json:"reviewComments,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
	SubmittedAt    *time.Time `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	ReviewedAt     *time.Time `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	PublishedAt    *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
}

// ListFilter narrows List queries.
type ListFilter struct {
	AuthorID string
	Status   Status
	Limit    int
	Offset   int
}
