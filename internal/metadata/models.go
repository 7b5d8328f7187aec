package metadata

import "time"

// Record caches search-relevant attributes derived from a published
// document. Exactly one record exists per path.
type Record struct {
	ID          string    `bson:"_id" json:"id"`
	Path        string    `bson:"path" json:"path"`
	Title       string    `bson:"title" json:"title"`
	Slug        string    `bson:"slug" json:"slug"`
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	Tags        []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Team        string    `bson:"team,omitempty" json:"team,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Author      string    `bson:"author,omitempty" json:"author,omitempty"`
	Version     string    `bson:"version,omitempty" json:"version,omitempty"`
	GitSHA      string    `bson:"gitSha,omitempty" json:"gitSha,omitempty"`
	GitURL      string    `bson:"gitUrl,omitempty" json:"gitUrl,omitempty"`
	WordCount   int       `bson:"wordCount" json:"wordCount"`
	ReadingTime int       `bson:"readingTime" json:"readingTime"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SearchFilter narrows Search queries.
type SearchFilter struct {
	Query    string
	Category string
	Tags     []string
	Team     string
	Limit    int
	Offset   int
}

// Stats aggregates the metadata cache.
type Stats struct {
	TotalDocuments int64            `json:"totalDocuments"`
	Categories     map[string]int64 `json:"categories"`
	AvgWordCount   float64          `json:"avgWordCount"`
	AvgReadingTime float64          `json:"avgReadingTime"`
	LastUpdated    *time.Time       `json:"lastUpdated,omitempty"`
}
