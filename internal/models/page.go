// Package models defines the domain types for linkgraph.
package models

// Page is one catalog entry.
type Page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Redirect means the page at SourceID should be treated as the page at TargetID.
type Redirect struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// RawLink is a link as extracted from the corpus: the source is already an id,
// the target is still a title.
type RawLink struct {
	SourceID    string `json:"source_id"`
	TargetTitle string `json:"target_title"`
}

// ResolvedLink is a directed edge between two post-redirect page ids.
type ResolvedLink struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// UnmatchedTarget records a link whose target title has no catalog entry.
type UnmatchedTarget struct {
	SourceID    string `json:"source_id"`
	TargetTitle string `json:"target_title"`
}
