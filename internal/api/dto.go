package api

import (
	"github.com/starford/linkgraph/internal/graphservice"
	"github.com/starford/linkgraph/internal/index"
)

// PageDetail is the page response type (aliased from the domain layer).
type PageDetail = graphservice.PageDetail

// SearchResponse wraps title search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// BacklinksResponse wraps the pages linking to a page.
type BacklinksResponse struct {
	Backlinks []graphservice.PageRef `json:"backlinks"`
}
