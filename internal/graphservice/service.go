// Package graphservice answers page-level questions about an exported link
// graph.
package graphservice

import (
	"context"
	"errors"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/index"
)

// PageRef names a page by id and, when known, title.
type PageRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// PageDetail is the full representation of a page in the graph.
type PageDetail struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	RedirectsTo *PageRef  `json:"redirects_to,omitempty"`
	Outgoing    []PageRef `json:"outgoing"`
	Backlinks   []PageRef `json:"backlinks"`
	Unmatched   []string  `json:"unmatched"`
}

// Service coordinates index lookups.
type Service struct {
	db index.GraphIndex
}

// NewService creates a new graph service.
func NewService(db index.GraphIndex) *Service {
	return &Service{db: db}
}

// GetPage returns a page with its edges.
func (s *Service) GetPage(_ context.Context, id string) (*PageDetail, error) {
	return s.detail(id)
}

// ResolveTitle looks a title up and applies one redirect hop, the same rule
// the resolver uses for link targets. The returned detail is for the final
// page; ErrNotFound is returned if the title is unknown or the redirect
// points at a page that is not in the export.
func (s *Service) ResolveTitle(_ context.Context, title string) (*PageDetail, error) {
	p, err := s.db.PageByTitle(title)
	if err != nil {
		return nil, err
	}
	target, ok, err := s.db.RedirectTarget(p.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.detail(p.ID)
	}
	return s.detail(target)
}

// Search delegates title search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.SearchTitles(query, limit)
	return nonNilSlice(res), err
}

// Stats returns export row counts.
func (s *Service) Stats(_ context.Context) (index.Counts, error) {
	return s.db.Stats()
}

// Backlinks returns the pages that link to id.
func (s *Service) Backlinks(_ context.Context, id string) ([]PageRef, error) {
	ids, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}
	return s.refs(ids)
}

func (s *Service) detail(id string) (*PageDetail, error) {
	p, err := s.db.Page(id)
	if err != nil {
		return nil, err
	}
	d := &PageDetail{ID: p.ID, Title: p.Title}

	if target, ok, err := s.db.RedirectTarget(id); err != nil {
		return nil, err
	} else if ok {
		refs, err := s.refs([]string{target})
		if err != nil {
			return nil, err
		}
		d.RedirectsTo = &refs[0]
	}

	out, err := s.db.Outgoing(id)
	if err != nil {
		return nil, err
	}
	if d.Outgoing, err = s.refs(out); err != nil {
		return nil, err
	}

	in, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}
	if d.Backlinks, err = s.refs(in); err != nil {
		return nil, err
	}

	um, err := s.db.UnmatchedFor(id)
	if err != nil {
		return nil, err
	}
	d.Unmatched = nonNilSlice(um)
	return d, nil
}

// refs attaches titles to ids. Ids without a page row (a redirect target
// outside the catalog, say) keep an empty title.
func (s *Service) refs(ids []string) ([]PageRef, error) {
	out := make([]PageRef, 0, len(ids))
	for _, id := range ids {
		ref := PageRef{ID: id}
		p, err := s.db.Page(id)
		switch {
		case err == nil:
			ref.Title = p.Title
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
