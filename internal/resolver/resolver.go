// Package resolver turns raw (source id, target title) links into edges
// between final page ids.
package resolver

import (
	"context"
	"fmt"
	"iter"

	"github.com/starford/linkgraph/internal/models"
)

// Catalog is the page lookup the resolver depends on.
type Catalog interface {
	Has(id string) bool
	Lookup(title string) (string, bool)
}

// Redirects applies one redirect hop.
type Redirects interface {
	Resolve(id string) string
}

// Sink receives the two output streams in input order.
type Sink interface {
	Resolved(models.ResolvedLink) error
	Unmatched(models.UnmatchedTarget) error
}

// Kind classifies what happened to one raw link.
type Kind int

const (
	// Dropped: the raw source id is not in the catalog.
	Dropped Kind = iota
	// Resolved: an edge was produced.
	Resolved
	// SelfLink: the target title names the (redirected) source page.
	SelfLink
	// Unmatched: the target title is unknown.
	Unmatched
)

func (k Kind) String() string {
	switch k {
	case Dropped:
		return "dropped"
	case Resolved:
		return "resolved"
	case SelfLink:
		return "self_link"
	case Unmatched:
		return "unmatched"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the result of resolving one raw link. Only the field matching
// Kind is populated.
type Outcome struct {
	Kind      Kind
	Link      models.ResolvedLink
	Unmatched models.UnmatchedTarget
}

// Stats counts outcomes over a stream.
type Stats struct {
	Links     int `json:"links"`
	Resolved  int `json:"resolved"`
	Unmatched int `json:"unmatched"`
	SelfLinks int `json:"self_links"`
	Dropped   int `json:"dropped"`
}

func (s *Stats) add(k Kind) {
	s.Links++
	switch k {
	case Dropped:
		s.Dropped++
	case Resolved:
		s.Resolved++
	case SelfLink:
		s.SelfLinks++
	case Unmatched:
		s.Unmatched++
	}
}

// Resolver holds the fully built indexes. It has no mutable state and may be
// reused across streams.
type Resolver struct {
	catalog   Catalog
	redirects Redirects
}

// New returns a Resolver over the given indexes.
func New(catalog Catalog, redirects Redirects) *Resolver {
	return &Resolver{catalog: catalog, redirects: redirects}
}

// Resolve classifies a single raw link.
func (r *Resolver) Resolve(link models.RawLink) Outcome {
	if !r.catalog.Has(link.SourceID) {
		return Outcome{Kind: Dropped}
	}
	sourceID := r.redirects.Resolve(link.SourceID)

	targetID, ok := r.catalog.Lookup(link.TargetTitle)
	if !ok {
		return Outcome{
			Kind:      Unmatched,
			Unmatched: models.UnmatchedTarget{SourceID: sourceID, TargetTitle: link.TargetTitle},
		}
	}

	// Self links are detected before the target's redirect is applied, so an
	// edge that only collapses onto its source after that hop is still emitted.
	if sourceID == targetID {
		return Outcome{Kind: SelfLink}
	}
	return Outcome{
		Kind: Resolved,
		Link: models.ResolvedLink{SourceID: sourceID, TargetID: r.redirects.Resolve(targetID)},
	}
}

// Stream resolves links one at a time and forwards every emission to sink.
// The sequence is never buffered. A decode error, a sink error, or ctx
// cancellation stops the stream; the stats gathered so far are returned with
// the error.
func (r *Resolver) Stream(ctx context.Context, links iter.Seq2[models.RawLink, error], sink Sink) (Stats, error) {
	var st Stats
	for link, err := range links {
		if err != nil {
			return st, fmt.Errorf("resolver: read link: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}

		out := r.Resolve(link)
		st.add(out.Kind)

		switch out.Kind {
		case Resolved:
			if err := sink.Resolved(out.Link); err != nil {
				return st, fmt.Errorf("resolver: emit edge: %w", err)
			}
		case Unmatched:
			if err := sink.Unmatched(out.Unmatched); err != nil {
				return st, fmt.Errorf("resolver: emit unmatched: %w", err)
			}
		}
	}
	return st, nil
}

// MultiSink fans every emission out to several sinks in order.
type MultiSink []Sink

// Resolved implements Sink.
func (m MultiSink) Resolved(l models.ResolvedLink) error {
	for _, s := range m {
		if err := s.Resolved(l); err != nil {
			return err
		}
	}
	return nil
}

// Unmatched implements Sink.
func (m MultiSink) Unmatched(u models.UnmatchedTarget) error {
	for _, s := range m {
		if err := s.Unmatched(u); err != nil {
			return err
		}
	}
	return nil
}
