// Package redirect maps redirect page ids to the page they point at.
package redirect

import (
	"fmt"
	"iter"

	"github.com/starford/linkgraph/internal/models"
)

// Index holds one target per redirect source. Targets are not validated
// against the catalog.
type Index struct {
	targets map[string]string
}

// Load consumes the whole redirect sequence; a repeated source keeps its last
// target.
func Load(redirects iter.Seq2[models.Redirect, error]) (*Index, error) {
	idx := &Index{targets: make(map[string]string)}
	for r, err := range redirects {
		if err != nil {
			return nil, fmt.Errorf("redirect: load: %w", err)
		}
		idx.targets[r.SourceID] = r.TargetID
	}
	return idx, nil
}

// Resolve applies the mapping exactly once. If the returned id is itself a
// redirect source, it is not followed.
func (x *Index) Resolve(id string) string {
	if target, ok := x.targets[id]; ok {
		return target
	}
	return id
}

// Len returns the number of redirect sources.
func (x *Index) Len() int { return len(x.targets) }
