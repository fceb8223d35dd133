// Package catalog builds the page identifier universe and the title index.
package catalog

import (
	"fmt"
	"iter"

	"github.com/starford/linkgraph/internal/models"
)

// Catalog is the read-only view of every known page. It is built once by
// Load and never mutated afterwards.
type Catalog struct {
	ids    map[string]struct{}
	titles map[string]string
}

// Load consumes the whole page sequence. A later page with an already seen
// title replaces the earlier id for that title. The first decode error aborts
// the load.
func Load(pages iter.Seq2[models.Page, error]) (*Catalog, error) {
	c := &Catalog{
		ids:    make(map[string]struct{}),
		titles: make(map[string]string),
	}
	for p, err := range pages {
		if err != nil {
			return nil, fmt.Errorf("catalog: load: %w", err)
		}
		c.ids[p.ID] = struct{}{}
		c.titles[p.Title] = p.ID
	}
	return c, nil
}

// Has reports whether id belongs to the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Lookup returns the id registered for title.
func (c *Catalog) Lookup(title string) (string, bool) {
	id, ok := c.titles[title]
	return id, ok
}

// Len returns the number of distinct page ids.
func (c *Catalog) Len() int { return len(c.ids) }

// TitleCount returns the number of distinct titles.
func (c *Catalog) TitleCount() int { return len(c.titles) }
