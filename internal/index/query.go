package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/linkgraph/internal/apperr"
)

// PageRow represents a row in the pages table.
type PageRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchResult represents one title search hit.
type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Counts summarises the exported graph.
type Counts struct {
	Pages     int `json:"pages"`
	Redirects int `json:"redirects"`
	Links     int `json:"links"`
	Unmatched int `json:"unmatched"`
}

// Page returns the last exported row for id.
func (db *DB) Page(id string) (*PageRow, error) {
	var p PageRow
	err := db.conn.QueryRow(`SELECT id, title FROM pages WHERE id = ? ORDER BY seq DESC LIMIT 1`, id).
		Scan(&p.ID, &p.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: page: %w", err)
	}
	return &p, nil
}

// PageByTitle returns the page that owns title. When several pages share a
// title the one exported last wins, matching the in-memory catalog.
func (db *DB) PageByTitle(title string) (*PageRow, error) {
	var p PageRow
	err := db.conn.QueryRow(`SELECT id, title FROM pages WHERE title = ? ORDER BY seq DESC LIMIT 1`, title).
		Scan(&p.ID, &p.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: page by title: %w", err)
	}
	return &p, nil
}

// RedirectTarget returns the stored redirect target for id and whether one
// exists.
func (db *DB) RedirectTarget(id string) (string, bool, error) {
	var target string
	err := db.conn.QueryRow(`SELECT target_id FROM redirects WHERE source_id = ?`, id).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("index: redirect: %w", err)
	}
	return target, true, nil
}

// Outgoing returns the target ids of every edge leaving id, in export order.
func (db *DB) Outgoing(id string) ([]string, error) {
	return db.column(`SELECT target_id FROM links WHERE source_id = ? ORDER BY rowid`, id)
}

// Backlinks returns the source ids of every edge pointing at id.
func (db *DB) Backlinks(id string) ([]string, error) {
	return db.column(`SELECT source_id FROM links WHERE target_id = ? ORDER BY rowid`, id)
}

// UnmatchedFor returns the unresolved target titles recorded for a source.
func (db *DB) UnmatchedFor(id string) ([]string, error) {
	return db.column(`SELECT target_title FROM unmatched WHERE source_id = ? ORDER BY rowid`, id)
}

// Stats returns row counts for every table.
func (db *DB) Stats() (Counts, error) {
	var c Counts
	err := db.conn.QueryRow(`
		SELECT (SELECT count(*) FROM pages),
		       (SELECT count(*) FROM redirects),
		       (SELECT count(*) FROM links),
		       (SELECT count(*) FROM unmatched)
	`).Scan(&c.Pages, &c.Redirects, &c.Links, &c.Unmatched)
	if err != nil {
		return Counts{}, fmt.Errorf("index: stats: %w", err)
	}
	return c, nil
}

func (db *DB) column(query string, arg string) ([]string, error) {
	rows, err := db.conn.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
