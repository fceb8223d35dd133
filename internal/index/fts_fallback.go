//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; title search uses LIKE on the pages table.
	return nil
}

func ftsInsert(_ *sql.Tx, _, _ string) error { return nil }

func ftsClear(_ *sql.Tx) error { return nil }

// SearchTitles performs a LIKE-based title search (fallback when FTS5 is not
// compiled in).
func (db *DB) SearchTitles(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, title
		FROM pages
		WHERE title LIKE ?
		ORDER BY seq
		LIMIT ?
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
