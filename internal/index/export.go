package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/linkgraph/internal/models"
)

// Export writes one full pipeline run inside a single transaction. Previous
// contents are cleared when the export begins, so a rerun replaces the graph.
// Export implements resolver.Sink.
type Export struct {
	tx        *sql.Tx
	page      *sql.Stmt
	redirect  *sql.Stmt
	link      *sql.Stmt
	unmatched *sql.Stmt
}

// BeginExport starts a replacing export.
func (db *DB) BeginExport() (*Export, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("index: begin tx: %w", err)
	}
	e := &Export{tx: tx}
	if err := e.prepare(); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return e, nil
}

func (e *Export) prepare() error {
	for _, table := range []string{"pages", "redirects", "links", "unmatched"} {
		if _, err := e.tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("index: clear %s: %w", table, err)
		}
	}
	if err := ftsClear(e.tx); err != nil {
		return err
	}

	var err error
	if e.page, err = e.tx.Prepare(`INSERT INTO pages (id, title) VALUES (?, ?)`); err != nil {
		return fmt.Errorf("index: prepare page insert: %w", err)
	}
	// Last redirect for a source wins, as in the in-memory index.
	if e.redirect, err = e.tx.Prepare(`
		INSERT INTO redirects (source_id, target_id) VALUES (?, ?)
		ON CONFLICT(source_id) DO UPDATE SET target_id = excluded.target_id
	`); err != nil {
		return fmt.Errorf("index: prepare redirect insert: %w", err)
	}
	if e.link, err = e.tx.Prepare(`INSERT INTO links (source_id, target_id) VALUES (?, ?)`); err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	if e.unmatched, err = e.tx.Prepare(`INSERT INTO unmatched (source_id, target_title) VALUES (?, ?)`); err != nil {
		return fmt.Errorf("index: prepare unmatched insert: %w", err)
	}
	return nil
}

// AddPage stores one catalog record in input order.
func (e *Export) AddPage(p models.Page) error {
	if _, err := e.page.Exec(p.ID, p.Title); err != nil {
		return fmt.Errorf("index: insert page: %w", err)
	}
	return ftsInsert(e.tx, p.ID, p.Title)
}

// AddRedirect stores one redirect record.
func (e *Export) AddRedirect(r models.Redirect) error {
	if _, err := e.redirect.Exec(r.SourceID, r.TargetID); err != nil {
		return fmt.Errorf("index: insert redirect: %w", err)
	}
	return nil
}

// Resolved implements resolver.Sink.
func (e *Export) Resolved(l models.ResolvedLink) error {
	if _, err := e.link.Exec(l.SourceID, l.TargetID); err != nil {
		return fmt.Errorf("index: insert link: %w", err)
	}
	return nil
}

// Unmatched implements resolver.Sink.
func (e *Export) Unmatched(u models.UnmatchedTarget) error {
	if _, err := e.unmatched.Exec(u.SourceID, u.TargetTitle); err != nil {
		return fmt.Errorf("index: insert unmatched: %w", err)
	}
	return nil
}

// Commit makes the export visible.
func (e *Export) Commit() error {
	e.closeStmts()
	if err := e.tx.Commit(); err != nil {
		return fmt.Errorf("index: commit export: %w", err)
	}
	return nil
}

// Rollback discards the export. Calling it after Commit is harmless.
func (e *Export) Rollback() {
	e.closeStmts()
	_ = e.tx.Rollback()
}

func (e *Export) closeStmts() {
	for _, s := range []*sql.Stmt{e.page, e.redirect, e.link, e.unmatched} {
		if s != nil {
			_ = s.Close()
		}
	}
}
