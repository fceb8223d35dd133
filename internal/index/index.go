package index

// GraphIndex defines the read side of the exported graph.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type GraphIndex interface {
	Page(id string) (*PageRow, error)
	PageByTitle(title string) (*PageRow, error)
	RedirectTarget(id string) (string, bool, error)
	Outgoing(id string) ([]string, error)
	Backlinks(id string) ([]string, error)
	UnmatchedFor(id string) ([]string, error)
	Stats() (Counts, error)
	SearchTitles(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies GraphIndex at compile time.
var _ GraphIndex = (*DB)(nil)
