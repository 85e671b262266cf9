package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by a statement cache after Close.
var ErrClosed = errors.New("statement cache closed")

// PreparedStatementCache prepares each journal query once and reuses it for
// the lifetime of the repository.
type PreparedStatementCache struct {
	db *sql.DB

	mu     sync.Mutex
	stmts  map[string]*sql.Stmt
	closed bool
}

// NewPreparedStatementCache creates an empty cache over db.
func NewPreparedStatementCache(db *sql.DB) *PreparedStatementCache {
	return &PreparedStatementCache{db: db, stmts: make(map[string]*sql.Stmt)}
}

// Get returns the statement for query, preparing it on first use. A query
// that fails to prepare is not cached; the sqlite driver reports most query
// errors only when the statement runs.
func (c *PreparedStatementCache) Get(ctx context.Context, query string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if stmt, ok := c.stmts[query]; ok {
		return stmt, nil
	}

	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %q: %w", query, err)
	}
	c.stmts[query] = stmt
	return stmt, nil
}

// Close closes every prepared statement. Further calls to Get fail with
// ErrClosed; closing twice is a no-op.
func (c *PreparedStatementCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for query, stmt := range c.stmts {
		if err := stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %q: %w", query, err))
		}
	}
	c.stmts = map[string]*sql.Stmt{}
	c.closed = true
	return errors.Join(errs...)
}

// Size returns the number of prepared statements held.
func (c *PreparedStatementCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stmts)
}
