// Package clientdata provides persistent caching for time-series provider
// responses. Entries are msgpack blobs with expiration timestamps for
// cache-first behavior and stale fallback.
package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// TablePriceHistory holds cached bar slices.
const TablePriceHistory = "price_history"

// AllTables lists all cache tables for cleanup operations.
var AllTables = []string{
	TablePriceHistory,
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Entry is one cached row.
type Entry struct {
	Data      []byte
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry has not yet expired at now.
func (e *Entry) Fresh(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Decode unmarshals the entry's msgpack payload into v.
func (e *Entry) Decode(v interface{}) error {
	if err := msgpack.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return nil
}

// Repository provides cache operations over the cache database.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// validateTable ensures the table name is in our allowed list.
// Table names are interpolated into SQL, so this is the injection guard.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// Store saves data with expiration = now + ttl. symbol tags the row so it
// can be invalidated per symbol.
func (r *Repository) Store(ctx context.Context, table, key, symbol string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	now := r.now()
	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (cache_key, symbol, data, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		table,
	)
	if _, err := r.db.ExecContext(ctx, query, key, symbol, blob, now.Unix(), now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}
	return nil
}

// Get returns the entry for key regardless of expiration, or nil when absent.
// Callers use Entry.Fresh to decide between a hit and a stale fallback.
func (r *Repository) Get(ctx context.Context, table, key string) (*Entry, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data, fetched_at, expires_at FROM %s WHERE cache_key = ?", table)

	var (
		data               []byte
		fetchedAt, expires int64
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(&data, &fetchedAt, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	return &Entry{
		Data:      data,
		FetchedAt: time.Unix(fetchedAt, 0),
		ExpiresAt: time.Unix(expires, 0),
	}, nil
}

// DeleteSymbol removes every entry tagged with symbol.
func (r *Repository) DeleteSymbol(ctx context.Context, table, symbol string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE symbol = ?", table), symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s from %s: %w", symbol, table, err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes all rows where expires_at <= now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(ctx context.Context, table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at <= ?", table)
	result, err := r.db.ExecContext(ctx, query, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64, len(AllTables))
	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(ctx, table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}
	return results, nil
}

// Count returns the number of rows in table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
