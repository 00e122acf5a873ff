package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Entry is a single diary record. Entries are append-only: once created they
// are never updated or deleted.
type Entry struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`       // ISO date, YYYY-MM-DD
	Content   string `json:"content"`    // Validated and trimmed by the caller
	CreatedAt string `json:"created_at"` // Assigned by the database at insert
}

// EntryFilter controls which entries are returned by List and Count.
type EntryFilter struct {
	Search string // Case-insensitive substring match on content or date.
}

// EntryRepository provides append-only access to diary entries.
type EntryRepository interface {
	// Create inserts a new entry and returns its assigned id. Date and
	// content must already be validated and trimmed.
	Create(ctx context.Context, date, content string) (int64, error)

	// List returns a filtered, sorted, paginated slice of entries.
	List(ctx context.Context, filter EntryFilter, opts ListOptions) ([]Entry, error)

	// Count returns the number of entries matching the filter, independent
	// of paging.
	Count(ctx context.Context, filter EntryFilter) (int, error)
}

// Compile-time interface guard.
var _ EntryRepository = (*SQLiteEntryRepository)(nil)

// SQLiteEntryRepository implements EntryRepository against the diaries table.
type SQLiteEntryRepository struct {
	db *sql.DB
}

// NewSQLiteEntryRepository creates an EntryRepository. The diaries table must
// exist (created by EntryMigrations); operations against an unmigrated
// database return ErrNotInitialized.
func NewSQLiteEntryRepository(db *sql.DB) *SQLiteEntryRepository {
	return &SQLiteEntryRepository{db: db}
}

const entryColumns = "id, date, content, created_at"

// entrySortColumns is the allow-list for ORDER BY. Sort columns cannot be
// parameter-bound, so anything not in this map falls back to "date".
var entrySortColumns = map[string]string{
	"date":       "date",
	"id":         "id",
	"created_at": "created_at",
}

func (r *SQLiteEntryRepository) Create(ctx context.Context, date, content string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO diaries (date, content) VALUES (?, ?)",
		date, content,
	)
	if err != nil {
		return 0, entryStoreErr("create entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create entry: last insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteEntryRepository) List(ctx context.Context, filter EntryFilter, opts ListOptions) ([]Entry, error) {
	opts = normalizeListOptions(opts)

	where, args := buildEntryFilter(filter)

	sortCol := "date"
	if col, ok := entrySortColumns[opts.SortBy]; ok {
		sortCol = col
	}
	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}
	// Secondary tie-break keeps rows with equal sort values (e.g. the same
	// date) in a stable order across requests.
	orderClause := sortCol + " " + orderDir
	if sortCol != "id" {
		orderClause += ", id DESC"
	}

	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, opts.Limit, opts.Offset)

	//nolint:gosec // where uses parameterized placeholders; sortCol is allow-listed above
	query := fmt.Sprintf(
		"SELECT %s FROM diaries WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		entryColumns, where, orderClause,
	)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, entryStoreErr("list entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (r *SQLiteEntryRepository) Count(ctx context.Context, filter EntryFilter) (int, error) {
	where, args := buildEntryFilter(filter)

	var total int
	//nolint:gosec // where uses parameterized placeholders only
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM diaries WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return 0, entryStoreErr("count entries", err)
	}
	return total, nil
}

// buildEntryFilter returns a WHERE clause with parameterized placeholders and
// the matching argument list. The search term is always bound, never
// concatenated into the query text.
func buildEntryFilter(filter EntryFilter) (string, []any) {
	where := "1=1"
	var args []any

	if term := strings.TrimSpace(filter.Search); term != "" {
		where += " AND (lower(content) LIKE lower(?) OR lower(date) LIKE lower(?))"
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}
	return where, args
}

// entryStoreErr wraps a database error, mapping a missing diaries table to
// ErrNotInitialized so callers can tell "run the migrations" apart from a
// genuine storage fault.
func entryStoreErr(op string, err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
