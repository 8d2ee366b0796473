// Package index projects scanned ledger items into an in-memory SQLite
// database for selection and grouping. Nothing is persisted; the index is
// rebuilt on every invocation.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cr-go/internal/cr"
	"cr-go/internal/index/migrations"
	"cr-go/internal/model"
	"cr-go/internal/record"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned by PutItems when two items share a sha1 or a path.
var ErrDuplicate = errors.New("item appears more than once in the ledger")

// SQLiteIndex implements cr.Index on an in-memory SQLite database.
type SQLiteIndex struct {
	db *sql.DB
}

var _ cr.Index = (*SQLiteIndex)(nil)

// NewSQLiteIndex opens a fresh in-memory index with the schema applied.
func NewSQLiteIndex() (*SQLiteIndex, error) {
	db, err := OpenConnection()
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying index schema: %w", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("index schema out of date: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// OpenConnection opens an in-memory SQLite database. The pool is limited to
// one connection because every connection to ":memory:" is its own database.
func OpenConnection() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Reset removes all items.
func (x *SQLiteIndex) Reset() error {
	if _, err := x.db.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	return nil
}

// PutItems inserts items in one transaction.
func (x *SQLiteIndex) PutItems(items []*model.AgedItem) error {
	tx, err := x.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO items
		(sha1, profile, path, state, select_date, author, commit_date, subject, age)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		_, err := stmt.Exec(it.SHA1, it.Profile, it.Path, string(it.State),
			unixNano(it.SelectDate), it.Author, unixNano(it.CommitDate), it.Subject, it.Age)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s (%s)", ErrDuplicate, it.SHA1, it.Path)
			}
			return fmt.Errorf("inserting item %s: %w", it.SHA1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a primary key or UNIQUE
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Overdue returns items aged at least threshold whose state is not excluded.
func (x *SQLiteIndex) Overdue(threshold int, excluded []record.State) ([]*model.AgedItem, error) {
	query := `SELECT sha1, profile, path, state, select_date, author, commit_date, subject, age
		FROM items WHERE age >= ?`
	args := []any{threshold}
	if len(excluded) > 0 {
		query += " AND state NOT IN (" + strings.TrimSuffix(strings.Repeat("?,", len(excluded)), ",") + ")"
		for _, s := range excluded {
			args = append(args, string(s))
		}
	}
	query += " ORDER BY profile, select_date, sha1"

	rows, err := x.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying overdue items: %w", err)
	}
	defer rows.Close()

	var out []*model.AgedItem
	for rows.Next() {
		var (
			it                     model.Item
			state                  string
			selectDate, commitDate int64
			age                    int
		)
		if err := rows.Scan(&it.SHA1, &it.Profile, &it.Path, &state, &selectDate,
			&it.Author, &commitDate, &it.Subject, &age); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.State = record.State(state)
		it.SelectDate = fromUnixNano(selectDate)
		it.CommitDate = fromUnixNano(commitDate)
		out = append(out, &model.AgedItem{Item: &it, Age: age})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return out, nil
}

// CountByProfile returns item counts per profile and state.
func (x *SQLiteIndex) CountByProfile() (map[string]map[record.State]int, error) {
	rows, err := x.db.Query("SELECT profile, state, COUNT(*) FROM items GROUP BY profile, state")
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[record.State]int)
	for rows.Next() {
		var profile, state string
		var n int
		if err := rows.Scan(&profile, &state, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		if counts[profile] == nil {
			counts[profile] = make(map[record.State]int)
		}
		counts[profile][record.State(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}

// Close closes the database.
func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}

// Times are stored as nanoseconds; the zero time is stored as 0 so it
// survives the round trip.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
