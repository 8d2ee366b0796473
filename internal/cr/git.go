package cr

import (
	"context"
	"time"
)

// Commit is one entry of the ledger history.
type Commit struct {
	Hash       string
	AuthorTime time.Time
	Message    string   // full message body
	Files      []string // paths touched by the commit, ledger relative
}

// LogQuery selects ledger history.
type LogQuery struct {
	// Grep keeps commits whose message contains this literal string.
	Grep string
	// Paths restricts history to commits touching these paths.
	Paths []string
	// Reverse walks history oldest first.
	Reverse bool
}

// Git is the version-control collaborator operating on the ledger checkout.
// Every method returns an error when the underlying command fails.
type Git interface {
	// Root is the absolute path of the ledger working tree.
	Root() string

	// ListFiles returns tracked paths matching a pathspec glob, leaving out
	// any path that contains exclude (when non-empty).
	ListFiles(ctx context.Context, pattern, exclude string) ([]string, error)

	// Log returns the commits selected by q, with the files each touched.
	Log(ctx context.Context, q LogQuery) ([]Commit, error)

	// FirstAdded returns when the file at path, followed across moves, was
	// first added to the ledger.
	FirstAdded(ctx context.Context, path string) (time.Time, error)

	// UserIdentity returns the identity commits are recorded under.
	UserIdentity(ctx context.Context) (string, error)

	// Add stages a path.
	Add(ctx context.Context, path string) error

	// Commit records the staged changes of paths and returns the new commit
	// hash. Other staged changes stay staged. With no paths everything
	// staged is committed.
	Commit(ctx context.Context, message string, paths ...string) (string, error)

	// Unstage drops a newly added path from the index again.
	Unstage(ctx context.Context, path string) error

	// Push publishes local commits to the ledger remote.
	Push(ctx context.Context) error
}
