package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"cr-go/internal/cr"
)

// FakeGit is an in-process stand-in for the ledger checkout. Files live in a
// temporary directory; history is whatever the test records.
type FakeGit struct {
	root    string
	added   map[string]time.Time
	commits []cr.Commit // oldest first
	staged  []string

	Identity   string
	CommitTime time.Time
	AddErr     error
	CommitErr  error
	PushErr    error
	Pushes     int
}

var _ cr.Git = (*FakeGit)(nil)

// NewFakeGit creates an empty ledger in a test temp directory.
func NewFakeGit(t *testing.T) *FakeGit {
	t.Helper()
	return &FakeGit{
		root:     t.TempDir(),
		added:    make(map[string]time.Time),
		Identity: "reviewer@example.com",
	}
}

// WriteFile writes a file into the working tree without recording history.
func (g *FakeGit) WriteFile(t *testing.T, path, content string) {
	t.Helper()
	full := filepath.Join(g.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// AddItem writes a patch at path and records when it was first added.
func (g *FakeGit) AddItem(t *testing.T, path, patch string, added time.Time) {
	t.Helper()
	g.WriteFile(t, path, patch)
	g.added[path] = added
}

// RecordCommit appends a commit to history. A missing hash is generated.
func (g *FakeGit) RecordCommit(c cr.Commit) {
	if c.Hash == "" {
		c.Hash = SHA1Hex(fmt.Sprintf("commit-%d", len(g.commits)))
	}
	g.commits = append(g.commits, c)
}

// Staged returns the paths added but not yet committed.
func (g *FakeGit) Staged() []string {
	return append([]string(nil), g.staged...)
}

// Commits returns recorded history, oldest first.
func (g *FakeGit) Commits() []cr.Commit {
	return append([]cr.Commit(nil), g.commits...)
}

func (g *FakeGit) Root() string {
	return g.root
}

func (g *FakeGit) ListFiles(_ context.Context, pattern, exclude string) ([]string, error) {
	re, err := globRegexp(pattern)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(g.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(g.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !re.MatchString(rel) {
			return nil
		}
		if exclude != "" && strings.Contains("/"+rel, exclude) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	return paths, err
}

func (g *FakeGit) Log(_ context.Context, q cr.LogQuery) ([]cr.Commit, error) {
	var out []cr.Commit
	for _, c := range g.commits {
		if q.Grep != "" && !strings.Contains(c.Message, q.Grep) {
			continue
		}
		if len(q.Paths) > 0 && !touchesAny(c, q.Paths) {
			continue
		}
		out = append(out, c)
	}
	if !q.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func touchesAny(c cr.Commit, prefixes []string) bool {
	for _, f := range c.Files {
		for _, p := range prefixes {
			if strings.HasPrefix(f, p) {
				return true
			}
		}
	}
	return false
}

func (g *FakeGit) FirstAdded(_ context.Context, path string) (time.Time, error) {
	t, ok := g.added[path]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: no commit adds %s", cr.ErrNotFound, path)
	}
	return t, nil
}

func (g *FakeGit) UserIdentity(context.Context) (string, error) {
	if g.Identity == "" {
		return "", fmt.Errorf("%w: no git identity", cr.ErrConfig)
	}
	return g.Identity, nil
}

func (g *FakeGit) Add(_ context.Context, path string) error {
	if g.AddErr != nil {
		return g.AddErr
	}
	if _, err := os.Stat(filepath.Join(g.root, filepath.FromSlash(path))); err != nil {
		return fmt.Errorf("fake git add: %w", err)
	}
	g.staged = append(g.staged, path)
	return nil
}

func (g *FakeGit) Unstage(_ context.Context, path string) error {
	kept := g.staged[:0]
	for _, p := range g.staged {
		if p != path {
			kept = append(kept, p)
		}
	}
	g.staged = kept
	return nil
}

func (g *FakeGit) Commit(_ context.Context, message string, paths ...string) (string, error) {
	if g.CommitErr != nil {
		return "", g.CommitErr
	}
	files, rest := g.staged, []string(nil)
	if len(paths) > 0 {
		only := make(map[string]bool, len(paths))
		for _, p := range paths {
			only[p] = true
		}
		files = nil
		for _, p := range g.staged {
			if only[p] {
				files = append(files, p)
			} else {
				rest = append(rest, p)
			}
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("fake git commit: nothing staged")
	}
	g.RecordCommit(cr.Commit{AuthorTime: g.CommitTime, Message: message, Files: files})
	g.staged = rest
	return g.commits[len(g.commits)-1].Hash, nil
}

func (g *FakeGit) Push(context.Context) error {
	if g.PushErr != nil {
		return g.PushErr
	}
	g.Pushes++
	return nil
}

// globRegexp translates a git glob pathspec: "**/" and a trailing "**" span
// directories, "*" and "?" stay within one.
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case pattern[i:] == "**":
			b.WriteString(".*")
			i++
		case pattern[i] == '*':
			b.WriteString("[^/]*")
		case pattern[i] == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
