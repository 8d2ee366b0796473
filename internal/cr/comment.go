package cr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"cr-go/internal/layout"
	"cr-go/internal/model"
	"cr-go/internal/record"
)

// CommentMarker starts lines of the editor buffer that are discarded.
const CommentMarker = "#"

// CommentResult describes the outcome of a comment command.
type CommentResult struct {
	Item *model.Item
	// Skipped is set when the comment was empty after normalization. Nothing
	// was written or committed.
	Skipped bool
	Path    string // ledger path of the comment file
	Commit  string // hash of the ledger commit
	Record  record.Record
}

// Comment attaches a comment to the item identified by sha1 without
// changing its state. paragraphs are joined with blank lines; when none
// are given the editor collects the text.
//
// The write is one commit followed by a push. If the push fails the local
// commit is kept and a *PublishError is returned.
func (s *CRService) Comment(ctx context.Context, sha1 string, paragraphs []string) (*CommentResult, error) {
	item, err := s.FindItem(ctx, sha1)
	if err != nil {
		return nil, err
	}

	var text string
	if len(paragraphs) > 0 {
		text = NormalizeComment(strings.Join(paragraphs, "\n\n"), false)
	} else {
		if s.editor == nil {
			return nil, fmt.Errorf("%w: no comment given and no editor available", ErrUsage)
		}
		raw, err := s.editor.Edit(ctx, commentTemplate(item))
		if err != nil {
			return nil, fmt.Errorf("editing comment: %w", err)
		}
		text = NormalizeComment(raw, true)
	}

	if strings.TrimSpace(text) == "" {
		s.logger.Info("empty comment skipped", "sha1", item.SHA1)
		return &CommentResult{Item: item, Skipped: true}, nil
	}

	author, err := s.git.UserIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving ledger user: %w", err)
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	rec := record.Record{
		State:     record.StateComment,
		Author:    author,
		Message:   text + "\n",
		Timestamp: now,
	}
	encoded := record.Encode(rec)

	filename := now.Format("20060102T150405Z") + "-" + filenameSafe(author) + ".txt"
	rel, err := layout.CommentPath(item.Path, filename)
	if err != nil {
		return nil, err
	}
	if err := s.writeLedgerFile(rel, []byte(encoded)); err != nil {
		return nil, err
	}

	if err := s.git.Add(ctx, rel); err != nil {
		s.discardComment(ctx, rel, false)
		return nil, fmt.Errorf("staging comment: %w", err)
	}
	hash, err := s.git.Commit(ctx, encoded, rel)
	if err != nil {
		s.discardComment(ctx, rel, true)
		return nil, fmt.Errorf("committing comment: %w", err)
	}
	s.logger.Info("comment committed", "sha1", item.SHA1, "path", rel, "commit", hash)

	result := &CommentResult{Item: item, Path: rel, Commit: hash, Record: rec}
	if err := s.git.Push(ctx); err != nil {
		s.logger.Error("push failed; comment is only committed locally", "commit", hash, "error", err)
		return result, &PublishError{Commit: hash, Err: err}
	}
	return result, nil
}

// writeLedgerFile creates a new file in the ledger checkout. An existing
// file is never overwritten.
func (s *CRService) writeLedgerFile(rel string, data []byte) error {
	abs := filepath.Join(s.git.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("creating comment directory: %w", err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("comment %s already exists; try again", rel)
		}
		return fmt.Errorf("creating comment file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing comment file: %w", err)
	}
	return f.Close()
}

// discardComment removes a comment file that did not make it into a commit,
// so a later comment does not pick it up.
func (s *CRService) discardComment(ctx context.Context, rel string, staged bool) {
	if staged {
		if err := s.git.Unstage(ctx, rel); err != nil {
			s.logger.Warn("could not unstage abandoned comment", "path", rel, "error", err)
		}
	}
	abs := filepath.Join(s.git.Root(), filepath.FromSlash(rel))
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("could not remove abandoned comment", "path", rel, "error", err)
	}
}

// NormalizeComment drops marker lines (when stripMarkers is set), collapses
// runs of blank lines into one and trims blank lines at both ends.
func NormalizeComment(text string, stripMarkers bool) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if stripMarkers && strings.HasPrefix(line, CommentMarker) {
			continue
		}
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if len(out) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func commentTemplate(item *model.Item) string {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s Comment on %s (%s, %s)\n", CommentMarker, item.SHA1, item.Profile, item.State)
	if item.Subject != "" {
		fmt.Fprintf(&b, "%s   %s\n", CommentMarker, item.Subject)
	}
	fmt.Fprintf(&b, "%s\n", CommentMarker)
	fmt.Fprintf(&b, "%s Lines starting with '%s' are ignored. An empty comment is not recorded.\n", CommentMarker, CommentMarker)
	return b.String()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._@-]+`)

func filenameSafe(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "unknown"
	}
	return s
}
