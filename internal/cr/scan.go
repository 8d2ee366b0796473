package cr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cr-go/internal/layout"
	"cr-go/internal/model"
)

// ListItems returns every unlocked item of a profile, or of all profiles
// when profile is empty. Items come back in no particular order. An entry
// whose metadata cannot be loaded fails the whole scan, since dropping it
// would skew overdue counts.
func (s *CRService) ListItems(ctx context.Context, profile string) ([]*model.Item, error) {
	paths, err := s.git.ListFiles(ctx, layout.ItemGlob(profile), layout.LockedMarker)
	if err != nil {
		return nil, fmt.Errorf("listing ledger items: %w", err)
	}
	paths = dropHidden(paths)

	if err := layout.Validate(paths); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerInconsistent, err)
	}

	items := make([]*model.Item, 0, len(paths))
	for _, p := range paths {
		item, err := s.loadItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLedgerInconsistent, p, err)
		}
		items = append(items, item)
	}

	s.logger.Debug("ledger scanned", "profile", profile, "items", len(items))
	return items, nil
}

// FindItem locates a single item by its full or abbreviated sha1. Locked
// items are found too.
func (s *CRService) FindItem(ctx context.Context, sha1 string) (*model.Item, error) {
	if sha1 == "" || strings.ContainsAny(sha1, "/*?[\\") {
		return nil, fmt.Errorf("%w: invalid sha1 %q", ErrUsage, sha1)
	}

	paths, err := s.git.ListFiles(ctx, layout.SHA1Glob(sha1), "")
	if err != nil {
		return nil, fmt.Errorf("searching ledger for %s: %w", sha1, err)
	}
	paths = dropHidden(paths)

	switch len(paths) {
	case 0:
		return nil, fmt.Errorf("%w: no item for %s", ErrNotFound, sha1)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s matches %d items: %s", ErrAmbiguous, sha1, len(paths), strings.Join(paths, ", "))
	}

	item, err := s.loadItem(ctx, paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLedgerInconsistent, paths[0], err)
	}
	return item, nil
}

// loadItem resolves the metadata of the item stored at path.
func (s *CRService) loadItem(ctx context.Context, path string) (*model.Item, error) {
	ip, err := layout.Parse(path)
	if err != nil {
		return nil, err
	}

	selected, err := s.git.FirstAdded(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("looking up select date: %w", err)
	}

	f, err := os.Open(filepath.Join(s.git.Root(), filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("opening patch: %w", err)
	}
	defer f.Close()

	hdr, err := readPatchHeader(f)
	if err != nil {
		return nil, err
	}

	return &model.Item{
		SHA1:       ip.SHA1,
		Profile:    ip.Profile,
		Path:       ip.Path,
		State:      ip.State,
		SelectDate: selected,
		Author:     hdr.Author,
		CommitDate: hdr.Date,
		Subject:    hdr.Subject,
	}, nil
}

// dropHidden removes paths below dot directories such as .code-review.
func dropHidden(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if strings.HasPrefix(p, ".") {
			continue
		}
		out = append(out, p)
	}
	return out
}
