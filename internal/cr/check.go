package cr

import (
	"context"
	"fmt"

	"cr-go/internal/layout"
	"cr-go/internal/model"
	"cr-go/internal/record"
)

// LedgerSummary is the result of a layout check.
type LedgerSummary struct {
	Files  int
	Counts map[string]map[record.State]int // profile -> state -> items
}

// CheckLedger validates the ledger layout against the state table and counts
// items per profile and state.
func (s *CRService) CheckLedger(ctx context.Context) (*LedgerSummary, error) {
	paths, err := s.git.ListFiles(ctx, "*/*/**", "")
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	paths = dropHidden(paths)
	if err := layout.Validate(paths); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerInconsistent, err)
	}

	var aged []*model.AgedItem
	for _, p := range paths {
		ip, err := layout.Parse(p)
		if err != nil {
			continue // comments and other non-item files
		}
		aged = append(aged, &model.AgedItem{Item: &model.Item{SHA1: ip.SHA1, Profile: ip.Profile, Path: ip.Path, State: ip.State}})
	}

	if err := s.index.Reset(); err != nil {
		return nil, fmt.Errorf("resetting index: %w", err)
	}
	if err := s.index.PutItems(aged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerInconsistent, err)
	}
	counts, err := s.index.CountByProfile()
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	return &LedgerSummary{Files: len(paths), Counts: counts}, nil
}
