package cr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"cr-go/internal/layout"
	"cr-go/internal/model"
	"cr-go/internal/record"
)

// explanationWidth is the column concern explanations are wrapped at.
const explanationWidth = 72

// LatestConcerns replays ledger history oldest first and returns, for each
// of the given items still in the concerns state, the most recent concern
// recorded against it. profile restricts the replay to one profile's
// subtree; empty replays the whole ledger.
func (s *CRService) LatestConcerns(ctx context.Context, concerned []*model.Item, profile string) (map[string]*model.ConcernAnnotation, error) {
	open := make(map[string]*model.Item, len(concerned))
	for _, item := range concerned {
		if item.State == record.StateConcerns {
			open[item.SHA1] = item
		}
	}
	result := make(map[string]*model.ConcernAnnotation)
	if len(open) == 0 {
		return result, nil
	}

	q := LogQuery{Grep: string(record.StateConcerns), Reverse: true}
	if profile != "" {
		q.Paths = []string{profile + "/"}
	}
	commits, err := s.git.Log(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("reading concern history: %w", err)
	}

	for _, c := range commits {
		msg, err := record.Decode(c.Message)
		if err != nil {
			s.logger.Warn("skipping unreadable ledger record", "commit", c.Hash, "error", err)
			continue
		}
		if !msg.Usable() || msg.Record.State != record.StateConcerns {
			continue
		}

		sha1, ok := s.commitItem(c)
		if !ok {
			continue
		}
		item, ok := open[sha1]
		if !ok {
			continue
		}

		result[sha1] = newAnnotation(c, msg.Record, item)
	}

	return result, nil
}

// commitItem finds the single item a historical commit touched.
func (s *CRService) commitItem(c Commit) (string, bool) {
	var sha1 string
	for _, f := range c.Files {
		ip, err := layout.Parse(f)
		if err != nil {
			continue
		}
		if sha1 != "" && sha1 != ip.SHA1 {
			s.logger.Warn("ledger commit touches several items; skipping", "commit", c.Hash)
			return "", false
		}
		sha1 = ip.SHA1
	}
	return sha1, sha1 != ""
}

func newAnnotation(c Commit, r record.Record, item *model.Item) *model.ConcernAnnotation {
	date := r.Timestamp
	if date.IsZero() {
		date = c.AuthorTime
	}
	return &model.ConcernAnnotation{
		SHA1:        item.SHA1,
		Date:        date,
		Explanation: wrapExplanation(r.Message),
		Reason:      r.Reason,
		Reviewer:    r.Reviewer,
		State:       item.State,
		SelectDate:  item.SelectDate,
		Author:      item.Author,
	}
}

func wrapExplanation(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return ansi.Wordwrap(text, explanationWidth, "")
}
