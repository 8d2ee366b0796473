package cr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cr-go/internal/age"
	"cr-go/internal/model"
	"cr-go/internal/record"
)

// Priorities a report can be sent with.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// excludedFromOverdue are states that never count as overdue.
var excludedFromOverdue = []record.State{record.StateApproved, record.StateLocked}

// OverdueOptions selects what the overdue report covers.
type OverdueOptions struct {
	// Profile limits the report to one profile. Empty means all profiles.
	Profile string
	// Threshold is the minimum age, in the calculator's unit.
	Threshold int
	// Calculator ages items. Required.
	Calculator *age.Calculator
	// Priority is passed through to notification delivery.
	Priority string
}

// Overdue builds the overdue report. A nil report with a nil error means
// nothing is overdue.
func (s *CRService) Overdue(ctx context.Context, opts OverdueOptions) (*model.OverdueReport, error) {
	if opts.Calculator == nil {
		return nil, fmt.Errorf("%w: no age model selected", ErrUsage)
	}
	if opts.Threshold < 0 {
		return nil, fmt.Errorf("%w: negative threshold %d", ErrUsage, opts.Threshold)
	}
	if opts.Priority == "" {
		opts.Priority = PriorityNormal
	}
	explicit := opts.Profile != ""

	items, err := s.ListItems(ctx, opts.Profile)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	aged := make([]*model.AgedItem, len(items))
	for i, item := range items {
		aged[i] = &model.AgedItem{Item: item, Age: opts.Calculator.Age(item.SelectDate, now)}
	}

	if err := s.index.Reset(); err != nil {
		return nil, fmt.Errorf("resetting index: %w", err)
	}
	if err := s.index.PutItems(aged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerInconsistent, err)
	}
	candidates, err := s.index.Overdue(opts.Threshold, excludedFromOverdue)
	if err != nil {
		return nil, fmt.Errorf("selecting overdue items: %w", err)
	}

	report := &model.OverdueReport{
		GeneratedAt: now,
		AgeModel:    opts.Calculator.Strategy().Label(),
		Threshold:   opts.Threshold,
		Priority:    opts.Priority,
	}

	var current *model.ProfileReport
	var concerned []*model.Item
	skipProfile := ""
	for _, it := range candidates {
		if it.Profile == skipProfile {
			continue
		}
		if current == nil || current.Profile != it.Profile {
			set, ignored, err := s.contacts.Resolve(it.Profile, explicit)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrConfig, err)
			}
			if ignored {
				s.logger.Warn("profile left out of overdue report by ignore.overdue; name it with --profile to include it", "profile", it.Profile)
				report.Ignored = append(report.Ignored, it.Profile)
				skipProfile = it.Profile
				continue
			}
			current = &model.ProfileReport{
				Profile:  it.Profile,
				Contacts: set,
				Concerns: make(map[string]*model.ConcernAnnotation),
			}
			report.Profiles = append(report.Profiles, current)
		}

		addToDateGroup(current, it, now.Location())
		current.Count++
		report.Total++
		if it.State == record.StateConcerns {
			concerned = append(concerned, it.Item)
		}
	}

	if report.Total == 0 {
		s.logger.Info("nothing overdue", "profile", opts.Profile, "threshold", opts.Threshold)
		return nil, nil
	}

	annotations, err := s.LatestConcerns(ctx, concerned, opts.Profile)
	if err != nil {
		return nil, err
	}
	for _, pr := range report.Profiles {
		for _, group := range pr.ByDate {
			for _, it := range group.Items {
				if a, ok := annotations[it.SHA1]; ok {
					pr.Concerns[it.SHA1] = a
				}
			}
		}
	}

	s.logger.Info("overdue report built", "total", report.Total, "profiles", len(report.Profiles), "age_model", report.AgeModel)
	return report, nil
}

// addToDateGroup appends an item to the group of its select day. Items
// arrive ordered by select date, so only the last group needs checking.
func addToDateGroup(pr *model.ProfileReport, it *model.AgedItem, loc *time.Location) {
	y, m, d := it.SelectDate.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if n := len(pr.ByDate); n > 0 && pr.ByDate[n-1].Date.Equal(day) {
		pr.ByDate[n-1].Items = append(pr.ByDate[n-1].Items, it)
		return
	}
	pr.ByDate = append(pr.ByDate, &model.DateGroup{Date: day, Items: []*model.AgedItem{it}})
}

// PublishReport hands a report to the outbox, encrypted when an encryptor
// is configured, and returns the name it was stored under.
func (s *CRService) PublishReport(report *model.OverdueReport) (string, error) {
	if s.outbox == nil {
		return "", fmt.Errorf("%w: no outbox configured", ErrConfig)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	name := "overdue-" + report.GeneratedAt.UTC().Format("20060102T150405Z") + ".json"
	payload := bytes.NewBuffer(data)
	if s.encryptor != nil {
		var enc bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &enc); err != nil {
			return "", fmt.Errorf("encrypting report: %w", err)
		}
		payload = &enc
		name += s.encryptor.Extension()
	}

	size := int64(payload.Len())
	if err := s.outbox.Put(name, payload, size); err != nil {
		return "", fmt.Errorf("storing report in outbox: %w", err)
	}

	s.logger.Info("overdue report published", "name", name, "size", size)
	return name, nil
}
