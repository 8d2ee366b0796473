package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cr-go/internal/age"
	"cr-go/internal/config"
	"cr-go/internal/contacts"
	"cr-go/internal/cr"
	"cr-go/internal/editor"
	"cr-go/internal/encryption"
	"cr-go/internal/git"
	"cr-go/internal/index"
	"cr-go/internal/layout"
	"cr-go/internal/model"
	"cr-go/internal/outbox"
)

// CRApp is the application layer between the CLI and CRService.
// It constructs all dependencies from config, resolves command line choices
// against configured defaults, and releases resources on Close.
type CRApp struct {
	cfg       *config.Config
	repo      *git.Repo
	index     *index.SQLiteIndex
	outbox    cr.Outbox
	encryptor cr.Encryptor
	service   *cr.CRService
	logger    cr.Logger
	clock     cr.Clock
	op        *Operation
	logFile   *os.File
}

// NewCRApp creates a fully wired CRApp from the given config.
// operation identifies the CLI command being run (e.g. "Overdue", "Comment").
// The caller must call Close when done.
func NewCRApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*CRApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", cr.ErrConfig, err)
	}

	clock := cr.RealClock{}
	op := NewOperation(operation, parameters, clock.Now())

	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	fail := func(err error) (*CRApp, error) {
		logger.Error("initialization failed", "operation", operation, "error", err)
		logFile.Close()
		return nil, err
	}

	repo, err := git.Open(ctx, cfg.LedgerDir, cfg.Git.Binary, cfg.Git.Remote, logger)
	if err != nil {
		return fail(fmt.Errorf("opening ledger: %w", err))
	}

	ob, err := outbox.NewOutboxFromConfig(ctx, cfg.Outbox)
	if err != nil {
		return fail(fmt.Errorf("%w: creating outbox: %v", cr.ErrConfig, err))
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fail(fmt.Errorf("%w: creating encryptor: %v", cr.ErrConfig, err))
	}

	idx, err := index.NewSQLiteIndex()
	if err != nil {
		return fail(fmt.Errorf("creating ledger index: %w", err))
	}

	resolver := contacts.NewResolver(repo.Root(), logger)
	svc := cr.NewCRService(repo, idx, resolver, editor.New(), ob, enc, logger, clock)

	logger.Info("operation started", "operation", operation, "parameters", parameters, "ledger", repo.Root())

	return &CRApp{
		cfg:       cfg,
		repo:      repo,
		index:     idx,
		outbox:    ob,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		clock:     clock,
		op:        op,
		logFile:   logFile,
	}, nil
}

// OverdueRequest carries the overdue options given on the command line.
type OverdueRequest struct {
	Profile      string // empty reports all profiles
	Threshold    int    // negative uses the configured threshold
	Weekdays     bool
	BusinessDays bool
	Priority     string
}

// Overdue builds the overdue report. A nil report means nothing is overdue.
func (a *CRApp) Overdue(ctx context.Context, req OverdueRequest) (*model.OverdueReport, error) {
	calc, err := a.calculator(req.Weekdays, req.BusinessDays)
	if err != nil {
		return nil, a.op.Record(err)
	}

	threshold := req.Threshold
	if threshold < 0 {
		threshold = a.cfg.Overdue.Threshold
	}

	report, err := a.service.Overdue(ctx, cr.OverdueOptions{
		Profile:    req.Profile,
		Threshold:  threshold,
		Calculator: calc,
		Priority:   req.Priority,
	})
	return report, a.op.Record(err)
}

// calculator picks the age model from the flags, falling back to the
// configured one, and loads the ledger's holiday calendar when it is needed.
func (a *CRApp) calculator(weekdays, business bool) (*age.Calculator, error) {
	def, err := age.ParseStrategy(a.cfg.Overdue.AgeModel)
	if err != nil {
		return nil, fmt.Errorf("%w: overdue.age_model: %v", cr.ErrConfig, err)
	}
	strategy, err := age.Select(weekdays, business, def)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cr.ErrUsage, err)
	}

	var holidays age.Holidays
	if strategy == age.Business {
		path := filepath.Join(a.repo.Root(), layout.ConfigDir, layout.HolidaysFile)
		holidays, err = age.LoadHolidays(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", cr.ErrConfig, err)
		}
		a.logger.Debug("holiday calendar loaded", "path", path, "days", holidays.Len())
	}
	return age.NewCalculator(strategy, holidays), nil
}

// PublishReport stores the report in the configured outbox and returns the
// name it was stored under.
func (a *CRApp) PublishReport(report *model.OverdueReport) (string, error) {
	name, err := a.service.PublishReport(report)
	return name, a.op.Record(err)
}

// Comment attaches a comment to an item. See cr.CRService.Comment.
func (a *CRApp) Comment(ctx context.Context, sha1 string, paragraphs []string) (*cr.CommentResult, error) {
	res, err := a.service.Comment(ctx, sha1, paragraphs)
	return res, a.op.Record(err)
}

// Check validates the ledger layout.
func (a *CRApp) Check(ctx context.Context) (*cr.LedgerSummary, error) {
	summary, err := a.service.CheckLedger(ctx)
	return summary, a.op.Record(err)
}

// FetchReport copies a published report from the outbox to w. Encrypted
// reports are decrypted with the identity file; "test" payloads are
// unwrapped without one.
func (a *CRApp) FetchReport(name, identityPath string, w io.Writer) error {
	return a.op.Record(a.fetchReport(name, identityPath, w))
}

func (a *CRApp) fetchReport(name, identityPath string, w io.Writer) error {
	switch filepath.Ext(name) {
	case ".age":
		if identityPath == "" {
			return fmt.Errorf("%w: %s is encrypted; an identity file is required", cr.ErrUsage, name)
		}
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(a.outbox.Get(name, pw))
		}()
		err := encryption.DecryptWithIdentities(identityPath, pr, w)
		pr.Close()
		return err
	case ".test":
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(a.outbox.Get(name, pw))
		}()
		err := encryption.StripTestHeader(pr, w)
		pr.Close()
		return err
	default:
		return a.outbox.Get(name, w)
	}
}

// Close finishes the operation record and releases the index and log file.
func (a *CRApp) Close() error {
	var firstErr error

	a.op.Finish(a.clock.Now())
	a.logger.Info("operation finished", "operation", a.op.Operation, "status", a.op.Status, "duration", a.op.Duration())

	if err := a.index.Close(); err != nil {
		firstErr = fmt.Errorf("closing ledger index: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
