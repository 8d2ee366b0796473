package cr_test

import (
	"testing"
	"time"

	"cr-go/internal/contacts"
	"cr-go/internal/cr"
	"cr-go/internal/layout"
	"cr-go/internal/outbox"
	"cr-go/internal/record"
	"cr-go/internal/testutil"
)

// fixture wires a CRService to in-process collaborators. The clock reads
// Thursday 2026-10-15 10:30 UTC.
type fixture struct {
	git    *testutil.FakeGit
	clock  *testutil.StubClock
	outbox *outbox.MemoryOutbox
	editor *testutil.StubEditor
	logger *testutil.RecordingLogger
	svc    *cr.CRService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := testutil.NewFakeGit(t)
	f := &fixture{
		git:    g,
		clock:  testutil.FixedClock(),
		outbox: testutil.NewTestOutbox(),
		editor: &testutil.StubEditor{},
		logger: &testutil.RecordingLogger{},
	}
	f.svc = cr.NewCRService(
		g,
		testutil.NewTestIndex(t),
		contacts.NewResolver(g.Root(), cr.NewNopLogger()),
		f.editor,
		f.outbox,
		nil,
		f.logger,
		f.clock,
	)
	return f
}

// addItem places an item selected at the given time and returns its sha1
// and path.
func (f *fixture) addItem(t *testing.T, profile string, state record.State, seed string, selected time.Time) (string, string) {
	t.Helper()
	sha1 := testutil.SHA1Hex(seed)
	path, err := layout.PathFor(profile, state, sha1, selected)
	if err != nil {
		t.Fatalf("PathFor() error = %v", err)
	}
	f.git.AddItem(t, path, testutil.Patch(sha1, "Dev One <dev@example.com>", "change "+seed, selected.Add(-24*time.Hour)), selected)
	return sha1, path
}

// recordConcern appends a concerns commit touching path.
func (f *fixture) recordConcern(path, reviewer, message string, at time.Time) {
	msg := record.Encode(record.Record{
		State:     record.StateConcerns,
		Reviewer:  reviewer,
		Reason:    "needs work",
		Message:   message,
		Timestamp: at,
	})
	f.git.RecordCommit(cr.Commit{AuthorTime: at, Message: msg, Files: []string{path}})
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 9, 0, 0, 0, time.UTC)
}
