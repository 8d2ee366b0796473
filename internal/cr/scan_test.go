package cr_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"cr-go/internal/cr"
	"cr-go/internal/record"
	"cr-go/internal/testutil"
)

func TestCRService_ListItems(t *testing.T) {
	ctx := context.Background()

	t.Run("returns unlocked items with metadata", func(t *testing.T) {
		f := newFixture(t)
		a, pathA := f.addItem(t, "infra", record.StateNew, "a", day(12))
		b, _ := f.addItem(t, "web", record.StateConcerns, "b", day(1))
		f.addItem(t, "infra", record.StateLocked, "c", day(2))

		items, err := f.svc.ListItems(ctx, "")
		if err != nil {
			t.Fatalf("ListItems() error = %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("len(items) = %d, want 2", len(items))
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Profile < items[j].Profile })

		got := items[0]
		if got.SHA1 != a || got.Profile != "infra" || got.State != record.StateNew || got.Path != pathA {
			t.Errorf("item = %+v", got)
		}
		if !got.SelectDate.Equal(day(12)) {
			t.Errorf("SelectDate = %v, want %v", got.SelectDate, day(12))
		}
		if got.Author != "Dev One <dev@example.com>" {
			t.Errorf("Author = %q", got.Author)
		}
		if got.Subject != "change a" {
			t.Errorf("Subject = %q, want %q", got.Subject, "change a")
		}
		if !got.CommitDate.Equal(day(11)) {
			t.Errorf("CommitDate = %v, want %v", got.CommitDate, day(11))
		}
		if items[1].SHA1 != b || items[1].State != record.StateConcerns {
			t.Errorf("second item = %+v", items[1])
		}
	})

	t.Run("filters by profile", func(t *testing.T) {
		f := newFixture(t)
		f.addItem(t, "infra", record.StateNew, "a", day(12))
		b, _ := f.addItem(t, "web", record.StateReview, "b", day(1))

		items, err := f.svc.ListItems(ctx, "web")
		if err != nil {
			t.Fatalf("ListItems() error = %v", err)
		}
		if len(items) != 1 || items[0].SHA1 != b {
			t.Errorf("ListItems(web) = %v", items)
		}
	})

	t.Run("unknown state directory is a ledger inconsistency", func(t *testing.T) {
		f := newFixture(t)
		f.addItem(t, "infra", record.StateNew, "a", day(12))
		f.git.AddItem(t, "infra/Stale/2026-10/"+testutil.SHA1Hex("x")+".patch", "", day(1))

		_, err := f.svc.ListItems(ctx, "")
		if !errors.Is(err, cr.ErrLedgerInconsistent) {
			t.Errorf("ListItems() error = %v, want ErrLedgerInconsistent", err)
		}
	})

	t.Run("item without history fails the scan", func(t *testing.T) {
		f := newFixture(t)
		sha1 := testutil.SHA1Hex("orphan")
		f.git.WriteFile(t, "infra/Review/2026-10/"+sha1+".patch", testutil.Patch(sha1, "a@example.com", "x", day(1)))

		_, err := f.svc.ListItems(ctx, "")
		if !errors.Is(err, cr.ErrLedgerInconsistent) {
			t.Errorf("ListItems() error = %v, want ErrLedgerInconsistent", err)
		}
	})

	t.Run("unparseable patch header fails the scan", func(t *testing.T) {
		f := newFixture(t)
		f.git.AddItem(t, "infra/Review/2026-10/"+testutil.SHA1Hex("bad")+".patch", "not a patch\n", day(1))

		_, err := f.svc.ListItems(ctx, "")
		if !errors.Is(err, cr.ErrLedgerInconsistent) {
			t.Errorf("ListItems() error = %v, want ErrLedgerInconsistent", err)
		}
	})

	t.Run("empty ledger", func(t *testing.T) {
		f := newFixture(t)
		items, err := f.svc.ListItems(ctx, "")
		if err != nil {
			t.Fatalf("ListItems() error = %v", err)
		}
		if len(items) != 0 {
			t.Errorf("ListItems() = %v, want none", items)
		}
	})
}

func TestCRService_FindItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patch := testutil.Patch("abc", "dev@example.com", "x", day(1))
	f.git.AddItem(t, "infra/Review/2026-10/abc111.patch", patch, day(1))
	f.git.AddItem(t, "web/Locked/2026-10/abc222.patch", patch, day(2))
	f.git.AddItem(t, "web/Approved/2026-09/def333.patch", patch, day(3))

	tests := []struct {
		name    string
		sha1    string
		want    string
		wantErr error
	}{
		{name: "full sha1", sha1: "abc111", want: "infra/Review/2026-10/abc111.patch"},
		{name: "unique prefix", sha1: "def", want: "web/Approved/2026-09/def333.patch"},
		{name: "locked items are found", sha1: "abc2", want: "web/Locked/2026-10/abc222.patch"},
		{name: "ambiguous prefix", sha1: "abc", wantErr: cr.ErrAmbiguous},
		{name: "unknown", sha1: "fff", wantErr: cr.ErrNotFound},
		{name: "path characters", sha1: "../abc", wantErr: cr.ErrUsage},
		{name: "empty", sha1: "", wantErr: cr.ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := f.svc.FindItem(ctx, tt.sha1)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindItem() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindItem() error = %v", err)
			}
			if item.Path != tt.want {
				t.Errorf("Path = %q, want %q", item.Path, tt.want)
			}
		})
	}
}

func TestCRService_CheckLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("counts items per profile and state", func(t *testing.T) {
		f := newFixture(t)
		f.addItem(t, "infra", record.StateNew, "a", day(12))
		f.addItem(t, "infra", record.StateNew, "b", day(13))
		f.addItem(t, "infra", record.StateLocked, "c", day(13))
		f.addItem(t, "web", record.StateApproved, "d", day(1))
		f.git.WriteFile(t, "infra/Comments/"+testutil.SHA1Hex("a")+"/20261015T103000Z-r.txt", "State: comment\n")
		f.git.WriteFile(t, ".code-review/config.toml", "")

		summary, err := f.svc.CheckLedger(ctx)
		if err != nil {
			t.Fatalf("CheckLedger() error = %v", err)
		}
		if summary.Files != 5 {
			t.Errorf("Files = %d, want 5", summary.Files)
		}
		if summary.Counts["infra"][record.StateNew] != 2 ||
			summary.Counts["infra"][record.StateLocked] != 1 ||
			summary.Counts["web"][record.StateApproved] != 1 {
			t.Errorf("Counts = %v", summary.Counts)
		}
	})

	t.Run("reports layout drift", func(t *testing.T) {
		f := newFixture(t)
		f.git.WriteFile(t, "infra/Archive/2026-10/x.patch", "")

		_, err := f.svc.CheckLedger(ctx)
		if !errors.Is(err, cr.ErrLedgerInconsistent) {
			t.Errorf("CheckLedger() error = %v, want ErrLedgerInconsistent", err)
		}
	})

	t.Run("same item in two states", func(t *testing.T) {
		f := newFixture(t)
		f.git.WriteFile(t, "infra/Review/2026-10/abc.patch", "")
		f.git.WriteFile(t, "infra/Approved/2026-10/abc.patch", "")

		_, err := f.svc.CheckLedger(ctx)
		if !errors.Is(err, cr.ErrLedgerInconsistent) {
			t.Errorf("CheckLedger() error = %v, want ErrLedgerInconsistent", err)
		}
	})
}

func TestFixtureClockIsThursday(t *testing.T) {
	if wd := testutil.FixedClock().Now().Weekday(); wd != time.Thursday {
		t.Fatalf("fixture clock weekday = %v", wd)
	}
}
