package layout

import (
	"strings"
	"testing"
	"time"

	"cr-go/internal/record"
)

func TestDirForStateFor_Bidirectional(t *testing.T) {
	for state, dir := range stateDirs {
		gotDir, err := DirFor(state)
		if err != nil || gotDir != dir {
			t.Errorf("DirFor(%q) = %q, %v; want %q", state, gotDir, err, dir)
		}
		gotState, err := StateFor(dir)
		if err != nil || gotState != state {
			t.Errorf("StateFor(%q) = %q, %v; want %q", dir, gotState, err, state)
		}
	}

	if _, err := DirFor("escalated"); err == nil {
		t.Error("DirFor() expected error for unknown state")
	}
	if _, err := StateFor("Archive"); err == nil {
		t.Error("StateFor() expected error for unknown directory")
	}
}

func TestPathFor(t *testing.T) {
	selected := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		profile string
		state   record.State
		sha1    string
		want    string
		wantErr bool
	}{
		{name: "new", profile: "payments", state: record.StateNew, sha1: "abc123", want: "payments/Pending/2026-03/abc123.patch"},
		{name: "review", profile: "payments", state: record.StateReview, sha1: "abc123", want: "payments/Review/2026-03/abc123.patch"},
		{name: "concerns", profile: "infra", state: record.StateConcerns, sha1: "def456", want: "infra/Concerns/2026-03/def456.patch"},
		{name: "comment is not an item", profile: "infra", state: record.StateComment, sha1: "def456", wantErr: true},
		{name: "unknown state", profile: "infra", state: "escalated", sha1: "def456", wantErr: true},
		{name: "profile with slash", profile: "a/b", state: record.StateNew, sha1: "def456", wantErr: true},
		{name: "empty sha1", profile: "infra", state: record.StateNew, sha1: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathFor(tt.profile, tt.state, tt.sha1, selected)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PathFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("round trips PathFor", func(t *testing.T) {
		p, err := PathFor("payments", record.StateApproved, "abc123", time.Now())
		if err != nil {
			t.Fatalf("PathFor() error = %v", err)
		}
		ip, err := Parse(p)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if ip.Profile != "payments" || ip.State != record.StateApproved || ip.SHA1 != "abc123" {
			t.Errorf("Parse() = %+v", ip)
		}
	})

	t.Run("accepts deeper buckets", func(t *testing.T) {
		ip, err := Parse("infra/Review/2025/11/deadbeef.patch")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if ip.SHA1 != "deadbeef" || ip.State != record.StateReview {
			t.Errorf("Parse() = %+v", ip)
		}
	})

	for _, bad := range []string{
		"infra/Review/2025-11/deadbeef.txt",
		"infra/deadbeef.patch",
		"infra/Archive/2025-11/deadbeef.patch",
		"infra/Comments/deadbeef/20260101T000000Z-bob.patch",
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			if _, err := Parse(bad); err == nil {
				t.Errorf("Parse(%q) expected error", bad)
			}
		})
	}
}

func TestCommentPath(t *testing.T) {
	got, err := CommentPath("payments/Concerns/2026-03/abc123.patch", "20261015T093000Z-alice.txt")
	if err != nil {
		t.Fatalf("CommentPath() error = %v", err)
	}
	want := "payments/Comments/abc123/20261015T093000Z-alice.txt"
	if got != want {
		t.Errorf("CommentPath() = %q, want %q", got, want)
	}

	if _, err := CommentPath("payments/Concerns/2026-03/abc123.patch", "../escape.txt"); err == nil {
		t.Error("CommentPath() expected error for filename with slash")
	}
}

func TestGlobs(t *testing.T) {
	if got := ItemGlob(""); got != "*/*/**/*.patch" {
		t.Errorf("ItemGlob(\"\") = %q", got)
	}
	if got := ItemGlob("infra"); got != "infra/*/**/*.patch" {
		t.Errorf("ItemGlob(infra) = %q", got)
	}
	if got := SHA1Glob("abc"); got != "*/*/**/abc*.patch" {
		t.Errorf("SHA1Glob(abc) = %q", got)
	}
	if !strings.Contains("infra/Locked/2026-01/abc.patch", LockedMarker) {
		t.Error("LockedMarker does not match a locked path")
	}
}

func TestValidate(t *testing.T) {
	ok := []string{
		"infra/Pending/2026-01/a.patch",
		"infra/Comments/a/20260101T000000Z-bob.txt",
		".code-review/special-days.txt",
		"README.md",
	}
	if err := Validate(ok); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := append(ok, "infra/Archive/2026-01/b.patch", "web/Todo/x.patch")
	err := Validate(bad)
	if err == nil {
		t.Fatal("Validate() expected error for unknown directories")
	}
	if !strings.Contains(err.Error(), "infra/Archive") || !strings.Contains(err.Error(), "web/Todo") {
		t.Errorf("Validate() error = %v, want both directories named", err)
	}
}
