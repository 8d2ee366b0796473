package contacts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Info(string, ...any)      {}
func (l *recordingLogger) Warn(msg string, _ ...any) { l.warnings = append(l.warnings, msg) }

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("no configuration yields sentinel", func(t *testing.T) {
		r := NewResolver(t.TempDir(), &recordingLogger{})
		set, ignored, err := r.Resolve("infra", false)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if ignored {
			t.Error("ignored = true, want false")
		}
		if !set.None() {
			t.Errorf("set = %v, want sentinel", set)
		}
		if len(set) == 0 {
			t.Error("sentinel must not be an empty set")
		}
	})

	t.Run("merges global and profile addresses", func(t *testing.T) {
		root := t.TempDir()
		r := NewResolver(root, &recordingLogger{})
		writeConfig(t, r.GlobalPath(), `
[template.select]
to = ["leads@example.com", "ops@example.com"]
`)
		writeConfig(t, r.ProfilePath("infra"), `
template.select.to = "ops@example.com"
`)
		writeConfig(t, r.ProfilePath("web"), `
[template.select]
to = ["web@example.com"]
`)

		set, _, err := r.Resolve("infra", false)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := Set{"leads@example.com", "ops@example.com"}
		if !reflect.DeepEqual(set, want) {
			t.Errorf("set = %v, want %v", set, want)
		}

		set, _, err = r.Resolve("web", false)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want = Set{"leads@example.com", "ops@example.com", "web@example.com"}
		if !reflect.DeepEqual(set, want) {
			t.Errorf("set = %v, want %v", set, want)
		}
	})

	t.Run("ignored profile is excluded unless explicit", func(t *testing.T) {
		root := t.TempDir()
		logger := &recordingLogger{}
		r := NewResolver(root, logger)
		writeConfig(t, r.ProfilePath("legacy"), `
[ignore]
overdue = "Yes"
[template.select]
to = "legacy@example.com"
`)

		_, ignored, err := r.Resolve("legacy", false)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !ignored {
			t.Error("ignored = false, want true")
		}

		set, ignored, err := r.Resolve("legacy", true)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if ignored {
			t.Error("explicit request: ignored = true, want false")
		}
		if !reflect.DeepEqual(set, Set{"legacy@example.com"}) {
			t.Errorf("set = %v", set)
		}
		if len(logger.warnings) != 1 {
			t.Errorf("warnings = %v, want one override diagnostic", logger.warnings)
		}
	})

	t.Run("global ignore applies to every profile", func(t *testing.T) {
		root := t.TempDir()
		r := NewResolver(root, &recordingLogger{})
		writeConfig(t, r.GlobalPath(), "ignore.overdue = true\n")
		writeConfig(t, r.ProfilePath("infra"), "ignore.overdue = false\n")

		_, ignored, err := r.Resolve("infra", false)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !ignored {
			t.Error("ignored = false, want true")
		}
	})

	t.Run("invalid ignore value is fatal", func(t *testing.T) {
		root := t.TempDir()
		r := NewResolver(root, &recordingLogger{})
		writeConfig(t, r.ProfilePath("infra"), `ignore.overdue = "sometimes"`+"\n")

		_, _, err := r.Resolve("infra", false)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Resolve() error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("broken toml is an error", func(t *testing.T) {
		root := t.TempDir()
		r := NewResolver(root, &recordingLogger{})
		writeConfig(t, r.GlobalPath(), "[ignore\n")

		if _, _, err := r.Resolve("infra", false); err == nil {
			t.Error("Resolve() expected error for broken file")
		}
	})
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      any
		want    bool
		wantErr bool
	}{
		{in: nil, want: false},
		{in: true, want: true},
		{in: false, want: false},
		{in: int64(1), want: true},
		{in: int64(0), want: false},
		{in: int64(2), wantErr: true},
		{in: "TRUE", want: true},
		{in: "no", want: false},
		{in: "1", want: true},
		{in: "0", want: false},
		{in: "YES", want: true},
		{in: "off", wantErr: true},
		{in: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseBool(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBool(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseBool(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
