package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_EnvironmentPrecedence(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "fallback", env: map[string]string{}, want: "vi"},
		{name: "editor", env: map[string]string{"EDITOR": "nano"}, want: "nano"},
		{name: "visual over editor", env: map[string]string{"EDITOR": "nano", "VISUAL": "vim"}, want: "vim"},
		{name: "git editor first", env: map[string]string{"EDITOR": "nano", "VISUAL": "vim", "GIT_EDITOR": "emacs -nw"}, want: "emacs -nw"},
		{name: "blank ignored", env: map[string]string{"GIT_EDITOR": "  ", "EDITOR": "ed"}, want: "ed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
				t.Setenv(v, tt.env[v])
			}
			if got := New().command; got != tt.want {
				t.Errorf("New().command = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand_EditWithoutTerminal(t *testing.T) {
	stdin, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer stdin.Close()

	c := NewCommand("true")
	c.stdin = stdin

	if _, err := c.Edit(context.Background(), "# text\n"); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Edit() error = %v, want ErrNoTerminal", err)
	}
}

func TestCommand_Run(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "scratch.txt")
	if err := os.WriteFile(path, []byte("# guidance\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCommand(`printf 'Looks good.\n' >>`)
	if err := c.run(context.Background(), path); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# guidance\nLooks good.\n" {
		t.Errorf("scratch file = %q", got)
	}

	if err := NewCommand("false").run(context.Background(), path); err == nil {
		t.Error("run() expected error for failing editor")
	}
}
