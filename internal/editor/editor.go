// Package editor opens the user's text editor on a scratch file.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"cr-go/internal/cr"
)

// ErrNoTerminal is returned when an interactive editor is needed but there is
// no terminal to run it on.
var ErrNoTerminal = errors.New("no terminal available for the editor; pass the text on the command line instead")

// Command is an editor program run on a scratch file.
type Command struct {
	command string // shell command line; the file name is appended
	stdin   *os.File
	stdout  io.Writer
	stderr  io.Writer
}

var _ cr.Editor = (*Command)(nil)

// New returns the editor configured in the environment. It looks at
// $GIT_EDITOR, $VISUAL and $EDITOR in that order and falls back to vi.
func New() *Command {
	cmd := "vi"
	for _, v := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if e := strings.TrimSpace(os.Getenv(v)); e != "" {
			cmd = e
			break
		}
	}
	return &Command{command: cmd, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// NewCommand returns an editor running command, attached to the process's
// standard streams.
func NewCommand(command string) *Command {
	return &Command{command: command, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// Edit writes initial to a scratch file, runs the editor on it and returns
// what the file holds afterwards.
func (c *Command) Edit(ctx context.Context, initial string) (string, error) {
	if !term.IsTerminal(int(c.stdin.Fd())) {
		return "", ErrNoTerminal
	}

	f, err := os.CreateTemp("", "cr-comment-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := io.WriteString(f, initial); err != nil {
		f.Close()
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing scratch file: %w", err)
	}

	if err := c.run(ctx, path); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading scratch file: %w", err)
	}
	return string(data), nil
}

// run starts the editor through the shell so that commands such as
// "code --wait" work.
func (c *Command) run(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", c.command+` "$@"`, c.command, path)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", c.command, err)
	}
	return nil
}
