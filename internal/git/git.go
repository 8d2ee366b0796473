// Package git runs the git command line against the ledger checkout.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cr-go/internal/cr"
)

// CommandError describes a git invocation that failed.
type CommandError struct {
	Args     []string
	ExitCode int // -1 when git did not run to completion
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s", strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	} else {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Field separators for log output.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// Repo is the ledger working tree. It implements cr.Git.
type Repo struct {
	root   string
	binary string
	remote string
	logger cr.Logger
}

var _ cr.Git = (*Repo)(nil)

// Open resolves the working tree containing dir. binary defaults to "git"
// and an empty remote pushes to the branch's upstream.
func Open(ctx context.Context, dir, binary, remote string, logger cr.Logger) (*Repo, error) {
	if binary == "" {
		binary = "git"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving ledger directory: %w", err)
	}

	r := &Repo{root: abs, binary: binary, remote: remote, logger: logger}
	top, err := r.run(ctx, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s is not a git working tree: %w", abs, err)
	}
	r.root = strings.TrimSpace(top)
	return r, nil
}

func (r *Repo) Root() string {
	return r.root
}

// run executes git in the working tree and returns its standard output.
func (r *Repo) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.root
	cmd.Stdin = stdin
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("executing git command", "args", args)

	if err := cmd.Run(); err != nil {
		ce := &CommandError{
			Args:     args,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ce.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			ce.Err = ctx.Err()
		}
		return "", ce
	}
	return stdout.String(), nil
}

// ListFiles lists tracked paths matching a glob pathspec. Patterns use git's
// glob magic: "*" stays within one directory and "**/" spans any number.
func (r *Repo) ListFiles(ctx context.Context, pattern, exclude string) ([]string, error) {
	out, err := r.run(ctx, nil, "ls-files", "-z", "--", ":(glob)"+pattern)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p == "" {
			continue
		}
		if exclude != "" && strings.Contains("/"+p, exclude) {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Log returns commits with their full messages and touched files.
func (r *Repo) Log(ctx context.Context, q cr.LogQuery) ([]cr.Commit, error) {
	args := []string{"log", "--no-color", "--format=" + recordSep + "%H" + fieldSep + "%at" + fieldSep + "%B" + fieldSep, "--name-only", "--no-renames"}
	if q.Grep != "" {
		args = append(args, "--fixed-strings", "--grep="+q.Grep)
	}
	if q.Reverse {
		args = append(args, "--reverse")
	}
	if len(q.Paths) > 0 {
		args = append(args, "--")
		args = append(args, q.Paths...)
	}

	out, err := r.run(ctx, nil, args...)
	if err != nil {
		return nil, err
	}
	return parseLog(out)
}

func parseLog(out string) ([]cr.Commit, error) {
	var commits []cr.Commit
	for _, rec := range strings.Split(out, recordSep) {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		fields := strings.SplitN(rec, fieldSep, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected git log record %q", rec)
		}

		secs, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("commit %s: bad author time %q", fields[0], fields[1])
		}

		c := cr.Commit{
			Hash:       fields[0],
			AuthorTime: time.Unix(secs, 0),
			Message:    fields[2],
		}
		for _, line := range strings.Split(fields[3], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				c.Files = append(c.Files, line)
			}
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// FirstAdded returns the author time of the commit that added path, following
// it across renames.
func (r *Repo) FirstAdded(ctx context.Context, path string) (time.Time, error) {
	out, err := r.run(ctx, nil, "log", "--follow", "--diff-filter=A", "--format=%at", "--", path)
	if err != nil {
		return time.Time{}, err
	}

	lines := strings.Fields(out)
	if len(lines) == 0 {
		return time.Time{}, fmt.Errorf("%w: no commit adds %s", cr.ErrNotFound, path)
	}
	// Newest first; the original addition is last.
	secs, err := strconv.ParseInt(lines[len(lines)-1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad author time %q for %s", lines[len(lines)-1], path)
	}
	return time.Unix(secs, 0), nil
}

// UserIdentity returns user.email, or user.name when no email is set.
func (r *Repo) UserIdentity(ctx context.Context) (string, error) {
	for _, key := range []string{"user.email", "user.name"} {
		out, err := r.run(ctx, nil, "config", "--get", key)
		if err != nil {
			var ce *CommandError
			// git config exits 1 for an unset key.
			if errors.As(err, &ce) && ce.ExitCode == 1 {
				continue
			}
			return "", err
		}
		if v := strings.TrimSpace(out); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: neither user.email nor user.name is set in git", cr.ErrConfig)
}

func (r *Repo) Add(ctx context.Context, path string) error {
	_, err := r.run(ctx, nil, "add", "--", path)
	return err
}

func (r *Repo) Unstage(ctx context.Context, path string) error {
	_, err := r.run(ctx, nil, "rm", "--cached", "--quiet", "--ignore-unmatch", "--", path)
	return err
}

// Commit commits paths with message and returns the new HEAD. With no paths
// the whole index is committed.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	args := []string{"commit", "--quiet", "--cleanup=verbatim", "-F", "-"}
	if len(paths) > 0 {
		args = append(args, "--only", "--")
		args = append(args, paths...)
	}
	if _, err := r.run(ctx, strings.NewReader(message), args...); err != nil {
		return "", err
	}
	out, err := r.run(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) Push(ctx context.Context) error {
	args := []string{"push", "--quiet"}
	if r.remote != "" {
		args = append(args, r.remote)
	}
	_, err := r.run(ctx, nil, args...)
	return err
}
