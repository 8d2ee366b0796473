// Package layout maps lifecycle states to ledger paths and back.
//
// Primary items live at <profile>/<StateDir>/<YYYY>-<MM>/<sha1>.patch and
// comments at <profile>/Comments/<sha1>/<timestamp>-<author>.txt. The
// directory between the state directory and the patch file is opaque when
// parsing, so ledgers that bucket items differently still parse.
package layout

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"cr-go/internal/record"
)

const (
	// PatchExt is the extension of primary item files.
	PatchExt = ".patch"

	// CommentsDir holds freestanding comments.
	CommentsDir = "Comments"

	// LockedDir holds items somebody is currently working on.
	LockedDir = "Locked"

	// LockedMarker is the path substring that excludes an entry from
	// unlocked listings.
	LockedMarker = "/" + LockedDir + "/"

	// ConfigDir holds ledger-wide configuration and the holiday calendar.
	ConfigDir = ".code-review"

	// HolidaysFile lists the non-working days of the business age model,
	// relative to ConfigDir.
	HolidaysFile = "special-days.txt"
)

var stateDirs = map[record.State]string{
	record.StateNew:      "Pending",
	record.StateReview:   "Review",
	record.StateConcerns: "Concerns",
	record.StateApproved: "Approved",
	record.StateLocked:   LockedDir,
	record.StateComment:  CommentsDir,
}

var dirStates = func() map[string]record.State {
	m := make(map[string]record.State, len(stateDirs))
	for s, d := range stateDirs {
		m[d] = s
	}
	return m
}()

// DirFor returns the directory name for a state.
func DirFor(s record.State) (string, error) {
	d, ok := stateDirs[s]
	if !ok {
		return "", fmt.Errorf("no ledger directory for state %q", s)
	}
	return d, nil
}

// StateFor returns the state a directory name encodes.
func StateFor(dir string) (record.State, error) {
	s, ok := dirStates[dir]
	if !ok {
		return "", fmt.Errorf("unknown state directory %q", dir)
	}
	return s, nil
}

// ItemPath is a parsed primary item path.
type ItemPath struct {
	Profile string
	State   record.State
	SHA1    string
	Path    string
}

// PathFor returns the ledger path of an item in the given state. The
// select date picks the month bucket.
func PathFor(profile string, state record.State, sha1 string, selectDate time.Time) (string, error) {
	if err := checkComponent("profile", profile); err != nil {
		return "", err
	}
	if err := checkComponent("sha1", sha1); err != nil {
		return "", err
	}
	if state == record.StateComment {
		return "", fmt.Errorf("comments are not primary items")
	}
	dir, err := DirFor(state)
	if err != nil {
		return "", err
	}
	return path.Join(profile, dir, selectDate.Format("2006-01"), sha1+PatchExt), nil
}

// Parse decodes a primary item path.
func Parse(p string) (ItemPath, error) {
	p = path.Clean(p)
	if !strings.HasSuffix(p, PatchExt) {
		return ItemPath{}, fmt.Errorf("not an item path: %s", p)
	}
	parts := strings.Split(p, "/")
	if len(parts) < 3 {
		return ItemPath{}, fmt.Errorf("item path too short: %s", p)
	}
	state, err := StateFor(parts[1])
	if err != nil {
		return ItemPath{}, fmt.Errorf("%s: %w", p, err)
	}
	if state == record.StateComment {
		return ItemPath{}, fmt.Errorf("not an item path: %s", p)
	}
	sha1 := strings.TrimSuffix(parts[len(parts)-1], PatchExt)
	if sha1 == "" {
		return ItemPath{}, fmt.Errorf("empty sha1 in %s", p)
	}
	return ItemPath{Profile: parts[0], State: state, SHA1: sha1, Path: p}, nil
}

// CommentPath substitutes the Comments directory for the state directory of
// an item path and returns where a comment file named filename belongs.
func CommentPath(itemPath, filename string) (string, error) {
	ip, err := Parse(itemPath)
	if err != nil {
		return "", err
	}
	if err := checkComponent("filename", filename); err != nil {
		return "", err
	}
	return path.Join(ip.Profile, CommentsDir, ip.SHA1, filename), nil
}

// ItemGlob returns the pathspec glob matching every primary item of a
// profile, or of all profiles when profile is empty.
func ItemGlob(profile string) string {
	if profile == "" {
		profile = "*"
	}
	return profile + "/*/**/*" + PatchExt
}

// SHA1Glob returns the pathspec glob matching items whose sha1 starts with
// prefix, in any profile and state.
func SHA1Glob(prefix string) string {
	return "*/*/**/" + prefix + "*" + PatchExt
}

// Validate checks listed ledger paths against the state table and returns an
// error naming every unknown state directory.
func Validate(paths []string) error {
	unknown := make(map[string]bool)
	for _, p := range paths {
		parts := strings.Split(path.Clean(p), "/")
		if len(parts) < 3 || strings.HasPrefix(parts[0], ".") {
			continue
		}
		if _, ok := dirStates[parts[1]]; !ok {
			unknown[parts[0]+"/"+parts[1]] = true
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	dirs := make([]string, 0, len(unknown))
	for d := range unknown {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return fmt.Errorf("ledger layout drift: unknown state directories: %s", strings.Join(dirs, ", "))
}

func checkComponent(what, v string) error {
	if v == "" || v == "." || v == ".." || strings.ContainsAny(v, "/\\") {
		return fmt.Errorf("invalid %s %q", what, v)
	}
	return nil
}
