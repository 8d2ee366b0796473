// Package contacts resolves who is told about overdue items of a profile.
//
// Two optional TOML files are consulted for every profile, relative to the
// ledger root:
//
//	.code-review/config.toml                    (global)
//	.code-review/profiles/<profile>/config.toml (profile)
//
// with the keys
//
//	[ignore]
//	overdue = "yes"
//
//	[template.select]
//	to = ["dev-team@example.com"]
//
// Neither file overrides the other. Addresses are the union of both and
// the profile is ignored when either file says so.
package contacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// NoContacts is the single element of the set returned for a profile with
// no configured addresses.
const NoContacts = "[none]"

// ErrInvalidValue is returned for configuration values outside the accepted
// vocabulary.
var ErrInvalidValue = errors.New("invalid configuration value")

// Set is a sorted, deduplicated list of addresses.
type Set []string

// None reports whether s is the "no contacts" sentinel.
func (s Set) None() bool {
	return len(s) == 1 && s[0] == NoContacts
}

// Logger receives diagnostics. Args follow slog conventions.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// File is the decoded form of one configuration file.
type File struct {
	Ignore struct {
		Overdue any `toml:"overdue"`
	} `toml:"ignore"`
	Template struct {
		Select struct {
			To any `toml:"to"`
		} `toml:"select"`
	} `toml:"template"`
}

// Resolver reads contact configuration below a ledger root.
type Resolver struct {
	root   string
	logger Logger
}

// NewResolver creates a Resolver for the ledger checked out at root.
func NewResolver(root string, logger Logger) *Resolver {
	return &Resolver{root: root, logger: logger}
}

// GlobalPath returns the path of the global configuration file.
func (r *Resolver) GlobalPath() string {
	return filepath.Join(r.root, ".code-review", "config.toml")
}

// ProfilePath returns the path of a profile's configuration file.
func (r *Resolver) ProfilePath(profile string) string {
	return filepath.Join(r.root, ".code-review", "profiles", profile, "config.toml")
}

// Resolve returns the contacts of a profile and whether it should be left
// out of overdue reports. explicit means the caller asked for this profile
// by name, which overrides an ignore flag.
func (r *Resolver) Resolve(profile string, explicit bool) (Set, bool, error) {
	var addrs []string
	ignored := false

	for _, path := range []string{r.GlobalPath(), r.ProfilePath(profile)} {
		f, err := readFile(path)
		if err != nil {
			return nil, false, err
		}
		if f == nil {
			continue
		}

		ign, err := parseBool(f.Ignore.Overdue)
		if err != nil {
			return nil, false, fmt.Errorf("%s: ignore.overdue: %w", path, err)
		}
		ignored = ignored || ign

		to, err := parseList(f.Template.Select.To)
		if err != nil {
			return nil, false, fmt.Errorf("%s: template.select.to: %w", path, err)
		}
		addrs = append(addrs, to...)
	}

	if ignored && explicit {
		r.logger.Warn("profile is configured with ignore.overdue but was requested explicitly; including it", "profile", profile)
		ignored = false
	}

	return newSet(addrs), ignored, nil
}

func readFile(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading contact config %s: %w", path, err)
	}
	return &f, nil
}

// parseBool accepts TOML booleans and integers, and the strings
// true/false/1/0/yes/no in any case. A missing value is false.
func parseBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case int64:
		switch x {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %v (want true/false/1/0/yes/no)", ErrInvalidValue, v)
}

// parseList accepts a single string or a list of strings.
func parseList(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{x}, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %v is not a string", ErrInvalidValue, e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidValue, v)
}

func newSet(addrs []string) Set {
	seen := make(map[string]bool, len(addrs))
	var out Set
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	if len(out) == 0 {
		return Set{NoContacts}
	}
	sort.Strings(out)
	return out
}
