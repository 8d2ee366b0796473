// Package record encodes review events as ledger commit messages and
// recovers them again.
//
// A record is a header of "Label: value" lines starting with the State
// label, optionally followed by a blank line and a free-text message that
// runs to the end of the block:
//
//	State: concerns
//	Reviewer: alice
//	Reason: missing tests
//	Timestamp: 2026-10-15T10:00:00Z
//
//	The retry loop never gives up.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is a lifecycle state. The set is open: states this binary does not
// know still decode, as KindUnrecognized.
type State string

const (
	StateNew      State = "new"
	StateReview   State = "review"
	StateConcerns State = "concerns"
	StateApproved State = "approved"
	StateComment  State = "comment"
	StateLocked   State = "locked"
)

// Known reports whether s is one of the lifecycle states handled here.
func (s State) Known() bool {
	switch s {
	case StateNew, StateReview, StateConcerns, StateApproved, StateComment, StateLocked:
		return true
	}
	return false
}

// Header labels, in encoding order.
const (
	labelState     = "State"
	labelReviewer  = "Reviewer"
	labelAuthor    = "Author"
	labelReason    = "Reason"
	labelTimestamp = "Timestamp"
)

// TimestampLayout is the encoding of the Timestamp header.
const TimestampLayout = time.RFC3339

// ErrMalformed is returned by Decode for blocks that start with a State
// header but cannot be parsed strictly.
var ErrMalformed = errors.New("malformed record")

// Record is one audit event in an item's lifecycle.
type Record struct {
	State     State
	Reviewer  string
	Author    string
	Reason    string
	Message   string
	Timestamp time.Time
}

// Kind tags the outcome of decoding a block.
type Kind int

const (
	// KindNone means the block carries no State header. It is not an audit
	// record and should be skipped.
	KindNone Kind = iota
	// KindRecord is a record with a known state.
	KindRecord
	// KindUnrecognized is a record whose state this binary does not know.
	// Its fields are still populated.
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindUnrecognized:
		return "unrecognized"
	default:
		return "none"
	}
}

// Message is the tagged result of Decode.
type Message struct {
	Kind   Kind
	Record Record
}

// Usable reports whether the decoded block is a record with a known state.
func (m Message) Usable() bool {
	return m.Kind == KindRecord
}

// Encode renders r as a commit message. The output is deterministic: labels
// always appear in the same order, empty fields are omitted and the message
// is written verbatim. Header values are written as given except that line
// breaks become spaces.
func Encode(r Record) string {
	var b strings.Builder
	writeField(&b, labelState, string(r.State))
	writeField(&b, labelReviewer, r.Reviewer)
	writeField(&b, labelAuthor, r.Author)
	writeField(&b, labelReason, r.Reason)
	if !r.Timestamp.IsZero() {
		writeField(&b, labelTimestamp, r.Timestamp.Format(TimestampLayout))
	}
	if r.Message != "" {
		b.WriteString("\n")
		b.WriteString(r.Message)
	}
	return b.String()
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	value = headerBreaks.Replace(value)
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

// Decode parses a commit message. Blocks without a leading State header
// decode to KindNone without error.
func Decode(text string) (Message, error) {
	lines := strings.Split(text, "\n")

	label, value, ok := splitField(lines[0])
	if !ok || label != labelState || value == "" {
		return Message{Kind: KindNone}, nil
	}

	var r Record
	seen := make(map[string]bool)
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		label, value, ok := splitField(line)
		if !ok {
			return Message{}, fmt.Errorf("%w: header line %d: %q", ErrMalformed, i+1, line)
		}
		if seen[label] {
			return Message{}, fmt.Errorf("%w: duplicate %s header", ErrMalformed, label)
		}
		seen[label] = true

		switch label {
		case labelState:
			r.State = State(value)
		case labelReviewer:
			r.Reviewer = value
		case labelAuthor:
			r.Author = value
		case labelReason:
			r.Reason = value
		case labelTimestamp:
			ts, err := time.Parse(TimestampLayout, strings.TrimSpace(value))
			if err != nil {
				return Message{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformed, value, err)
			}
			r.Timestamp = ts
		default:
			// Labels from newer writers are ignored.
		}
	}

	if i < len(lines) {
		r.Message = strings.Join(lines[i+1:], "\n")
	}

	kind := KindRecord
	if !r.State.Known() {
		kind = KindUnrecognized
	}
	return Message{Kind: kind, Record: r}, nil
}

// splitField splits "Label: value". Labels are a single word. Only the one
// space after the colon is dropped; the rest of the value is kept as is.
func splitField(line string) (string, string, bool) {
	label, value, ok := strings.Cut(strings.TrimSuffix(line, "\r"), ":")
	if !ok || label == "" || strings.ContainsAny(label, " \t") {
		return "", "", false
	}
	return label, strings.TrimPrefix(value, " "), true
}
