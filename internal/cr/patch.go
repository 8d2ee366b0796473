package cr

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

// patchHeader is the mail header of a format-patch file.
type patchHeader struct {
	Author  string
	Date    time.Time
	Subject string
}

// readPatchHeader parses the header of a `git format-patch` file. The mbox
// "From <sha1> <date>" separator line is optional.
func readPatchHeader(r io.Reader) (*patchHeader, error) {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(5); err == nil && string(peek) == "From " {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("reading mbox separator: %w", err)
		}
	}

	h, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("reading patch header: %w", err)
	}
	mh := mail.Header{Header: message.Header{Header: h}}

	from, err := mh.AddressList("From")
	if err != nil {
		return nil, fmt.Errorf("parsing From: %w", err)
	}
	if len(from) == 0 {
		return nil, fmt.Errorf("patch has no From header")
	}

	date, err := mh.Date()
	if err != nil {
		return nil, fmt.Errorf("parsing Date: %w", err)
	}

	subject, err := mh.Subject()
	if err != nil {
		return nil, fmt.Errorf("parsing Subject: %w", err)
	}

	return &patchHeader{
		Author:  formatAddress(from[0]),
		Date:    date,
		Subject: trimPatchPrefix(subject),
	}, nil
}

func formatAddress(a *mail.Address) string {
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

// trimPatchPrefix removes a leading "[PATCH ...]" tag.
func trimPatchPrefix(subject string) string {
	if strings.HasPrefix(subject, "[PATCH") {
		if i := strings.Index(subject, "]"); i >= 0 {
			return strings.TrimSpace(subject[i+1:])
		}
	}
	return subject
}
