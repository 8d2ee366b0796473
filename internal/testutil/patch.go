package testutil

import (
	"fmt"
	"time"
)

// Patch renders a minimal `git format-patch` file for sha1.
func Patch(sha1, author, subject string, date time.Time) string {
	return fmt.Sprintf("From %s Mon Sep 17 00:00:00 2001\n"+
		"From: %s\n"+
		"Date: %s\n"+
		"Subject: [PATCH] %s\n"+
		"\n"+
		"---\n"+
		" README | 1 +\n",
		sha1, author, date.Format(time.RFC1123Z), subject)
}
