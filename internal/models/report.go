package models

import (
	"fmt"
	"strings"
	"time"
)

// Import failure reasons recorded per line.
const (
	ReasonDuplicate  = "already exists"
	ReasonMalformed  = "malformed"
	ReasonProcessing = "processing error"
)

// DefaultReportLimit is how many error lines a report summary shows.
const DefaultReportLimit = 10

// ImportLineResult is the outcome of processing a single import line.
//
// Exactly one of Song or Reason is set. Line is 1-based.
type ImportLineResult struct {
	Line   int
	Song   *Song
	Reason string
	Detail string // offending title or parser message
}

// OK reports whether the line produced a Song.
func (r ImportLineResult) OK() bool { return r.Song != nil }

// ImportError is a failed line in an [ImportReport].
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (e ImportError) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s - %s", e.Line, e.Reason, e.Detail)
}

// ImportReport aggregates a bulk import. Errors preserve input line order.
type ImportReport struct {
	SavedCount int           `json:"savedCount"`
	Errors     []ImportError `json:"errors"`
	Saved      []Song        `json:"saved,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Summary renders the user-facing message: the success count, up to limit error lines,
// and a count of the remainder.
func (r ImportReport) Summary(limit int) string {
	if limit <= 0 {
		limit = DefaultReportLimit
	}

	var b strings.Builder
	if r.SavedCount == 0 {
		b.WriteString("No songs were imported; every line was a duplicate or malformed")
	} else {
		fmt.Fprintf(&b, "Imported %d songs", r.SavedCount)
	}

	if len(r.Errors) == 0 {
		return b.String()
	}

	b.WriteString("\n\nFailed lines:")
	for i, e := range r.Errors {
		if i == limit {
			break
		}
		b.WriteString("\n" + e.String())
	}
	if rest := len(r.Errors) - limit; rest > 0 {
		fmt.Fprintf(&b, "\n...and %d more", rest)
	}
	return b.String()
}
