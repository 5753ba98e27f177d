// Package summarizer generates short summaries of note text.
package summarizer

import (
	"context"
	"errors"
)

// ErrEmptySummary is returned when the upstream model produced no text.
var ErrEmptySummary = errors.New("summarizer returned an empty summary")

// Summarizer turns a note's title and content into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}
