package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jotter/jotter/internal/metrics"
	"github.com/jotter/jotter/internal/summarizer"
)

// SummaryResult is a note summary and whether it came from storage.
type SummaryResult struct {
	Summary string
	Cached  bool
}

// SummaryService produces and caches note summaries.
type SummaryService struct {
	store      NoteStore
	summarizer summarizer.Summarizer
	metrics    metrics.Recorder
}

// NewSummaryService creates a new SummaryService. A nil summarizer
// disables generation; cached summaries are then unreachable too.
func NewSummaryService(store NoteStore, s summarizer.Summarizer, recorder metrics.Recorder) *SummaryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SummaryService{
		store:      store,
		summarizer: s,
		metrics:    recorder,
	}
}

// Summarize returns the stored summary of the owner's note or generates,
// stores and returns a new one. Each note is summarized at most once.
func (s *SummaryService) Summarize(ctx context.Context, ownerID, noteID string) (*SummaryResult, error) {
	if s.summarizer == nil {
		return nil, ErrSummaryUnavailable
	}

	note, err := s.store.GetNote(ctx, ownerID, noteID)
	if err != nil {
		return nil, mapNoteError(err, "get note")
	}

	if note.HasSummary() {
		s.metrics.IncSummary("cached")
		return &SummaryResult{Summary: *note.Summary, Cached: true}, nil
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, note.Title, note.Content)
	s.metrics.ObserveSummaryDuration(time.Since(start))
	if err != nil {
		s.metrics.IncSummary("failed")
		return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}

	stored, err := s.store.SetNoteSummary(ctx, ownerID, noteID, summary)
	if err != nil {
		return nil, fmt.Errorf("store summary: %w", err)
	}

	if !stored {
		// A concurrent request won the write; serve what it stored.
		current, err := s.store.GetNote(ctx, ownerID, noteID)
		if err != nil {
			return nil, mapNoteError(err, "reload note")
		}
		if current.HasSummary() {
			s.metrics.IncSummary("cached")
			return &SummaryResult{Summary: *current.Summary, Cached: true}, nil
		}
		return nil, errors.New("summary was not stored")
	}

	s.metrics.IncSummary("generated")

	return &SummaryResult{Summary: summary, Cached: false}, nil
}
