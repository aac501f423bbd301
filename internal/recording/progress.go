package recording

import (
	"context"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
)

// State of a text recording, derived from its sentence recording count.
type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateFinished   State = "FINISHED"
)

// Progress is computed live from the sentence recordings; it is never stored.
type Progress struct {
	Completed int  // sentence recordings present
	Total     int  // sentences in the text
	Active    int  // next index to record; Total+1 once finished
	Finished  bool // Completed == Total
}

// State returns the completion state.
func (p Progress) State() State {
	if p.Finished {
		return StateFinished
	}
	return StateInProgress
}

func progress(ctx context.Context, repos *repository.Repositories, rec *entities.TextRecording) (Progress, error) {
	total, err := repos.Texts.CountSentences(ctx, rec.TextID)
	if err != nil {
		return Progress{}, err
	}
	completed, err := repos.Recordings.CountSentenceRecordings(ctx, rec.ID)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		Completed: completed,
		Total:     total,
		Active:    completed + 1,
		Finished:  completed >= total,
	}, nil
}

// Progress reports how far a text recording has come.
func (s *Store) Progress(ctx context.Context, recordingID uint) (Progress, error) {
	rec, err := s.repos.Recordings.GetTextRecording(ctx, recordingID)
	if err != nil {
		return Progress{}, err
	}
	return progress(ctx, s.repos, rec)
}

// ActiveSentence returns the index the next submission must use.
func (s *Store) ActiveSentence(ctx context.Context, recordingID uint) (int, error) {
	p, err := s.Progress(ctx, recordingID)
	if err != nil {
		return 0, err
	}
	return p.Active, nil
}

// IsFinished reports whether every sentence of the text has been recorded.
func (s *Store) IsFinished(ctx context.Context, recordingID uint) (bool, error) {
	p, err := s.Progress(ctx, recordingID)
	if err != nil {
		return false, err
	}
	return p.Finished, nil
}
