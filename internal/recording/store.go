// Package recording implements the sentence recording lifecycle: creating
// text recordings, accepting sentence audio strictly in order, re-recording
// with backups, and keeping the recording time counters consistent.
//
// Each submission is one unit of work. Submissions for the same text
// recording are serialized by an in-process lock and, inside the database
// transaction, by a row lock (MySQL) or the database write lock (SQLite).
// Artifact writes made during a submission are undone when its transaction
// fails.
package recording

import (
	"context"
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/keylock"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
	"github.com/TEQST/TEQST-Backend-sub000/internal/observability/metrics"
	"github.com/TEQST/TEQST-Backend-sub000/internal/transcript"
)

// AudioAnalyzer classifies submitted sentence audio.
type AudioAnalyzer interface {
	Analyze(ctx context.Context, data []byte) (*myaudio.Analysis, error)
}

// Regenerator rebuilds the derived artifacts of finished recordings.
type Regenerator interface {
	Regenerate(ctx context.Context, repos *repository.Repositories, rec *entities.TextRecording) (*transcript.Pending, error)
	RefreshFolder(ctx context.Context, repos *repository.Repositories, folderID uint, speaker *entities.User) error
}

// Config wires a Store.
type Config struct {
	Repos       *repository.Repositories
	Artifacts   *artifacts.Store
	Analyzer    AudioAnalyzer
	Regenerator Regenerator
	Logger      logger.Logger
	Metrics     *metrics.RecordingMetrics
	Clock       func() time.Time
}

// Store owns text recordings and their sentence recordings.
type Store struct {
	repos     *repository.Repositories
	artifacts *artifacts.Store
	analyzer  AudioAnalyzer
	regen     Regenerator
	log       logger.Logger
	metrics   *metrics.RecordingMetrics
	clock     func() time.Time
	locks     keylock.Map[uint]
}

// New creates a Store.
func New(cfg Config) *Store {
	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		repos:     cfg.Repos,
		artifacts: cfg.Artifacts,
		analyzer:  cfg.Analyzer,
		regen:     cfg.Regenerator,
		log:       log.Module("recording"),
		metrics:   cfg.Metrics,
		clock:     clock,
	}
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// CreateTextRecording starts a speaker's recording of a text with zero counters.
func (s *Store) CreateTextRecording(ctx context.Context, speakerID, textID uint, tts, sr bool) (*entities.TextRecording, error) {
	if !tts && !sr {
		return nil, errors.Newf("at least one of the TTS and SR permissions must be granted").
			Component("recording").
			Category(errors.CategoryValidation).
			Context("speaker_id", speakerID).
			Context("text_id", textID).
			Build()
	}
	if _, err := s.repos.Users.GetByID(ctx, speakerID); err != nil {
		return nil, err
	}
	if _, err := s.repos.Texts.GetByID(ctx, textID); err != nil {
		return nil, err
	}

	if existing, err := s.repos.Recordings.FindTextRecording(ctx, speakerID, textID); err == nil {
		return nil, conflict(speakerID, textID, existing.ID)
	} else if !errors.Is(err, repository.ErrTextRecordingNotFound) {
		return nil, err
	}

	rec := &entities.TextRecording{
		SpeakerID:     speakerID,
		TextID:        textID,
		TTSPermission: tts,
		SRPermission:  sr,
		LastUpdated:   s.now(),
	}
	if err := s.repos.Recordings.CreateTextRecording(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, conflict(speakerID, textID, 0)
		}
		return nil, err
	}

	s.metrics.RecordTextRecordingCreated()
	s.log.Info("created text recording",
		logger.Uint("recording_id", rec.ID),
		logger.Uint("speaker_id", speakerID),
		logger.Uint("text_id", textID))
	return rec, nil
}

func conflict(speakerID, textID, existingID uint) error {
	b := errors.Newf("speaker %d already recorded text %d", speakerID, textID).
		Component("recording").
		Category(errors.CategoryConflict).
		Context("speaker_id", speakerID).
		Context("text_id", textID)
	if existingID != 0 {
		b = b.Context("recording_id", existingID)
	}
	return b.Build()
}

// GetTextRecording returns a text recording by ID.
func (s *Store) GetTextRecording(ctx context.Context, id uint) (*entities.TextRecording, error) {
	return s.repos.Recordings.GetTextRecording(ctx, id)
}

// SentenceRecordings returns the current sentence recordings in index order.
func (s *Store) SentenceRecordings(ctx context.Context, recordingID uint) ([]entities.SentenceRecording, error) {
	if _, err := s.repos.Recordings.GetTextRecording(ctx, recordingID); err != nil {
		return nil, err
	}
	return s.repos.Recordings.GetSentenceRecordings(ctx, recordingID)
}

// Backups returns the superseded versions of a sentence recording, oldest first.
func (s *Store) Backups(ctx context.Context, sentenceRecordingID uint) ([]entities.SentenceRecordingBackup, error) {
	if _, err := s.repos.Recordings.GetSentenceRecording(ctx, sentenceRecordingID); err != nil {
		return nil, err
	}
	return s.repos.Recordings.GetBackups(ctx, sentenceRecordingID)
}

// refreshFolder runs after a finished recording's transaction committed. The
// submission itself stands when this fails; the folder artifacts can be
// rebuilt with Regenerate.
func (s *Store) refreshFolder(ctx context.Context, rec *entities.TextRecording) {
	text, err := s.repos.Texts.GetByID(ctx, rec.TextID)
	if err == nil {
		var speaker *entities.User
		if speaker, err = s.repos.Users.GetByID(ctx, rec.SpeakerID); err == nil {
			err = s.regen.RefreshFolder(ctx, s.repos, text.FolderID, speaker)
		}
	}
	if err != nil {
		s.log.Error("failed to refresh folder artifacts",
			logger.Uint("recording_id", rec.ID),
			logger.Uint("text_id", rec.TextID),
			logger.Error(err))
	}
}

func (s *Store) recordError(operation string, err error) {
	category := string(errors.CategoryGeneric)
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		category = ee.GetCategory()
	}
	s.metrics.RecordSubmissionError(operation, category)
	if errors.IsCategory(err, errors.CategoryIntegrity) {
		s.log.Error("data integrity violation", logger.Error(err))
	}
}
