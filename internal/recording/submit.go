package recording

import (
	"context"
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
	"github.com/TEQST/TEQST-Backend-sub000/internal/observability/metrics"
	"github.com/TEQST/TEQST-Backend-sub000/internal/transcript"
)

// compensation collects the undo steps for artifact writes of one submission.
type compensation struct {
	undo []func() error
	log  logger.Logger
}

func (c *compensation) add(fn func() error) {
	c.undo = append(c.undo, fn)
}

func (c *compensation) run() {
	for i := len(c.undo) - 1; i >= 0; i-- {
		if err := c.undo[i](); err != nil {
			c.log.Error("failed to undo artifact write", logger.Error(err))
		}
	}
}

// admit checks that index is the next sentence to record and returns it.
// Checks run in order: finished, out of order, duplicate.
func admit(ctx context.Context, tx *repository.Repositories, rec *entities.TextRecording, index int) (*entities.Sentence, error) {
	p, err := progress(ctx, tx, rec)
	if err != nil {
		return nil, err
	}
	if p.Finished {
		return nil, errors.AlreadyFinished(rec.ID)
	}
	if index != p.Active {
		return nil, errors.OutOfOrder(rec.ID, index, p.Active)
	}
	if _, err := tx.Recordings.GetSentenceRecordingAt(ctx, rec.ID, index); err == nil {
		return nil, errors.Duplicate(rec.ID, index)
	} else if !errors.Is(err, repository.ErrSentenceRecordingNotFound) {
		return nil, err
	}

	return tx.Texts.GetSentence(ctx, rec.TextID, index)
}

// checkSentence verifies that srec records a sentence of rec's text.
func checkSentence(ctx context.Context, tx *repository.Repositories, rec *entities.TextRecording, srec *entities.SentenceRecording) error {
	sentence, err := tx.Texts.GetSentenceByID(ctx, srec.SentenceID)
	if err != nil {
		return err
	}
	if sentence.TextID != rec.TextID {
		return errors.Integrity(rec.ID, sentence.ID, rec.TextID, sentence.TextID)
	}
	return nil
}

// CreateSentenceRecording records the next sentence of a text recording. When
// it completes the text, the concatenated audio and transcripts are rebuilt in
// the same unit of work.
func (s *Store) CreateSentenceRecording(ctx context.Context, recordingID uint, index int, audio []byte) (*entities.SentenceRecording, error) {
	srec, err := s.createSentenceRecording(ctx, recordingID, index, audio)
	if err != nil {
		s.recordError(metrics.OpCreate, err)
		return nil, err
	}
	s.metrics.RecordSubmission(metrics.OpCreate, srec.Validity, srec.Length)
	return srec, nil
}

func (s *Store) createSentenceRecording(ctx context.Context, recordingID uint, index int, audio []byte) (*entities.SentenceRecording, error) {
	unlock := s.locks.Lock(recordingID)
	defer unlock()

	// Reject early without decoding; the checks are repeated under the row lock.
	rec, err := s.repos.Recordings.GetTextRecording(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if _, err := admit(ctx, s.repos, rec, index); err != nil {
		return nil, err
	}

	analysis, err := s.analyze(ctx, audio)
	if err != nil {
		return nil, err
	}

	var (
		srec     *entities.SentenceRecording
		pending  *transcript.Pending
		finished bool
		undo     = compensation{log: s.log}
	)
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		rec, err = tx.Recordings.LockTextRecording(ctx, recordingID)
		if err != nil {
			return err
		}
		sentence, err := admit(ctx, tx, rec, index)
		if err != nil {
			return err
		}

		name := artifacts.SentenceAudioName(rec.ID, index)
		if err := s.artifacts.Write(name, analysis.Clip.WAV); err != nil {
			return err
		}
		undo.add(func() error { return s.artifacts.Delete(name) })

		now := s.now()
		srec = &entities.SentenceRecording{
			RecordingID: rec.ID,
			SentenceID:  sentence.ID,
			Index:       index,
			AudioPath:   name,
			Validity:    string(analysis.Validity),
			Length:      analysis.Length,
			LastUpdated: now,
		}
		if err := tx.Recordings.CreateSentenceRecording(ctx, srec); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return errors.Duplicate(rec.ID, index)
			}
			return err
		}

		rec.RecTimeWithoutRep += analysis.Length
		rec.RecTimeWithRep += analysis.Length
		rec.LastUpdated = now

		p, err := progress(ctx, tx, rec)
		if err != nil {
			return err
		}
		if finished = p.Finished; finished {
			if pending, err = s.regen.Regenerate(ctx, tx, rec); err != nil {
				return err
			}
			undo.add(func() error { pending.Rollback(); return nil })
		}
		return tx.Recordings.SaveTextRecording(ctx, rec)
	})
	if err != nil {
		undo.run()
		return nil, err
	}

	pending.Commit()
	s.log.Info("recorded sentence",
		logger.Uint("recording_id", rec.ID),
		logger.Int("index", index),
		logger.String("validity", srec.Validity),
		logger.Float64("length", srec.Length),
		logger.Bool("finished", finished))
	if finished {
		s.metrics.RecordCompletion()
		s.refreshFolder(ctx, rec)
	}
	return srec, nil
}

// UpdateSentenceRecording re-records a sentence. The current version is kept
// as a backup, the counters are adjusted and, if the text recording is
// finished, its artifacts are rebuilt.
func (s *Store) UpdateSentenceRecording(ctx context.Context, sentenceRecordingID uint, audio []byte) (*entities.SentenceRecording, error) {
	srec, err := s.updateSentenceRecording(ctx, sentenceRecordingID, audio)
	if err != nil {
		s.recordError(metrics.OpUpdate, err)
		return nil, err
	}
	s.metrics.RecordSubmission(metrics.OpUpdate, srec.Validity, srec.Length)
	return srec, nil
}

func (s *Store) updateSentenceRecording(ctx context.Context, sentenceRecordingID uint, audio []byte) (*entities.SentenceRecording, error) {
	current, err := s.repos.Recordings.GetSentenceRecording(ctx, sentenceRecordingID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(current.RecordingID)
	defer unlock()

	analysis, err := s.analyze(ctx, audio)
	if err != nil {
		return nil, err
	}

	var (
		srec     *entities.SentenceRecording
		rec      *entities.TextRecording
		pending  *transcript.Pending
		finished bool
		oldLen   float64
		undo     = compensation{log: s.log}
	)
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		rec, err = tx.Recordings.LockTextRecording(ctx, current.RecordingID)
		if err != nil {
			return err
		}
		srec, err = tx.Recordings.GetSentenceRecording(ctx, sentenceRecordingID)
		if err != nil {
			return err
		}
		if err := checkSentence(ctx, tx, rec, srec); err != nil {
			return err
		}

		name := srec.AudioPath
		if name == "" {
			name = artifacts.SentenceAudioName(rec.ID, srec.Index)
		}
		backupName, err := s.artifacts.WriteWithBackup(name, analysis.Clip.WAV)
		if err != nil {
			return err
		}
		if backupName == "" {
			s.log.Warn("sentence audio missing before re-record",
				logger.Uint("sentence_recording_id", srec.ID),
				logger.String("name", name))
			undo.add(func() error { return s.artifacts.Delete(name) })
		} else {
			undo.add(func() error { return s.artifacts.Restore(backupName, name) })
		}

		backup := &entities.SentenceRecordingBackup{
			SentenceRecordingID: srec.ID,
			AudioPath:           backupName,
			Validity:            srec.Validity,
			Length:              srec.Length,
			Legacy:              srec.Legacy,
			LastUpdated:         srec.LastUpdated,
		}
		if err := tx.Recordings.CreateBackup(ctx, backup); err != nil {
			return err
		}

		now := s.now()
		oldLen = srec.Length
		wasLegacy := srec.Legacy
		srec.AudioPath = name
		srec.Validity = string(analysis.Validity)
		srec.Length = analysis.Length
		srec.Legacy = false
		srec.LastUpdated = now
		if err := tx.Recordings.SaveSentenceRecording(ctx, srec); err != nil {
			return err
		}

		// A legacy segment's time lives in the *Old counters only.
		if wasLegacy {
			rec.RecTimeWithoutRep += analysis.Length
		} else {
			rec.RecTimeWithoutRep += analysis.Length - oldLen
		}
		rec.RecTimeWithRep += analysis.Length
		rec.LastUpdated = now

		p, err := progress(ctx, tx, rec)
		if err != nil {
			return err
		}
		if finished = p.Finished; finished {
			if pending, err = s.regen.Regenerate(ctx, tx, rec); err != nil {
				return err
			}
			undo.add(func() error { pending.Rollback(); return nil })
		}
		return tx.Recordings.SaveTextRecording(ctx, rec)
	})
	if err != nil {
		undo.run()
		return nil, err
	}

	pending.Commit()
	s.metrics.RecordBackup()
	s.log.Info("re-recorded sentence",
		logger.Uint("recording_id", rec.ID),
		logger.Int("index", srec.Index),
		logger.String("validity", srec.Validity),
		logger.Float64("old_length", oldLen),
		logger.Float64("length", srec.Length))
	if finished {
		s.refreshFolder(ctx, rec)
	}
	return srec, nil
}

// Regenerate rebuilds the artifacts of a finished text recording on demand.
func (s *Store) Regenerate(ctx context.Context, recordingID uint) (*entities.TextRecording, error) {
	unlock := s.locks.Lock(recordingID)
	defer unlock()

	var (
		rec     *entities.TextRecording
		pending *transcript.Pending
	)
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		rec, err = tx.Recordings.LockTextRecording(ctx, recordingID)
		if err != nil {
			return err
		}
		p, err := progress(ctx, tx, rec)
		if err != nil {
			return err
		}
		if !p.Finished {
			return errors.Newf("text recording %d has %d of %d sentences", rec.ID, p.Completed, p.Total).
				Component("recording").
				Category(errors.CategoryValidation).
				Context("recording_id", rec.ID).
				Build()
		}
		if pending, err = s.regen.Regenerate(ctx, tx, rec); err != nil {
			return err
		}
		return tx.Recordings.SaveTextRecording(ctx, rec)
	})
	if err != nil {
		pending.Rollback()
		s.recordError(metrics.OpRegenerate, err)
		return nil, err
	}
	pending.Commit()
	s.refreshFolder(ctx, rec)
	return rec, nil
}

func (s *Store) analyze(ctx context.Context, audio []byte) (*myaudio.Analysis, error) {
	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, audio)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAnalysisDuration(string(analysis.Clip.Source), time.Since(start).Seconds())
	return analysis, nil
}
