package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

// RecordingRepository provides access to text recordings, sentence recordings
// and their backups.
type RecordingRepository interface {
	// CreateTextRecording returns ErrDuplicateKey if the speaker already recorded the text.
	CreateTextRecording(ctx context.Context, rec *entities.TextRecording) error
	// GetTextRecording returns ErrTextRecordingNotFound when the recording does not exist.
	GetTextRecording(ctx context.Context, id uint) (*entities.TextRecording, error)
	// LockTextRecording reads the recording and, on MySQL, locks its row until
	// the surrounding transaction ends.
	LockTextRecording(ctx context.Context, id uint) (*entities.TextRecording, error)
	// FindTextRecording returns ErrTextRecordingNotFound when the speaker has not recorded the text.
	FindTextRecording(ctx context.Context, speakerID, textID uint) (*entities.TextRecording, error)
	// SaveTextRecording writes every column of the recording.
	SaveTextRecording(ctx context.Context, rec *entities.TextRecording) error
	// GetFinishedInFolder returns finished recordings of the folder's texts with
	// the speaker preloaded, ordered by text ID then username.
	GetFinishedInFolder(ctx context.Context, folderID uint) ([]entities.TextRecording, error)

	CountSentenceRecordings(ctx context.Context, recordingID uint) (int, error)
	CreateSentenceRecording(ctx context.Context, srec *entities.SentenceRecording) error
	// GetSentenceRecording returns ErrSentenceRecordingNotFound when the row does not exist.
	GetSentenceRecording(ctx context.Context, id uint) (*entities.SentenceRecording, error)
	// GetSentenceRecordingAt returns ErrSentenceRecordingNotFound when nothing is recorded at index.
	GetSentenceRecordingAt(ctx context.Context, recordingID uint, index int) (*entities.SentenceRecording, error)
	// GetSentenceRecordings returns the recording's segments ordered by index
	// with their sentences preloaded.
	GetSentenceRecordings(ctx context.Context, recordingID uint) ([]entities.SentenceRecording, error)
	SaveSentenceRecording(ctx context.Context, srec *entities.SentenceRecording) error

	CreateBackup(ctx context.Context, backup *entities.SentenceRecordingBackup) error
	// GetBackups returns the backups of a sentence recording, oldest first.
	GetBackups(ctx context.Context, sentenceRecordingID uint) ([]entities.SentenceRecordingBackup, error)
	// SumBackupLengths sums the non-legacy backup lengths of every segment of a text recording.
	SumBackupLengths(ctx context.Context, recordingID uint) (float64, error)
}

type recordingRepository struct {
	db      *gorm.DB
	isMySQL bool
}

func (r *recordingRepository) CreateTextRecording(ctx context.Context, rec *entities.TextRecording) error {
	if rec == nil || rec.SpeakerID == 0 || rec.TextID == 0 {
		return ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error
	return dbError(err, "create text recording", nil, "", nil)
}

func (r *recordingRepository) GetTextRecording(ctx context.Context, id uint) (*entities.TextRecording, error) {
	var rec entities.TextRecording
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, dbError(err, "get text recording", ErrTextRecordingNotFound, "recording_id", id)
	}
	return &rec, nil
}

func (r *recordingRepository) LockTextRecording(ctx context.Context, id uint) (*entities.TextRecording, error) {
	var rec entities.TextRecording
	if err := forUpdate(r.db.WithContext(ctx), r.isMySQL).First(&rec, id).Error; err != nil {
		return nil, dbError(err, "lock text recording", ErrTextRecordingNotFound, "recording_id", id)
	}
	return &rec, nil
}

func (r *recordingRepository) FindTextRecording(ctx context.Context, speakerID, textID uint) (*entities.TextRecording, error) {
	var rec entities.TextRecording
	err := r.db.WithContext(ctx).
		Where("speaker_id = ? AND text_id = ?", speakerID, textID).
		First(&rec).Error
	if err != nil {
		return nil, dbError(err, "find text recording", ErrTextRecordingNotFound, "text_id", textID)
	}
	return &rec, nil
}

func (r *recordingRepository) SaveTextRecording(ctx context.Context, rec *entities.TextRecording) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error
	return dbError(err, "save text recording", nil, "", nil)
}

func (r *recordingRepository) GetFinishedInFolder(ctx context.Context, folderID uint) ([]entities.TextRecording, error) {
	var recs []entities.TextRecording
	err := r.db.WithContext(ctx).
		Joins("JOIN texts ON texts.id = text_recordings.text_id").
		Joins("JOIN users ON users.id = text_recordings.speaker_id").
		Where("texts.folder_id = ?", folderID).
		Where(`(SELECT COUNT(*) FROM sentence_recordings sr WHERE sr.recording_id = text_recordings.id) =
			(SELECT COUNT(*) FROM sentences s WHERE s.text_id = text_recordings.text_id)`).
		Order("text_recordings.text_id, users.username").
		Preload("Speaker").
		Find(&recs).Error
	if err != nil {
		return nil, dbError(err, "get finished recordings", nil, "", nil)
	}
	return recs, nil
}

func (r *recordingRepository) CountSentenceRecordings(ctx context.Context, recordingID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.SentenceRecording{}).
		Where("recording_id = ?", recordingID).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count sentence recordings", nil, "", nil)
	}
	return int(count), nil
}

func (r *recordingRepository) CreateSentenceRecording(ctx context.Context, srec *entities.SentenceRecording) error {
	if srec == nil || srec.RecordingID == 0 || srec.SentenceID == 0 {
		return ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(srec).Error
	return dbError(err, "create sentence recording", nil, "", nil)
}

func (r *recordingRepository) GetSentenceRecording(ctx context.Context, id uint) (*entities.SentenceRecording, error) {
	var srec entities.SentenceRecording
	if err := r.db.WithContext(ctx).First(&srec, id).Error; err != nil {
		return nil, dbError(err, "get sentence recording", ErrSentenceRecordingNotFound, "sentence_recording_id", id)
	}
	return &srec, nil
}

func (r *recordingRepository) GetSentenceRecordingAt(ctx context.Context, recordingID uint, index int) (*entities.SentenceRecording, error) {
	var srec entities.SentenceRecording
	err := r.db.WithContext(ctx).
		Where("recording_id = ? AND sentence_index = ?", recordingID, index).
		First(&srec).Error
	if err != nil {
		return nil, dbError(err, "get sentence recording", ErrSentenceRecordingNotFound, "index", index)
	}
	return &srec, nil
}

func (r *recordingRepository) GetSentenceRecordings(ctx context.Context, recordingID uint) ([]entities.SentenceRecording, error) {
	var srecs []entities.SentenceRecording
	err := r.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("sentence_index").
		Preload("Sentence").
		Find(&srecs).Error
	if err != nil {
		return nil, dbError(err, "get sentence recordings", nil, "", nil)
	}
	return srecs, nil
}

func (r *recordingRepository) SaveSentenceRecording(ctx context.Context, srec *entities.SentenceRecording) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(srec).Error
	return dbError(err, "save sentence recording", nil, "", nil)
}

func (r *recordingRepository) CreateBackup(ctx context.Context, backup *entities.SentenceRecordingBackup) error {
	if backup == nil || backup.SentenceRecordingID == 0 {
		return ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(backup).Error
	return dbError(err, "create backup", nil, "", nil)
}

func (r *recordingRepository) GetBackups(ctx context.Context, sentenceRecordingID uint) ([]entities.SentenceRecordingBackup, error) {
	var backups []entities.SentenceRecordingBackup
	err := r.db.WithContext(ctx).
		Where("sentence_recording_id = ?", sentenceRecordingID).
		Order("id").
		Find(&backups).Error
	if err != nil {
		return nil, dbError(err, "get backups", nil, "", nil)
	}
	return backups, nil
}

func (r *recordingRepository) SumBackupLengths(ctx context.Context, recordingID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Table("sentence_recording_backups AS b").
		Joins("JOIN sentence_recordings sr ON sr.id = b.sentence_recording_id").
		Where("sr.recording_id = ? AND b.legacy = ?", recordingID, false).
		Select("COALESCE(SUM(b.length), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, dbError(err, "sum backup lengths", nil, "", nil)
	}
	return total, nil
}
