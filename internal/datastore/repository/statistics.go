package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// TimeRange is an inclusive time window. A zero Start or End leaves that side open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (tr TimeRange) apply(db *gorm.DB, column string) *gorm.DB {
	if !tr.Start.IsZero() {
		db = db.Where(column+" >= ?", tr.Start.UTC())
	}
	if !tr.End.IsZero() {
		db = db.Where(column+" <= ?", tr.End.UTC())
	}
	return db
}

// SegmentTotals aggregates one speaker's current sentence recordings.
type SegmentTotals struct {
	SpeakerID uint
	NewTime   float64 // lengths of non-legacy segments
	Words     int     // word counts of all segments, legacy included
}

// BackupTotals aggregates one speaker's superseded segments.
type BackupTotals struct {
	SpeakerID uint
	Length    float64
}

// LegacyCounters are the pre-migration counters of one text recording.
type LegacyCounters struct {
	SpeakerID         uint
	RecTimeWithoutRep *float64
	RecTimeWithRep    *float64
}

// StatisticsRepository runs the read-only aggregation queries for reports.
// Every query is scoped to the texts of the given folders.
type StatisticsRepository interface {
	// SegmentTotals groups sentence recordings last updated within tr by speaker.
	SegmentTotals(ctx context.Context, folderIDs []uint, tr TimeRange) ([]SegmentTotals, error)
	// BackupTotals groups non-legacy backups whose snapshot was last updated within tr by speaker.
	BackupTotals(ctx context.Context, folderIDs []uint, tr TimeRange) ([]BackupTotals, error)
	// LegacyCounters returns text recordings created within tr carrying at least one legacy counter.
	LegacyCounters(ctx context.Context, folderIDs []uint, tr TimeRange) ([]LegacyCounters, error)
	// RecordingSpeakerIDs returns every speaker with a text recording in the folders.
	RecordingSpeakerIDs(ctx context.Context, folderIDs []uint) ([]uint, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func (r *statisticsRepository) SegmentTotals(ctx context.Context, folderIDs []uint, tr TimeRange) ([]SegmentTotals, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var rows []SegmentTotals
	q := r.db.WithContext(ctx).
		Table("sentence_recordings AS sr").
		Select(`tr.speaker_id AS speaker_id,
			COALESCE(SUM(CASE WHEN sr.legacy THEN 0 ELSE sr.length END), 0) AS new_time,
			COALESCE(SUM(s.word_count), 0) AS words`).
		Joins("JOIN text_recordings tr ON tr.id = sr.recording_id").
		Joins("JOIN texts t ON t.id = tr.text_id").
		Joins("JOIN sentences s ON s.id = sr.sentence_id").
		Where("t.folder_id IN ?", folderIDs)
	err := tr.apply(q, "sr.last_updated").
		Group("tr.speaker_id").
		Order("tr.speaker_id").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, "segment totals", nil, "", nil)
	}
	return rows, nil
}

func (r *statisticsRepository) BackupTotals(ctx context.Context, folderIDs []uint, tr TimeRange) ([]BackupTotals, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var rows []BackupTotals
	q := r.db.WithContext(ctx).
		Table("sentence_recording_backups AS b").
		Select("tr.speaker_id AS speaker_id, COALESCE(SUM(b.length), 0) AS length").
		Joins("JOIN sentence_recordings sr ON sr.id = b.sentence_recording_id").
		Joins("JOIN text_recordings tr ON tr.id = sr.recording_id").
		Joins("JOIN texts t ON t.id = tr.text_id").
		Where("t.folder_id IN ?", folderIDs).
		Where("b.legacy = ?", false)
	err := tr.apply(q, "b.last_updated").
		Group("tr.speaker_id").
		Order("tr.speaker_id").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, "backup totals", nil, "", nil)
	}
	return rows, nil
}

func (r *statisticsRepository) LegacyCounters(ctx context.Context, folderIDs []uint, tr TimeRange) ([]LegacyCounters, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var rows []LegacyCounters
	q := r.db.WithContext(ctx).
		Table("text_recordings AS tr").
		Select("tr.speaker_id AS speaker_id, tr.rec_time_without_rep_old AS rec_time_without_rep, tr.rec_time_with_rep_old AS rec_time_with_rep").
		Joins("JOIN texts t ON t.id = tr.text_id").
		Where("t.folder_id IN ?", folderIDs).
		Where("tr.rec_time_without_rep_old IS NOT NULL OR tr.rec_time_with_rep_old IS NOT NULL")
	err := tr.apply(q, "tr.created_at").
		Order("tr.id").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, "legacy counters", nil, "", nil)
	}
	return rows, nil
}

func (r *statisticsRepository) RecordingSpeakerIDs(ctx context.Context, folderIDs []uint) ([]uint, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("text_recordings AS tr").
		Joins("JOIN texts t ON t.id = tr.text_id").
		Where("t.folder_id IN ?", folderIDs).
		Distinct("tr.speaker_id").
		Order("tr.speaker_id").
		Pluck("tr.speaker_id", &ids).Error
	if err != nil {
		return nil, dbError(err, "recording speakers", nil, "", nil)
	}
	return ids, nil
}
