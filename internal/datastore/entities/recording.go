package entities

import "time"

// TextRecording is one speaker's recording of one text. The rec_time counters
// are maintained on every sentence submission: RecTimeWithoutRep sums the
// current sentence lengths, RecTimeWithRep additionally includes every
// superseded length.
//
// The *Old counters hold totals migrated from before per-sentence tracking.
// They are NULL for recordings made since, and only reports read them.
type TextRecording struct {
	ID                   uint      `gorm:"primaryKey"`
	SpeakerID            uint      `gorm:"not null;uniqueIndex:idx_text_recording_speaker_text,priority:1"`
	Speaker              *User     `gorm:"foreignKey:SpeakerID;constraint:OnDelete:CASCADE"`
	TextID               uint      `gorm:"not null;uniqueIndex:idx_text_recording_speaker_text,priority:2;index"`
	Text                 *Text     `gorm:"foreignKey:TextID;constraint:OnDelete:CASCADE"`
	TTSPermission        bool      `gorm:"column:tts_permission;not null"`
	SRPermission         bool      `gorm:"column:sr_permission;not null"`
	RecTimeWithoutRep    float64   `gorm:"not null"`
	RecTimeWithRep       float64   `gorm:"not null"`
	RecTimeWithoutRepOld *float64
	RecTimeWithRepOld    *float64
	AudioPath            string    `gorm:"type:varchar(500)"`
	TranscriptPath       string    `gorm:"type:varchar(500)"`
	LastUpdated          time.Time `gorm:"not null"`
	CreatedAt            time.Time `gorm:"autoCreateTime;index"`
}

// TableName returns the table name for GORM.
func (TextRecording) TableName() string {
	return "text_recordings"
}

// SentenceRecording is the current audio for one sentence of a text recording.
// Legacy rows were migrated from totals-only recordings: their audio exists,
// but their time is accounted in the owning TextRecording's *Old counters.
type SentenceRecording struct {
	ID          uint           `gorm:"primaryKey"`
	RecordingID uint           `gorm:"not null;uniqueIndex:idx_srec_recording_sentence,priority:1;uniqueIndex:idx_srec_recording_index,priority:1"`
	Recording   *TextRecording `gorm:"foreignKey:RecordingID;constraint:OnDelete:CASCADE"`
	SentenceID  uint           `gorm:"not null;uniqueIndex:idx_srec_recording_sentence,priority:2"`
	Sentence    *Sentence      `gorm:"foreignKey:SentenceID;constraint:OnDelete:CASCADE"`
	Index       int            `gorm:"column:sentence_index;not null;uniqueIndex:idx_srec_recording_index,priority:2"`
	AudioPath   string         `gorm:"type:varchar(500);not null"`
	Validity    string         `gorm:"type:varchar(20);not null"`
	Length      float64        `gorm:"not null"`
	Legacy      bool           `gorm:"not null"`
	LastUpdated time.Time      `gorm:"not null;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (SentenceRecording) TableName() string {
	return "sentence_recordings"
}

// SentenceRecordingBackup is an insert-only snapshot of a sentence recording
// taken right before it was re-recorded. Legacy snapshots keep their audio,
// but their time stays in the owning TextRecording's *Old counters.
type SentenceRecordingBackup struct {
	ID                  uint               `gorm:"primaryKey"`
	SentenceRecordingID uint               `gorm:"not null;index"`
	SentenceRecording   *SentenceRecording `gorm:"foreignKey:SentenceRecordingID;constraint:OnDelete:CASCADE"`
	AudioPath           string             `gorm:"type:varchar(500);not null"`
	Validity            string             `gorm:"type:varchar(20);not null"`
	Length              float64            `gorm:"not null"`
	Legacy              bool               `gorm:"not null;default:false"`
	LastUpdated         time.Time          `gorm:"not null;index"`
	CreatedAt           time.Time          `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (SentenceRecordingBackup) TableName() string {
	return "sentence_recording_backups"
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Folder{},
		&Text{},
		&Sentence{},
		&TextRecording{},
		&SentenceRecording{},
		&SentenceRecordingBackup{},
	}
}
