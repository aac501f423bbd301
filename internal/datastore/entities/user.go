package entities

import "time"

// User is a speaker. Only the demographic fields used in transcripts and
// reports are modelled here.
type User struct {
	ID         uint      `gorm:"primaryKey"`
	Username   string    `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email      string    `gorm:"type:varchar(254)"`
	Gender     string    `gorm:"type:varchar(16)"`
	Education  string    `gorm:"type:varchar(32)"`
	Country    string    `gorm:"type:varchar(64)"`
	Accent     string    `gorm:"type:varchar(128)"`
	DateJoined time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}
