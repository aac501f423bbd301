package entities

import (
	"strings"
	"time"
)

// Text is an immutable ordered list of sentences inside a folder.
type Text struct {
	ID        uint       `gorm:"primaryKey"`
	Title     string     `gorm:"type:varchar(250);not null"`
	FolderID  uint       `gorm:"not null;index"`
	Folder    *Folder    `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE"`
	Sentences []Sentence `gorm:"foreignKey:TextID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Text) TableName() string {
	return "texts"
}

// Sentence is one 1-based position of a text.
type Sentence struct {
	ID        uint   `gorm:"primaryKey"`
	TextID    uint   `gorm:"not null;uniqueIndex:idx_sentence_text_index,priority:1"`
	Index     int    `gorm:"column:sentence_index;not null;uniqueIndex:idx_sentence_text_index,priority:2"`
	Content   string `gorm:"type:text;not null"`
	WordCount int    `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (Sentence) TableName() string {
	return "sentences"
}

// CountWords counts whitespace separated tokens
func CountWords(content string) int {
	return len(strings.Fields(content))
}
