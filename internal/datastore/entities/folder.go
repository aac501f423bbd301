package entities

import "time"

// Folder groups texts. Folders form a tree through ParentID; Speakers lists the
// users a publisher shared the folder with.
type Folder struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(250);not null"`
	ParentID  *uint     `gorm:"index"`
	Parent    *Folder   `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Speakers  []User    `gorm:"many2many:folder_speakers;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Folder) TableName() string {
	return "folders"
}
