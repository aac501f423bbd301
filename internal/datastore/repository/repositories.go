package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repositories bundles every repository over one connection or transaction.
type Repositories struct {
	Users      UserRepository
	Folders    FolderRepository
	Texts      TextRepository
	Recordings RecordingRepository
	Statistics StatisticsRepository

	db      *gorm.DB
	isMySQL bool
}

// New creates the repositories. isMySQL enables SELECT ... FOR UPDATE row
// locks; SQLite relies on immediate transactions holding the database write lock.
func New(db *gorm.DB, isMySQL bool) *Repositories {
	return &Repositories{
		Users:      &userRepository{db: db},
		Folders:    &folderRepository{db: db},
		Texts:      &textRepository{db: db},
		Recordings: &recordingRepository{db: db, isMySQL: isMySQL},
		Statistics: &statisticsRepository{db: db},
		db:         db,
		isMySQL:    isMySQL,
	}
}

// Transaction runs fn inside a database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx, r.isMySQL))
	})
}

// DB exposes the underlying handle for maintenance queries.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// IsMySQL reports whether the repositories run against MySQL.
func (r *Repositories) IsMySQL() bool {
	return r.isMySQL
}

func forUpdate(db *gorm.DB, isMySQL bool) *gorm.DB {
	if !isMySQL {
		return db
	}
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}
