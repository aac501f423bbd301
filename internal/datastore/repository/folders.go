package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

// FolderRepository provides access to the folder tree.
type FolderRepository interface {
	Create(ctx context.Context, folder *entities.Folder) error
	// GetByID returns ErrFolderNotFound when the folder does not exist.
	GetByID(ctx context.Context, id uint) (*entities.Folder, error)
	// GetChildren returns the direct subfolders of the given folders ordered by ID.
	GetChildren(ctx context.Context, parentIDs []uint) ([]entities.Folder, error)
	// AddSpeakers shares a folder with users. Already shared users are ignored.
	AddSpeakers(ctx context.Context, folderID uint, userIDs ...uint) error
	// GetSpeakerIDs returns the distinct users any of the folders are shared with.
	GetSpeakerIDs(ctx context.Context, folderIDs []uint) ([]uint, error)
}

type folderRepository struct {
	db *gorm.DB
}

func (r *folderRepository) Create(ctx context.Context, folder *entities.Folder) error {
	if folder == nil || folder.Name == "" {
		return ErrInvalidInput
	}
	return dbError(r.db.WithContext(ctx).Omit("Speakers").Create(folder).Error, "create folder", nil, "", nil)
}

func (r *folderRepository) GetByID(ctx context.Context, id uint) (*entities.Folder, error) {
	var folder entities.Folder
	err := r.db.WithContext(ctx).First(&folder, id).Error
	if err != nil {
		return nil, dbError(err, "get folder", ErrFolderNotFound, "folder_id", id)
	}
	return &folder, nil
}

func (r *folderRepository) GetChildren(ctx context.Context, parentIDs []uint) ([]entities.Folder, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var folders []entities.Folder
	err := r.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("id").
		Find(&folders).Error
	if err != nil {
		return nil, dbError(err, "get subfolders", nil, "", nil)
	}
	return folders, nil
}

func (r *folderRepository) AddSpeakers(ctx context.Context, folderID uint, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	folder := entities.Folder{ID: folderID}
	users := make([]entities.User, len(userIDs))
	for i, id := range userIDs {
		users[i] = entities.User{ID: id}
	}
	err := r.db.WithContext(ctx).
		Model(&folder).
		Omit("Speakers.*").
		Association("Speakers").
		Append(users)
	return dbError(err, "add folder speakers", nil, "", nil)
}

func (r *folderRepository) GetSpeakerIDs(ctx context.Context, folderIDs []uint) ([]uint, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("folder_speakers").
		Distinct("user_id").
		Where("folder_id IN ?", folderIDs).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, dbError(err, "get folder speakers", nil, "", nil)
	}
	return ids, nil
}
