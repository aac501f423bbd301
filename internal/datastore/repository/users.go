package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

// UserRepository provides access to speakers.
type UserRepository interface {
	// Create inserts a user. A taken username returns ErrDuplicateKey.
	Create(ctx context.Context, user *entities.User) error
	// GetByID returns ErrUserNotFound when the user does not exist.
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	// GetByUsername returns ErrUserNotFound when no user has the name.
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	// GetByIDs returns the users found, keyed by ID. Missing IDs are skipped.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil || user.Username == "" {
		return ErrInvalidInput
	}
	return dbError(r.db.WithContext(ctx).Create(user).Error, "create user", nil, "", nil)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, dbError(err, "get user", ErrUserNotFound, "user_id", id)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, dbError(err, "get user", ErrUserNotFound, "username", username)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.User, error) {
	result := make(map[uint]*entities.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []entities.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, dbError(err, "get users", nil, "", nil)
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}
