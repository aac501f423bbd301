package repository

import (
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"gorm.io/gorm"
)

// Sentinel errors for repository operations. Lookups wrap them in an
// EnhancedError carrying CategoryNotFound or CategoryConflict, so both
// errors.Is against the sentinel and errors.IsNotFound work.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.NewStd("user not found")

	// ErrFolderNotFound indicates the requested folder does not exist.
	ErrFolderNotFound = errors.NewStd("folder not found")

	// ErrTextNotFound indicates the requested text does not exist.
	ErrTextNotFound = errors.NewStd("text not found")

	// ErrSentenceNotFound indicates the text has no sentence at the index.
	ErrSentenceNotFound = errors.NewStd("sentence not found")

	// ErrTextRecordingNotFound indicates the requested text recording does not exist.
	ErrTextRecordingNotFound = errors.NewStd("text recording not found")

	// ErrSentenceRecordingNotFound indicates no sentence recording exists at the index.
	ErrSentenceRecordingNotFound = errors.NewStd("sentence recording not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)

// notFound wraps a sentinel with the lookup key.
func notFound(sentinel error, key string, value any) error {
	return errors.New(sentinel).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context(key, value).
		Build()
}

// dbError classifies a GORM error. Record-not-found maps to sentinel when one
// is given; unique violations map to ErrDuplicateKey.
func dbError(err error, operation string, sentinel error, key string, value any) error {
	switch {
	case err == nil:
		return nil
	case sentinel != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(sentinel, key, value)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.New(errors.Join(ErrDuplicateKey, err)).
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("operation", operation).
			Build()
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
