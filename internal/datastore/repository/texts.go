package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

// TextRepository provides access to texts and their sentences.
type TextRepository interface {
	// Create inserts a text with one sentence per content entry, indexed from 1.
	Create(ctx context.Context, text *entities.Text, contents []string) error
	// GetByID returns ErrTextNotFound when the text does not exist.
	GetByID(ctx context.Context, id uint) (*entities.Text, error)
	// GetSentence returns ErrSentenceNotFound when the text has no sentence at index.
	GetSentence(ctx context.Context, textID uint, index int) (*entities.Sentence, error)
	// GetSentenceByID returns ErrSentenceNotFound when the sentence does not exist.
	GetSentenceByID(ctx context.Context, id uint) (*entities.Sentence, error)
	// GetSentences returns all sentences of a text ordered by index.
	GetSentences(ctx context.Context, textID uint) ([]entities.Sentence, error)
	// CountSentences returns the number of sentences of a text.
	CountSentences(ctx context.Context, textID uint) (int, error)
	// GetByFolders returns the texts of the given folders ordered by ID.
	GetByFolders(ctx context.Context, folderIDs []uint) ([]entities.Text, error)
	// TotalWords sums the sentence word counts of every text in the folders.
	TotalWords(ctx context.Context, folderIDs []uint) (int, error)
}

type textRepository struct {
	db *gorm.DB
}

func (r *textRepository) Create(ctx context.Context, text *entities.Text, contents []string) error {
	if text == nil || text.FolderID == 0 || len(contents) == 0 {
		return ErrInvalidInput
	}
	text.Sentences = make([]entities.Sentence, len(contents))
	for i, content := range contents {
		text.Sentences[i] = entities.Sentence{
			Index:     i + 1,
			Content:   content,
			WordCount: entities.CountWords(content),
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Folder").Create(text).Error
	})
	return dbError(err, "create text", nil, "", nil)
}

func (r *textRepository) GetByID(ctx context.Context, id uint) (*entities.Text, error) {
	var text entities.Text
	err := r.db.WithContext(ctx).First(&text, id).Error
	if err != nil {
		return nil, dbError(err, "get text", ErrTextNotFound, "text_id", id)
	}
	return &text, nil
}

func (r *textRepository) GetSentence(ctx context.Context, textID uint, index int) (*entities.Sentence, error) {
	var sentence entities.Sentence
	err := r.db.WithContext(ctx).
		Where("text_id = ? AND sentence_index = ?", textID, index).
		First(&sentence).Error
	if err != nil {
		return nil, dbError(err, "get sentence", ErrSentenceNotFound, "index", index)
	}
	return &sentence, nil
}

func (r *textRepository) GetSentenceByID(ctx context.Context, id uint) (*entities.Sentence, error) {
	var sentence entities.Sentence
	if err := r.db.WithContext(ctx).First(&sentence, id).Error; err != nil {
		return nil, dbError(err, "get sentence", ErrSentenceNotFound, "sentence_id", id)
	}
	return &sentence, nil
}

func (r *textRepository) GetSentences(ctx context.Context, textID uint) ([]entities.Sentence, error) {
	var sentences []entities.Sentence
	err := r.db.WithContext(ctx).
		Where("text_id = ?", textID).
		Order("sentence_index").
		Find(&sentences).Error
	if err != nil {
		return nil, dbError(err, "get sentences", nil, "", nil)
	}
	return sentences, nil
}

func (r *textRepository) CountSentences(ctx context.Context, textID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Sentence{}).
		Where("text_id = ?", textID).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count sentences", nil, "", nil)
	}
	return int(count), nil
}

func (r *textRepository) GetByFolders(ctx context.Context, folderIDs []uint) ([]entities.Text, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var texts []entities.Text
	err := r.db.WithContext(ctx).
		Where("folder_id IN ?", folderIDs).
		Order("id").
		Find(&texts).Error
	if err != nil {
		return nil, dbError(err, "get texts", nil, "", nil)
	}
	return texts, nil
}

func (r *textRepository) TotalWords(ctx context.Context, folderIDs []uint) (int, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := r.db.WithContext(ctx).
		Table("sentences AS s").
		Joins("JOIN texts t ON t.id = s.text_id").
		Where("t.folder_id IN ?", folderIDs).
		Select("COALESCE(SUM(s.word_count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, dbError(err, "sum words", nil, "", nil)
	}
	return int(total), nil
}
