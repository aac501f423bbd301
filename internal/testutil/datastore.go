package testutil

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

// NewRepositories opens a migrated SQLite database in a temp dir. The
// connection is closed when the test ends.
func NewRepositories(t *testing.T) *repository.Repositories {
	t.Helper()

	mgr, err := datastore.NewSQLiteManager(filepath.Join(t.TempDir(), "test.db"), datastore.Config{
		Logger: logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil),
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize(context.Background()))
	t.Cleanup(func() { _ = mgr.Close() })

	return repository.New(mgr.DB(), mgr.IsMySQL())
}

// Fixture holds the rows created by SeedText.
type Fixture struct {
	Folder  *entities.Folder
	Text    *entities.Text
	Speaker *entities.User
}

// CreateUser inserts a speaker with demographic fields filled from the username.
func CreateUser(t *testing.T, repos *repository.Repositories, username string) *entities.User {
	t.Helper()
	user := &entities.User{
		Username:   username,
		Email:      username + "@example.com",
		Gender:     "M",
		Education:  "B6",
		Country:    "DEU",
		Accent:     "standard",
		DateJoined: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

// CreateFolder inserts a folder below parent, or a root folder if parent is nil.
func CreateFolder(t *testing.T, repos *repository.Repositories, name string, parent *entities.Folder) *entities.Folder {
	t.Helper()
	folder := &entities.Folder{Name: name}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	require.NoError(t, repos.Folders.Create(context.Background(), folder))
	return folder
}

// CreateText inserts a text with the given sentences.
func CreateText(t *testing.T, repos *repository.Repositories, folder *entities.Folder, title string, sentences ...string) *entities.Text {
	t.Helper()
	text := &entities.Text{Title: title, FolderID: folder.ID}
	require.NoError(t, repos.Texts.Create(context.Background(), text, sentences))
	return text
}

// SeedText creates a folder shared with one speaker and a text of the given sentences.
func SeedText(t *testing.T, repos *repository.Repositories, username string, sentences ...string) Fixture {
	t.Helper()
	folder := CreateFolder(t, repos, "folder", nil)
	speaker := CreateUser(t, repos, username)
	require.NoError(t, repos.Folders.AddSpeakers(context.Background(), folder.ID, speaker.ID))
	text := CreateText(t, repos, folder, "t1", sentences...)
	return Fixture{Folder: folder, Text: text, Speaker: speaker}
}
