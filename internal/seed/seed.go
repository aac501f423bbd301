// Package seed loads users, folders and texts from a YAML file, for setting up
// a store before recordings are submitted.
package seed

import (
	"context"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
)

// File is the seed document.
type File struct {
	Users   []User   `yaml:"users"`
	Folders []Folder `yaml:"folders"`
}

// User describes one account. DateJoined uses YYYY-MM-DD.
type User struct {
	Username   string `yaml:"username"`
	Email      string `yaml:"email"`
	Gender     string `yaml:"gender"`
	Education  string `yaml:"education"`
	Country    string `yaml:"country"`
	Accent     string `yaml:"accent"`
	DateJoined string `yaml:"date_joined"`
}

// Folder is a folder with its shared speakers, texts and subfolders.
type Folder struct {
	Name     string   `yaml:"name"`
	Speakers []string `yaml:"speakers"`
	Texts    []Text   `yaml:"texts"`
	Folders  []Folder `yaml:"folders"`
}

// Text is a title and its sentences in order.
type Text struct {
	Title     string   `yaml:"title"`
	Sentences []string `yaml:"sentences"`
}

// Summary counts what Apply created.
type Summary struct {
	Users     int
	Folders   int
	Texts     int
	Sentences int
}

// Load decodes a seed document. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, errors.New(err).
			Component("seed").
			Category(errors.CategoryValidation).
			Build()
	}
	return &f, nil
}

// Apply writes the document in one transaction. Users that already exist are
// reused; everything else is created.
func Apply(ctx context.Context, repos *repository.Repositories, f *File) (Summary, error) {
	var sum Summary
	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
		sum = Summary{}
		users := make(map[string]uint)
		for _, u := range f.Users {
			id, created, err := ensureUser(ctx, tx, u)
			if err != nil {
				return err
			}
			users[u.Username] = id
			if created {
				sum.Users++
			}
		}
		for i := range f.Folders {
			if err := applyFolder(ctx, tx, &f.Folders[i], nil, users, &sum); err != nil {
				return err
			}
		}
		return nil
	})
	return sum, err
}

func ensureUser(ctx context.Context, tx *repository.Repositories, u User) (uint, bool, error) {
	if u.Username == "" {
		return 0, false, invalid("user without username")
	}
	existing, err := tx.Users.GetByUsername(ctx, u.Username)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return 0, false, err
	}

	joined := time.Now().UTC()
	if u.DateJoined != "" {
		if joined, err = time.Parse(time.DateOnly, u.DateJoined); err != nil {
			return 0, false, invalid("user %s has invalid date_joined %q", u.Username, u.DateJoined)
		}
	}
	user := &entities.User{
		Username:   u.Username,
		Email:      u.Email,
		Gender:     u.Gender,
		Education:  u.Education,
		Country:    u.Country,
		Accent:     u.Accent,
		DateJoined: joined,
	}
	if err := tx.Users.Create(ctx, user); err != nil {
		return 0, false, err
	}
	return user.ID, true, nil
}

func applyFolder(ctx context.Context, tx *repository.Repositories, f *Folder, parent *entities.Folder, users map[string]uint, sum *Summary) error {
	folder := &entities.Folder{Name: f.Name}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	if err := tx.Folders.Create(ctx, folder); err != nil {
		return err
	}
	sum.Folders++

	speakerIDs := make([]uint, 0, len(f.Speakers))
	for _, name := range f.Speakers {
		id, ok := users[name]
		if !ok {
			u, err := tx.Users.GetByUsername(ctx, name)
			if err != nil {
				return err
			}
			id = u.ID
		}
		speakerIDs = append(speakerIDs, id)
	}
	if err := tx.Folders.AddSpeakers(ctx, folder.ID, speakerIDs...); err != nil {
		return err
	}

	for _, t := range f.Texts {
		if len(t.Sentences) == 0 {
			return invalid("text %q in folder %q has no sentences", t.Title, f.Name)
		}
		text := &entities.Text{Title: t.Title, FolderID: folder.ID}
		if err := tx.Texts.Create(ctx, text, t.Sentences); err != nil {
			return err
		}
		sum.Texts++
		sum.Sentences += len(t.Sentences)
	}

	for i := range f.Folders {
		if err := applyFolder(ctx, tx, &f.Folders[i], folder, users, sum); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("seed").
		Category(errors.CategoryValidation).
		Build()
}
