package transcript

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
)

var contributorHeader = []string{"username", "email", "gender", "education", "country", "accent", "date_joined"}

// Contributor is one row of a folder's speaker log.
type Contributor struct {
	Username   string
	Email      string
	Gender     string
	Education  string
	Country    string
	Accent     string
	DateJoined string
}

// ContributorFromUser copies the logged fields of a user.
func ContributorFromUser(u *entities.User) Contributor {
	return Contributor{
		Username:   u.Username,
		Email:      u.Email,
		Gender:     u.Gender,
		Education:  u.Education,
		Country:    u.Country,
		Accent:     u.Accent,
		DateJoined: u.DateJoined.UTC().Format(time.DateOnly),
	}
}

// ParseContributors reads a speaker log. Empty input is an empty log.
func ParseContributors(data []byte) ([]Contributor, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(contributorHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.New(err).
			Component("transcript").
			Category(errors.CategoryValidation).
			Context("artifact", "contributor log").
			Build()
	}
	if len(records) == 0 {
		return nil, nil
	}
	if records[0][0] != contributorHeader[0] {
		return nil, errors.Newf("contributor log has unexpected header %q", records[0]).
			Component("transcript").
			Category(errors.CategoryValidation).
			Build()
	}

	out := make([]Contributor, 0, len(records)-1)
	for _, rec := range records[1:] {
		out = append(out, Contributor{
			Username:   rec[0],
			Email:      rec[1],
			Gender:     rec[2],
			Education:  rec[3],
			Country:    rec[4],
			Accent:     rec[5],
			DateJoined: rec[6],
		})
	}
	return out, nil
}

// FormatContributors writes a speaker log with its header row.
func FormatContributors(contributors []Contributor) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if err := w.Write(contributorHeader); err != nil {
		return nil, err
	}
	for _, c := range contributors {
		if err := w.Write([]string{c.Username, c.Email, c.Gender, c.Education, c.Country, c.Accent, c.DateJoined}); err != nil {
			return nil, fmt.Errorf("failed to write contributor %s: %w", c.Username, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// AddContributor appends c unless its username is already listed.
func AddContributor(log []Contributor, c Contributor) ([]Contributor, bool) {
	for _, existing := range log {
		if existing.Username == c.Username {
			return log, false
		}
	}
	return append(log, c), true
}
