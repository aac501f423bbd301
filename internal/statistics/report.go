// Package statistics aggregates recording time and word counts over folder
// subtrees into per-speaker reports.
package statistics

import (
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
)

// Window restricts a report to records in [Start, End]. A zero bound is open.
type Window struct {
	Start time.Time `yaml:"start,omitempty"`
	End   time.Time `yaml:"end,omitempty"`
}

// UserFilter limits the rows of a report to the listed usernames. An empty
// filter keeps every speaker.
type UserFilter struct {
	Usernames []string
}

func (f UserFilter) allows(username string) bool {
	if len(f.Usernames) == 0 {
		return true
	}
	for _, u := range f.Usernames {
		if u == username {
			return true
		}
	}
	return false
}

// Speaker holds the identity columns shown left of the numbers.
type Speaker struct {
	Username   string `yaml:"username"`
	Email      string `yaml:"email"`
	Gender     string `yaml:"gender"`
	Education  string `yaml:"education"`
	Country    string `yaml:"country"`
	Accent     string `yaml:"accent"`
	DateJoined string `yaml:"date_joined"`
}

func speakerFromUser(u *entities.User) Speaker {
	return Speaker{
		Username:   u.Username,
		Email:      u.Email,
		Gender:     u.Gender,
		Education:  u.Education,
		Country:    u.Country,
		Accent:     u.Accent,
		DateJoined: u.DateJoined.UTC().Format(time.DateOnly),
	}
}

// Row is one speaker's totals. Times are seconds.
type Row struct {
	Speaker       Speaker `yaml:"speaker"`
	NewTime       float64 `yaml:"new_time"`
	WordCount     int     `yaml:"word_count"`
	NewReps       float64 `yaml:"new_reps"`
	LegacyNoRep   float64 `yaml:"legacy_no_rep"`
	LegacyWithRep float64 `yaml:"legacy_with_rep"`
	Current       float64 `yaml:"current_recordings"`
	All           float64 `yaml:"all_recordings"`
}

func (r *Row) derive() {
	r.Current = r.NewTime + r.LegacyNoRep
	r.All = r.NewTime + r.NewReps + r.LegacyWithRep
}

// Report is the statistics table of one folder subtree.
type Report struct {
	FolderID   uint   `yaml:"folder_id"`
	Folder     string `yaml:"folder"`
	Window     Window `yaml:"window"`
	Folders    int    `yaml:"folders"`
	TotalWords int    `yaml:"total_words"`
	Rows       []Row  `yaml:"rows"`
}

// Row returns the row of username, if present.
func (r *Report) Row(username string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Speaker.Username == username {
			return row, true
		}
	}
	return Row{}, false
}

// TotalsGroup names the synthetic first group of a multi-folder report.
const TotalsGroup = "Totals"

// GroupValues are the numbers shown per folder in a multi-folder report.
type GroupValues struct {
	WordCount int     `yaml:"word_count"`
	Current   float64 `yaml:"current_recordings"`
	All       float64 `yaml:"all_recordings"`
}

func (g *GroupValues) add(o GroupValues) {
	g.WordCount += o.WordCount
	g.Current += o.Current
	g.All += o.All
}

// MultiRow is one speaker across every group. Values is parallel to
// MultiReport.Groups.
type MultiRow struct {
	Speaker Speaker       `yaml:"speaker"`
	Values  []GroupValues `yaml:"values"`
}

// MultiReport places sibling folder reports side by side, Totals first.
type MultiReport struct {
	Window Window     `yaml:"window"`
	Groups []string   `yaml:"groups"`
	Rows   []MultiRow `yaml:"rows"`
}
