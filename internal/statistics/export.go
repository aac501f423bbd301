package statistics

import (
	"encoding/csv"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

var identityColumns = []string{"Username", "Email", "Gender", "Education", "Country", "Accent", "Date Joined"}

var folderColumns = []string{
	"New Time", "Word Count", "New Reps", "Legacy No Rep", "Legacy With Rep",
	"Current Recordings", "All Recordings",
}

var groupColumns = []string{"Word Count", "Current Recordings", "All Recordings"}

const identityGroup = "Speaker"

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (s Speaker) columns() []string {
	return []string{s.Username, s.Email, s.Gender, s.Education, s.Country, s.Accent, s.DateJoined}
}

func repeat(v string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// WriteCSV writes the report with two header rows: the column group, then
// the column name.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(repeat(identityGroup, len(identityColumns)), repeat(r.Folder, len(folderColumns))...)
	names := append(append([]string{}, identityColumns...), folderColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(names); err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := append(row.Speaker.columns(),
			seconds(row.NewTime),
			strconv.Itoa(row.WordCount),
			seconds(row.NewReps),
			seconds(row.LegacyNoRep),
			seconds(row.LegacyWithRep),
			seconds(row.Current),
			seconds(row.All))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the multi-folder report with two header rows: the group
// (speaker identity, Totals, then each folder), then the column name.
func (m *MultiReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := repeat(identityGroup, len(identityColumns))
	names := append([]string{}, identityColumns...)
	for _, g := range m.Groups {
		header = append(header, repeat(g, len(groupColumns))...)
		names = append(names, groupColumns...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(names); err != nil {
		return err
	}
	for _, row := range m.Rows {
		record := row.Speaker.columns()
		for _, v := range row.Values {
			record = append(record, strconv.Itoa(v.WordCount), seconds(v.Current), seconds(v.All))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML encodes a Report or MultiReport.
func WriteYAML(w io.Writer, report any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
