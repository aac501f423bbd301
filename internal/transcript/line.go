package transcript

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
)

// Metadata is the bracketed speaker tuple of a transcript line.
type Metadata struct {
	Gender      string
	Education   string
	Permissions string
	Country     string
	Accent      string
}

// Line is one aligned segment:
//
//	<segment> <start> <end> <speaker> <gender,education,permissions,country,accent> <content>
type Line struct {
	SegmentID string
	Start     float64
	End       float64
	Speaker   string
	Meta      Metadata
	Content   string
}

// PermissionsLabel encodes the usage permissions of a recording.
func PermissionsLabel(tts, sr bool) string {
	switch {
	case tts && sr:
		return "TTS+SR"
	case tts:
		return "TTS"
	case sr:
		return "SR"
	default:
		return "NONE"
	}
}

// SegmentID names the index-th segment of a speaker's recording of a text.
func SegmentID(username string, textID uint, index int) string {
	return fmt.Sprintf("%s_%d_%04d", username, textID, index)
}

const emptyField = "NA"

// field makes a value safe inside the metadata tuple or as a single token.
func field(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return emptyField
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '<', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, v)
}

func content(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// String renders the line without a trailing newline. Times use two decimals.
func (l Line) String() string {
	return fmt.Sprintf("%s %.2f %.2f %s <%s,%s,%s,%s,%s> %s",
		field(l.SegmentID), l.Start, l.End, field(l.Speaker),
		field(l.Meta.Gender), field(l.Meta.Education), field(l.Meta.Permissions),
		field(l.Meta.Country), field(l.Meta.Accent),
		content(l.Content))
}

// Format renders lines, one per row, each terminated by a newline.
func Format(lines []Line) []byte {
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Parse reads lines produced by Format. Blank rows are skipped. Rows have no
// length limit.
func Parse(data []byte) ([]Line, error) {
	var lines []Line
	row := 0
	for raw := range bytes.Lines(data) {
		row++
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		line, err := parseLine(text)
		if err != nil {
			return nil, errors.New(err).
				Component("transcript").
				Category(errors.CategoryValidation).
				Context("row", row).
				Build()
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseLine(text string) (Line, error) {
	open := strings.IndexByte(text, '<')
	closing := strings.IndexByte(text, '>')
	if open < 0 || closing < open {
		return Line{}, fmt.Errorf("missing speaker metadata in %q", text)
	}

	head := strings.Fields(text[:open])
	if len(head) != 4 {
		return Line{}, fmt.Errorf("expected segment, start, end and speaker before metadata, got %d fields", len(head))
	}
	start, err := strconv.ParseFloat(head[1], 64)
	if err != nil {
		return Line{}, fmt.Errorf("invalid start time %q: %w", head[1], err)
	}
	end, err := strconv.ParseFloat(head[2], 64)
	if err != nil {
		return Line{}, fmt.Errorf("invalid end time %q: %w", head[2], err)
	}

	meta := strings.Split(text[open+1:closing], ",")
	if len(meta) != 5 {
		return Line{}, fmt.Errorf("expected 5 metadata fields, got %d", len(meta))
	}

	return Line{
		SegmentID: head[0],
		Start:     start,
		End:       end,
		Speaker:   head[3],
		Meta: Metadata{
			Gender:      meta[0],
			Education:   meta[1],
			Permissions: meta[2],
			Country:     meta[3],
			Accent:      meta[4],
		},
		Content: strings.TrimSpace(text[closing+1:]),
	}, nil
}
