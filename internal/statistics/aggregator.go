package statistics

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/repository"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/observability/metrics"
)

// DefaultMaxDepth bounds the folder levels visited below a report root.
const DefaultMaxDepth = 32

// Config configures an Aggregator.
type Config struct {
	Repos    *repository.Repositories
	MaxDepth int
	Logger   logger.Logger
	Metrics  *metrics.StatisticsMetrics
}

// Aggregator builds folder reports. It only reads committed state and may
// run alongside submissions.
type Aggregator struct {
	repos    *repository.Repositories
	maxDepth int
	log      logger.Logger
	metrics  *metrics.StatisticsMetrics
}

// NewAggregator creates an aggregator.
func NewAggregator(cfg Config) *Aggregator {
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Aggregator{
		repos:    cfg.Repos,
		maxDepth: depth,
		log:      log.Module("statistics"),
		metrics:  cfg.Metrics,
	}
}

func (w Window) validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return errors.Newf("report window ends %s before it starts %s",
			w.End.UTC().Format(time.RFC3339), w.Start.UTC().Format(time.RFC3339)).
			Component("statistics").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

func (w Window) timeRange() repository.TimeRange {
	return repository.TimeRange{Start: w.Start, End: w.End}
}

// FolderReport aggregates the subtree rooted at folderID.
func (a *Aggregator) FolderReport(ctx context.Context, folderID uint, w Window, filter UserFilter) (*Report, error) {
	start := time.Now()
	report, err := a.folderReport(ctx, folderID, w, filter)
	status := metrics.StatusSuccess
	folders := 0
	if err != nil {
		status = metrics.StatusError
	} else {
		folders = report.Folders
	}
	a.metrics.RecordReport(metrics.ReportFolder, status, folders, time.Since(start).Seconds())
	return report, err
}

func (a *Aggregator) folderReport(ctx context.Context, folderID uint, w Window, filter UserFilter) (*Report, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	root, err := a.repos.Folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	ids, err := a.subtree(ctx, root)
	if err != nil {
		return nil, err
	}

	totalWords, err := a.repos.Texts.TotalWords(ctx, ids)
	if err != nil {
		return nil, err
	}
	rows, err := a.rows(ctx, ids, w.timeRange(), filter)
	if err != nil {
		return nil, err
	}

	a.log.Debug("aggregated folder report",
		logger.Uint("folder_id", root.ID),
		logger.Int("folders", len(ids)),
		logger.Int("speakers", len(rows)),
		logger.Int("total_words", totalWords))
	return &Report{
		FolderID:   root.ID,
		Folder:     root.Name,
		Window:     w,
		Folders:    len(ids),
		TotalWords: totalWords,
		Rows:       rows,
	}, nil
}

// subtree lists root and its descendants breadth first, at most maxDepth
// levels below root. A folder reached twice is visited once.
func (a *Aggregator) subtree(ctx context.Context, root *entities.Folder) ([]uint, error) {
	ids := []uint{root.ID}
	seen := map[uint]struct{}{root.ID: {}}
	level := []uint{root.ID}
	for depth := 1; len(level) > 0; depth++ {
		children, err := a.repos.Folders.GetChildren(ctx, level)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			break
		}
		if depth > a.maxDepth {
			a.log.Warn("folder tree deeper than report limit, deeper folders skipped",
				logger.Uint("folder_id", root.ID),
				logger.Int("max_depth", a.maxDepth))
			break
		}
		level = level[:0:0]
		for i := range children {
			id := children[i].ID
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			level = append(level, id)
		}
	}
	return ids, nil
}

// rows builds one zero-filled row per speaker who is declared on a folder of
// the subtree or recorded a text in it.
func (a *Aggregator) rows(ctx context.Context, folderIDs []uint, tr repository.TimeRange, filter UserFilter) ([]Row, error) {
	stats := a.repos.Statistics

	segments, err := stats.SegmentTotals(ctx, folderIDs, tr)
	if err != nil {
		return nil, err
	}
	backups, err := stats.BackupTotals(ctx, folderIDs, tr)
	if err != nil {
		return nil, err
	}
	legacy, err := stats.LegacyCounters(ctx, folderIDs, tr)
	if err != nil {
		return nil, err
	}
	declared, err := a.repos.Folders.GetSpeakerIDs(ctx, folderIDs)
	if err != nil {
		return nil, err
	}
	recorders, err := stats.RecordingSpeakerIDs(ctx, folderIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*Row)
	row := func(id uint) *Row {
		r, ok := byID[id]
		if !ok {
			r = &Row{}
			byID[id] = r
		}
		return r
	}
	for _, id := range declared {
		row(id)
	}
	for _, id := range recorders {
		row(id)
	}
	for _, s := range segments {
		r := row(s.SpeakerID)
		r.NewTime += s.NewTime
		r.WordCount += s.Words
	}
	for _, b := range backups {
		row(b.SpeakerID).NewReps += b.Length
	}
	for _, l := range legacy {
		noRep, withRep := legacyFill(l.RecTimeWithoutRep, l.RecTimeWithRep)
		r := row(l.SpeakerID)
		r.LegacyNoRep += noRep
		r.LegacyWithRep += withRep
	}

	ids := make([]uint, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	users, err := a.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(byID))
	for id, r := range byID {
		u, ok := users[id]
		if !ok {
			a.log.Warn("report references unknown user", logger.Uint("user_id", id))
			continue
		}
		if !filter.allows(u.Username) {
			continue
		}
		r.Speaker = speakerFromUser(u)
		r.derive()
		rows = append(rows, *r)
	}
	slices.SortFunc(rows, func(x, y Row) int {
		return strings.Compare(x.Speaker.Username, y.Speaker.Username)
	})
	return rows, nil
}

// legacyFill resolves the pre-migration counters of one text recording. An
// unset with-rep counter falls back to the no-rep counter; unset both is zero.
func legacyFill(noRep, withRep *float64) (float64, float64) {
	var n float64
	if noRep != nil {
		n = *noRep
	}
	w := n
	if withRep != nil {
		w = *withRep
	}
	return n, w
}
