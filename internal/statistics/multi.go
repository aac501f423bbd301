package statistics

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/observability/metrics"
)

// maxConcurrentReports bounds the sibling reports aggregated at once.
const maxConcurrentReports = 4

// MultiFolderReport computes a report per folder and lays them side by side
// under a Totals group. Folders follow Totals in name order.
func (a *Aggregator) MultiFolderReport(ctx context.Context, folderIDs []uint, w Window, filter UserFilter) (*MultiReport, error) {
	start := time.Now()
	report, visited, err := a.multiFolderReport(ctx, folderIDs, w, filter)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	a.metrics.RecordReport(metrics.ReportFolders, status, visited, time.Since(start).Seconds())
	return report, err
}

func (a *Aggregator) multiFolderReport(ctx context.Context, folderIDs []uint, w Window, filter UserFilter) (*MultiReport, int, error) {
	if len(folderIDs) == 0 {
		return nil, 0, errors.Newf("multi-folder report needs at least one folder").
			Component("statistics").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := w.validate(); err != nil {
		return nil, 0, err
	}

	reports := make([]*Report, len(folderIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReports)
	for i, id := range folderIDs {
		g.Go(func() error {
			r, err := a.folderReport(gctx, id, w, filter)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	slices.SortStableFunc(reports, func(x, y *Report) int {
		if c := strings.Compare(x.Folder, y.Folder); c != 0 {
			return c
		}
		return cmp.Compare(x.FolderID, y.FolderID)
	})
	visited := 0
	for _, r := range reports {
		visited += r.Folders
	}

	multi := merge(reports)
	multi.Window = w
	a.log.Debug("aggregated multi-folder report",
		logger.Int("folders", len(reports)),
		logger.Int("speakers", len(multi.Rows)))
	return multi, visited, nil
}

// merge joins ordered folder reports into one table with Totals first.
// Speakers missing from a folder get zeros there.
func merge(reports []*Report) *MultiReport {
	groups := make([]string, 0, len(reports)+1)
	groups = append(groups, TotalsGroup)
	for _, r := range reports {
		groups = append(groups, r.Folder)
	}

	rows := make(map[string]*MultiRow)
	for gi, r := range reports {
		for _, row := range r.Rows {
			mr, ok := rows[row.Speaker.Username]
			if !ok {
				mr = &MultiRow{Speaker: row.Speaker, Values: make([]GroupValues, len(groups))}
				rows[row.Speaker.Username] = mr
			}
			v := GroupValues{WordCount: row.WordCount, Current: row.Current, All: row.All}
			mr.Values[gi+1] = v
			mr.Values[0].add(v)
		}
	}

	out := &MultiReport{Groups: groups, Rows: make([]MultiRow, 0, len(rows))}
	for _, mr := range rows {
		out.Rows = append(out.Rows, *mr)
	}
	slices.SortFunc(out.Rows, func(x, y MultiRow) int {
		return strings.Compare(x.Speaker.Username, y.Speaker.Username)
	})
	return out
}
