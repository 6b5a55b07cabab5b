package report

import (
	"context"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// UnitStat is one row of the management summary.
type UnitStat struct {
	UnitID        int64
	Name          string
	Entries       int
	TotalDuration int
	AvgDuration   float64
	Headcount     int
}

// Summary is the management dashboard payload: per-unit stats plus
// organization-wide totals.
type Summary struct {
	Units         []UnitStat
	TotalEntries  int
	TotalDuration int
	TotalActors   int
	TodayEntries  int
}

// Summary computes the management overview for the filtered range. Unit rows
// follow the declared unit order and include zero rows for idle units.
func (e *Engine) Summary(ctx context.Context, filter domain.RecordFilter) (Summary, error) {
	units, err := e.scopeUnits(ctx, filter)
	if err != nil {
		return Summary{}, err
	}

	counts, err := e.store.CountByUnit(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	durations, err := e.store.SumDurationByUnit(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	headcounts, err := e.store.StaticHeadcount(ctx)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Units: make([]UnitStat, 0, len(units))}
	for _, u := range units {
		stat := UnitStat{
			UnitID:        u.ID,
			Name:          u.Name,
			Entries:       counts[u.ID],
			TotalDuration: durations[u.ID],
			AvgDuration:   round2(avg(durations[u.ID], counts[u.ID])),
			Headcount:     headcounts[u.ID],
		}
		out.Units = append(out.Units, stat)
		out.TotalEntries += stat.Entries
		out.TotalDuration += stat.TotalDuration
		out.TotalActors += stat.Headcount
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	dayFilter := filter
	dayFilter.From = &today
	dayFilter.To = &today
	if out.TodayEntries, err = e.store.Count(ctx, dayFilter); err != nil {
		return Summary{}, err
	}
	return out, nil
}
