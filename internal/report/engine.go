// Package report implements the read-side aggregation engine. Every
// operation applies one shared filter, returns label/series pairs as plain
// data, and yields zero-filled results instead of failing on empty input.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// dayLayout is the label format for daily series.
const dayLayout = "2006-01-02"

// DefaultTopActors is the ranking size when the caller does not choose one.
const DefaultTopActors = 10

// UnknownCategory is the single bucket collapsing blank categories.
const UnknownCategory = "Unknown"

// Weekdays labels the heatmap rows; index 0 is Sunday, matching
// time.Weekday. Bucketing uses UTC wall-clock time of the stored timestamp;
// this is part of the contract, not an ambient default.
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ActorCount is one grouped (actor, count) pair from the store, ordered by
// count descending with actor id ascending as the deterministic tie-break.
type ActorCount struct {
	ActorID int64
	Count   int
}

// CategoryCount is one grouped (category, count) pair; blank categories
// arrive with an empty label.
type CategoryCount struct {
	Category string
	Count    int
}

// Store is the query surface the engine reads. Grouped reductions are
// computed by the storage engine over indexed columns; the engine never
// materializes full record sets.
type Store interface {
	ListUnits(ctx context.Context, includeManagement bool) ([]domain.Unit, error)
	Count(ctx context.Context, filter domain.RecordFilter) (int, error)
	CountByUnit(ctx context.Context, filter domain.RecordFilter) (map[int64]int, error)
	DurationByUnitPriority(ctx context.Context, filter domain.RecordFilter) (map[int64]map[string]int, error)
	SumDurationByUnit(ctx context.Context, filter domain.RecordFilter) (map[int64]int, error)
	CountByDay(ctx context.Context, filter domain.RecordFilter) (map[string]int, error)
	CountByActor(ctx context.Context, filter domain.RecordFilter, limit int) ([]ActorCount, error)
	ActorNames(ctx context.Context, actorIDs []int64) (map[int64]string, error)
	StaticHeadcount(ctx context.Context) (map[int64]int, error)
	ActiveHeadcount(ctx context.Context, filter domain.RecordFilter) (map[int64]int, error)
	CountByWeekdayHour(ctx context.Context, filter domain.RecordFilter) ([7][24]int, error)
	CountByCategory(ctx context.Context, filter domain.RecordFilter) ([]CategoryCount, error)
}

// Engine answers multi-dimensional statistical queries over the record set.
type Engine struct {
	store Store
}

// NewEngine constructs an Engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// scopeUnits resolves the units a grouping operation ranges over: the
// declared unit order, excluding Management unless the filter names a unit
// explicitly.
func (e *Engine) scopeUnits(ctx context.Context, filter domain.RecordFilter) ([]domain.Unit, error) {
	units, err := e.store.ListUnits(ctx, filter.UnitID != nil)
	if err != nil {
		return nil, err
	}
	if filter.UnitID == nil {
		return units, nil
	}
	for _, u := range units {
		if u.ID == *filter.UnitID {
			return []domain.Unit{u}, nil
		}
	}
	return nil, nil
}

// BarChart pairs unit (or category) labels with counts, aligned by index.
type BarChart struct {
	Labels []string
	Counts []int
}

// CountsByUnit counts matching records per in-scope unit.
func (e *Engine) CountsByUnit(ctx context.Context, filter domain.RecordFilter) (BarChart, error) {
	units, err := e.scopeUnits(ctx, filter)
	if err != nil {
		return BarChart{}, err
	}

	perUnit, err := e.store.CountByUnit(ctx, filter)
	if err != nil {
		return BarChart{}, err
	}

	chart := BarChart{Labels: make([]string, 0, len(units)), Counts: make([]int, 0, len(units))}
	for _, u := range units {
		chart.Labels = append(chart.Labels, u.Name)
		chart.Counts = append(chart.Counts, perUnit[u.ID])
	}
	return chart, nil
}

// PrioritySeries is one duration series aligned to the shared unit labels.
type PrioritySeries struct {
	Priority  string
	Durations []int
}

// PriorityBreakdown is the duration-by-unit result, one series per priority.
type PriorityBreakdown struct {
	Labels     []string
	Priorities []string
	Series     []PrioritySeries
}

// DurationByPriority sums duration per unit, broken down by the priority
// values present in the filtered set. Blank priority collapses into the
// "Other" bucket; when nothing matches, the canonical set is used so the
// caller still receives aligned zero series.
func (e *Engine) DurationByPriority(ctx context.Context, filter domain.RecordFilter) (PriorityBreakdown, error) {
	units, err := e.scopeUnits(ctx, filter)
	if err != nil {
		return PriorityBreakdown{}, err
	}

	grouped, err := e.store.DurationByUnitPriority(ctx, filter)
	if err != nil {
		return PriorityBreakdown{}, err
	}

	prioritySet := map[string]struct{}{}
	for _, byPriority := range grouped {
		for p := range byPriority {
			prioritySet[bucketPriority(p)] = struct{}{}
		}
	}

	var priorities []string
	if len(prioritySet) == 0 {
		priorities = []string{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow, domain.PriorityOther}
	} else {
		for p := range prioritySet {
			priorities = append(priorities, p)
		}
		sort.Strings(priorities)
	}

	out := PriorityBreakdown{
		Priorities: priorities,
		Labels:     make([]string, 0, len(units)),
	}
	for _, u := range units {
		out.Labels = append(out.Labels, u.Name)
	}

	for _, priority := range priorities {
		series := PrioritySeries{Priority: priority, Durations: make([]int, 0, len(units))}
		for _, u := range units {
			total := 0
			for p, dur := range grouped[u.ID] {
				if bucketPriority(p) == priority {
					total += dur
				}
			}
			series.Durations = append(series.Durations, total)
		}
		out.Series = append(out.Series, series)
	}
	return out, nil
}

func bucketPriority(p string) string {
	if p == "" {
		return domain.PriorityOther
	}
	return p
}

// AverageChart pairs unit labels with average durations rounded to 2 places.
type AverageChart struct {
	Labels   []string
	Averages []float64
}

// AverageDurationByUnit computes sum(duration)/count per unit, zero when a
// unit has no matching records.
func (e *Engine) AverageDurationByUnit(ctx context.Context, filter domain.RecordFilter) (AverageChart, error) {
	units, err := e.scopeUnits(ctx, filter)
	if err != nil {
		return AverageChart{}, err
	}

	counts, err := e.store.CountByUnit(ctx, filter)
	if err != nil {
		return AverageChart{}, err
	}
	durations, err := e.store.SumDurationByUnit(ctx, filter)
	if err != nil {
		return AverageChart{}, err
	}

	chart := AverageChart{Labels: make([]string, 0, len(units)), Averages: make([]float64, 0, len(units))}
	for _, u := range units {
		chart.Labels = append(chart.Labels, u.Name)
		chart.Averages = append(chart.Averages, round2(avg(durations[u.ID], counts[u.ID])))
	}
	return chart, nil
}

func avg(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TimeSeries pairs one label per calendar day with the day's record count.
type TimeSeries struct {
	Labels []string
	Counts []int
}

// DailySeries produces a zero-filled daily count series over the inclusive
// date range; unspecified bounds default to the last 30 days ending today.
// Length is always (to-from).days+1.
func (e *Engine) DailySeries(ctx context.Context, filter domain.RecordFilter) (TimeSeries, error) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if filter.To != nil {
		to = filter.To.UTC().Truncate(24 * time.Hour)
	}
	from := to.AddDate(0, 0, -29)
	if filter.From != nil {
		from = filter.From.UTC().Truncate(24 * time.Hour)
	}
	if from.After(to) {
		return TimeSeries{}, fmt.Errorf("daily series: range start %s after end %s: %w",
			from.Format(dayLayout), to.Format(dayLayout), domain.ErrValidation)
	}

	bounded := filter
	bounded.From = &from
	bounded.To = &to

	perDay, err := e.store.CountByDay(ctx, bounded)
	if err != nil {
		return TimeSeries{}, err
	}

	series := TimeSeries{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		series.Labels = append(series.Labels, key)
		series.Counts = append(series.Counts, perDay[key])
	}
	return series, nil
}

// ActorRanking pairs resolved actor names with their counts, descending.
type ActorRanking struct {
	Actors []string
	Counts []int
}

// TopActors ranks actors by record count, truncated to limit (default 10).
// Ties break by actor id ascending; a missing directory entry resolves to a
// synthetic "User {id}" label.
func (e *Engine) TopActors(ctx context.Context, filter domain.RecordFilter, limit int) (ActorRanking, error) {
	if limit <= 0 {
		limit = DefaultTopActors
	}

	rows, err := e.store.CountByActor(ctx, filter, limit)
	if err != nil {
		return ActorRanking{}, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ActorID)
	}
	names, err := e.store.ActorNames(ctx, ids)
	if err != nil {
		return ActorRanking{}, err
	}

	ranking := ActorRanking{Actors: make([]string, 0, len(rows)), Counts: make([]int, 0, len(rows))}
	for _, row := range rows {
		name, ok := names[row.ActorID]
		if !ok {
			name = fmt.Sprintf("User %d", row.ActorID)
		}
		ranking.Actors = append(ranking.Actors, name)
		ranking.Counts = append(ranking.Counts, row.Count)
	}
	return ranking, nil
}

// HeadcountMode selects how units-by-headcount counts members.
type HeadcountMode string

const (
	// HeadcountStatic counts declared unit membership, independent of activity.
	HeadcountStatic HeadcountMode = "all"
	// HeadcountActive counts distinct actors with at least one record in range.
	HeadcountActive HeadcountMode = "active"
)

// HeadcountByUnit returns member counts per unit in the selected mode. Units
// with no matching data report zero in both modes.
func (e *Engine) HeadcountByUnit(ctx context.Context, filter domain.RecordFilter, mode HeadcountMode) (BarChart, error) {
	units, err := e.scopeUnits(ctx, filter)
	if err != nil {
		return BarChart{}, err
	}

	var perUnit map[int64]int
	switch mode {
	case HeadcountActive:
		perUnit, err = e.store.ActiveHeadcount(ctx, filter)
	case HeadcountStatic, "":
		perUnit, err = e.store.StaticHeadcount(ctx)
	default:
		return BarChart{}, fmt.Errorf("headcount mode %q: %w", mode, domain.ErrValidation)
	}
	if err != nil {
		return BarChart{}, err
	}

	chart := BarChart{Labels: make([]string, 0, len(units)), Counts: make([]int, 0, len(units))}
	for _, u := range units {
		chart.Labels = append(chart.Labels, u.Name)
		chart.Counts = append(chart.Counts, perUnit[u.ID])
	}
	return chart, nil
}

// Heatmap buckets matching records by (weekday, hour) of their stored
// timestamp in UTC. The matrix is always 7x24 and zero-filled.
type Heatmap struct {
	Weekdays [7]string
	Hours    [24]int
	Matrix   [7][24]int
}

// WeekdayHourHeatmap computes the 7x24 activity matrix.
func (e *Engine) WeekdayHourHeatmap(ctx context.Context, filter domain.RecordFilter) (Heatmap, error) {
	matrix, err := e.store.CountByWeekdayHour(ctx, filter)
	if err != nil {
		return Heatmap{}, err
	}

	hm := Heatmap{Weekdays: Weekdays, Matrix: matrix}
	for h := 0; h < 24; h++ {
		hm.Hours[h] = h
	}
	return hm, nil
}

// CategoryCounts groups matching records by category, descending by count.
// Blank categories collapse into the single "Unknown" bucket, kept in the
// result rather than excluded.
func (e *Engine) CategoryCounts(ctx context.Context, filter domain.RecordFilter) (BarChart, error) {
	rows, err := e.store.CountByCategory(ctx, filter)
	if err != nil {
		return BarChart{}, err
	}

	chart := BarChart{}
	unknown := 0
	for _, row := range rows {
		if row.Category == "" {
			unknown += row.Count
			continue
		}
		chart.Labels = append(chart.Labels, row.Category)
		chart.Counts = append(chart.Counts, row.Count)
	}
	if unknown > 0 {
		chart.Labels = append(chart.Labels, UnknownCategory)
		chart.Counts = append(chart.Counts, unknown)
		sortChartDescending(&chart)
	}
	return chart, nil
}

// sortChartDescending restores count-descending order after folding the
// Unknown bucket in, keeping label order stable for equal counts.
func sortChartDescending(chart *BarChart) {
	type pair struct {
		label string
		count int
	}
	pairs := make([]pair, len(chart.Labels))
	for i := range chart.Labels {
		pairs[i] = pair{chart.Labels[i], chart.Counts[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].count > pairs[j].count })
	for i, p := range pairs {
		chart.Labels[i] = p.label
		chart.Counts[i] = p.count
	}
}
