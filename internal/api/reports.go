package api

import (
	"net/http"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/report"
)

// BarChartView pairs labels with counts, aligned by index.
type BarChartView struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

func (h *Handler) recordsByUnit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	chart, err := h.engine.CountsByUnit(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BarChartView{Labels: chart.Labels, Counts: chart.Counts})
}

// PrioritySeriesView is one aligned duration series.
type PrioritySeriesView struct {
	Priority  string `json:"priority"`
	Durations []int  `json:"durations"`
}

// PriorityBreakdownView is the duration-by-priority payload.
type PriorityBreakdownView struct {
	Labels     []string             `json:"labels"`
	Priorities []string             `json:"priorities"`
	Series     []PrioritySeriesView `json:"series"`
}

func (h *Handler) durationByPriority(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	breakdown, err := h.engine.DurationByPriority(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	view := PriorityBreakdownView{
		Labels:     breakdown.Labels,
		Priorities: breakdown.Priorities,
		Series:     make([]PrioritySeriesView, 0, len(breakdown.Series)),
	}
	for _, s := range breakdown.Series {
		view.Series = append(view.Series, PrioritySeriesView{Priority: s.Priority, Durations: s.Durations})
	}
	writeJSON(w, http.StatusOK, view)
}

// AverageChartView pairs labels with rounded averages.
type AverageChartView struct {
	Labels   []string  `json:"labels"`
	Averages []float64 `json:"averages"`
}

func (h *Handler) averageDuration(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	chart, err := h.engine.AverageDurationByUnit(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AverageChartView{Labels: chart.Labels, Averages: chart.Averages})
}

func (h *Handler) dailySeries(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	series, err := h.engine.DailySeries(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BarChartView{Labels: series.Labels, Counts: series.Counts})
}

// ActorRankingView pairs resolved actor names with counts, descending.
type ActorRankingView struct {
	Actors []string `json:"actors"`
	Counts []int    `json:"counts"`
}

func (h *Handler) topActors(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}

	ranking, err := h.engine.TopActors(r.Context(), parseFilter(r), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActorRankingView{Actors: ranking.Actors, Counts: ranking.Counts})
}

func (h *Handler) headcount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	mode := report.HeadcountMode(r.URL.Query().Get("mode"))
	chart, err := h.engine.HeadcountByUnit(r.Context(), parseFilter(r), mode)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BarChartView{Labels: chart.Labels, Counts: chart.Counts})
}

// HeatmapView is the 7x24 activity matrix, weekday rows with Sunday first.
type HeatmapView struct {
	Weekdays []string `json:"weekdays"`
	Hours    []int    `json:"hours"`
	Matrix   [][]int  `json:"matrix"`
}

func (h *Handler) heatmap(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	hm, err := h.engine.WeekdayHourHeatmap(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	view := HeatmapView{
		Weekdays: hm.Weekdays[:],
		Hours:    hm.Hours[:],
		Matrix:   make([][]int, len(hm.Matrix)),
	}
	for i := range hm.Matrix {
		row := make([]int, len(hm.Matrix[i]))
		copy(row, hm.Matrix[i][:])
		view.Matrix[i] = row
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	chart, err := h.engine.CategoryCounts(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BarChartView{Labels: chart.Labels, Counts: chart.Counts})
}

// UnitStatView is one row of the management summary.
type UnitStatView struct {
	UnitID        int64   `json:"unit_id"`
	Name          string  `json:"name"`
	Entries       int     `json:"entries"`
	TotalDuration int     `json:"total_duration_mins"`
	AvgDuration   float64 `json:"avg_duration_mins"`
	Headcount     int     `json:"headcount"`
}

// SummaryView is the management dashboard payload.
type SummaryView struct {
	Units         []UnitStatView `json:"units"`
	TotalEntries  int            `json:"total_entries"`
	TotalDuration int            `json:"total_duration_mins"`
	TotalActors   int            `json:"total_actors"`
	TodayEntries  int            `json:"today_entries"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	summary, err := h.engine.Summary(r.Context(), parseFilter(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	view := SummaryView{
		Units:         make([]UnitStatView, 0, len(summary.Units)),
		TotalEntries:  summary.TotalEntries,
		TotalDuration: summary.TotalDuration,
		TotalActors:   summary.TotalActors,
		TodayEntries:  summary.TodayEntries,
	}
	for _, stat := range summary.Units {
		view.Units = append(view.Units, UnitStatView{
			UnitID:        stat.UnitID,
			Name:          stat.Name,
			Entries:       stat.Entries,
			TotalDuration: stat.TotalDuration,
			AvgDuration:   stat.AvgDuration,
			Headcount:     stat.Headcount,
		})
	}
	writeJSON(w, http.StatusOK, view)
}
