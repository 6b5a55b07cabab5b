package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/observability"
	"github.com/SRG1996AP/productivity-tracker/internal/persistence"
)

// CreateRecordRequest is the payload for POST /v1/records. Values holds the
// raw form submission keyed by field name; the unit's current schema decides
// how each value is validated.
type CreateRecordRequest struct {
	UnitID   int64             `json:"unit_id,omitempty"`
	LoggedAt *time.Time        `json:"logged_at,omitempty"`
	Values   map[string]string `json:"values"`
}

// RecordView exposes one stored record.
type RecordView struct {
	RecordID    string              `json:"record_id"`
	UnitID      int64               `json:"unit_id"`
	ActorID     int64               `json:"actor_id"`
	Description string              `json:"description"`
	Category    string              `json:"category,omitempty"`
	System      string              `json:"system_application,omitempty"`
	Priority    string              `json:"priority,omitempty"`
	SLA         string              `json:"sla_tat,omitempty"`
	Tool        string              `json:"tool_platform_used,omitempty"`
	DurationMin int                 `json:"duration_mins"`
	Frequency   int                 `json:"frequency_per_day"`
	Status      string              `json:"status"`
	Attributes  domain.AttributeBag `json:"attributes,omitempty"`
	LoggedAt    time.Time           `json:"logged_at"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ListRecordsResponse packages list results.
type ListRecordsResponse struct {
	Items      []RecordView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	// Non-admin callers always submit into their own unit.
	unitID := claims.UnitID
	if claims.HasScope(auth.ScopeAdmin) && req.UnitID != 0 {
		unitID = req.UnitID
	}
	if unitID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "no unit for caller")
		return
	}

	validator, err := h.forms.BuildValidator(r.Context(), unitID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	input, err := validator.Accept(req.Values)
	if err != nil {
		observability.CountSubmission("rejected")
		h.writeDomainError(w, err)
		return
	}

	create := domain.CreateRecordInput{
		UnitID:      unitID,
		ActorID:     claims.ActorID,
		Description: input.Description,
		Category:    input.Category,
		System:      input.System,
		Priority:    input.Priority,
		SLA:         input.SLA,
		Tool:        input.Tool,
		DurationMin: input.DurationMin,
		Frequency:   input.Frequency,
		Attributes:  input.Attributes,
	}
	if req.LoggedAt != nil {
		create.LoggedAt = *req.LoggedAt
	}

	record, err := h.records.CreateRecord(r.Context(), create)
	if err != nil {
		observability.CountSubmission("rejected")
		h.writeDomainError(w, err)
		return
	}

	observability.CountSubmission("accepted")
	observability.RecordPersisted(record.CreatedAt)
	writeJSON(w, http.StatusCreated, toRecordView(*record))
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	filter := parseFilter(r)
	// Callers without report access see only their own unit.
	if !claims.HasScope(auth.ScopeAdmin) && !claims.HasScope(auth.ScopeReportsRead) {
		filter.UnitID = &claims.UnitID
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.records.ListRecords(r.Context(), filter, cursor, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	items := make([]RecordView, 0, len(records))
	for _, record := range records {
		items = append(items, toRecordView(record))
	}
	writeJSON(w, http.StatusOK, ListRecordsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	record, err := h.records.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !claims.HasScope(auth.ScopeAdmin) && !claims.HasScope(auth.ScopeReportsRead) && record.UnitID != claims.UnitID {
		writeError(w, http.StatusForbidden, "forbidden", "record belongs to another unit")
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(*record))
}

// UpdateStatusRequest is the payload for PATCH /v1/records/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeAdmin); !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := h.records.TransitionStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActorSummaryView is the caller's personal dashboard payload.
type ActorSummaryView struct {
	TodayCount    int `json:"today_count"`
	TodayDuration int `json:"today_duration_mins"`
	TotalCount    int `json:"total_count"`
	TotalDuration int `json:"total_duration_mins"`
}

func (h *Handler) actorSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	summary, err := h.records.SummaryForActor(r.Context(), claims.UnitID, claims.ActorID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActorSummaryView{
		TodayCount:    summary.TodayCount,
		TodayDuration: summary.TodayDuration,
		TotalCount:    summary.TotalCount,
		TotalDuration: summary.TotalDuration,
	})
}

// FormView describes the submission form for a unit: the schema snapshot in
// display order plus the next entry number.
type FormView struct {
	UnitID  int64       `json:"unit_id"`
	EntryNo int         `json:"entry_no"`
	Fields  []FieldView `json:"fields"`
}

func (h *Handler) unitForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeRecordsWrite, auth.ScopeRecordsRead); !ok {
		return
	}

	unitID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid unit id")
		return
	}

	validator, err := h.forms.BuildValidator(r.Context(), unitID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	view := FormView{
		UnitID:  unitID,
		EntryNo: validator.EntryNo(),
		Fields:  make([]FieldView, 0, len(validator.Fields())),
	}
	for _, def := range validator.Fields() {
		view.Fields = append(view.Fields, toFieldView(def))
	}
	writeJSON(w, http.StatusOK, view)
}

func toRecordView(record domain.Record) RecordView {
	return RecordView{
		RecordID:    record.ID,
		UnitID:      record.UnitID,
		ActorID:     record.ActorID,
		Description: record.Description,
		Category:    record.Category,
		System:      record.System,
		Priority:    record.Priority,
		SLA:         record.SLA,
		Tool:        record.Tool,
		DurationMin: record.DurationMin,
		Frequency:   record.Frequency,
		Status:      record.Status,
		Attributes:  record.Attributes,
		LoggedAt:    record.LoggedAt,
		CreatedAt:   record.CreatedAt,
	}
}
