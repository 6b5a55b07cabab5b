// Package api exposes the HTTP surface of the tracker.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/form"
	"github.com/SRG1996AP/productivity-tracker/internal/report"
	"github.com/SRG1996AP/productivity-tracker/internal/schema"
)

// Directory is the unit catalog and actor directory surface the handlers use.
type Directory interface {
	ListUnits(ctx context.Context, includeManagement bool) ([]domain.Unit, error)
	GetUnit(ctx context.Context, unitID int64) (*domain.Unit, error)
	CreateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error)
	DeleteUnit(ctx context.Context, unitID int64) error
	ListActors(ctx context.Context, unitID *int64) ([]domain.Actor, error)
	GetActor(ctx context.Context, actorID int64) (*domain.Actor, error)
	CreateActor(ctx context.Context, actor domain.Actor) (domain.Actor, error)
	DeleteActor(ctx context.Context, actorID int64) error
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	records   *domain.Service
	forms     *form.Materializer
	schemas   *schema.Registry
	engine    *report.Engine
	directory Directory
	log       *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(records *domain.Service, forms *form.Materializer, schemas *schema.Registry, engine *report.Engine, directory Directory, log *slog.Logger) *Handler {
	return &Handler{
		records:   records,
		forms:     forms,
		schemas:   schemas,
		engine:    engine,
		directory: directory,
		log:       log,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)

	mux.HandleFunc("POST /v1/records", h.createRecord)
	mux.HandleFunc("GET /v1/records", h.listRecords)
	mux.HandleFunc("GET /v1/records/summary", h.actorSummary)
	mux.HandleFunc("GET /v1/records/{id}", h.getRecord)
	mux.HandleFunc("PATCH /v1/records/{id}/status", h.updateStatus)

	mux.HandleFunc("GET /v1/units", h.listUnits)
	mux.HandleFunc("POST /v1/units", h.createUnit)
	mux.HandleFunc("DELETE /v1/units/{id}", h.deleteUnit)
	mux.HandleFunc("GET /v1/units/{id}/form", h.unitForm)
	mux.HandleFunc("GET /v1/units/{id}/fields", h.listFields)
	mux.HandleFunc("POST /v1/units/{id}/fields", h.addField)
	mux.HandleFunc("PUT /v1/fields/{id}", h.updateField)
	mux.HandleFunc("DELETE /v1/fields/{id}", h.deleteField)

	mux.HandleFunc("GET /v1/actors", h.listActors)
	mux.HandleFunc("POST /v1/actors", h.createActor)
	mux.HandleFunc("DELETE /v1/actors/{id}", h.deleteActor)

	mux.HandleFunc("GET /v1/reports/records-by-unit", h.recordsByUnit)
	mux.HandleFunc("GET /v1/reports/duration-by-priority", h.durationByPriority)
	mux.HandleFunc("GET /v1/reports/average-duration", h.averageDuration)
	mux.HandleFunc("GET /v1/reports/daily-series", h.dailySeries)
	mux.HandleFunc("GET /v1/reports/top-actors", h.topActors)
	mux.HandleFunc("GET /v1/reports/headcount", h.headcount)
	mux.HandleFunc("GET /v1/reports/heatmap", h.heatmap)
	mux.HandleFunc("GET /v1/reports/categories", h.categories)
	mux.HandleFunc("GET /v1/reports/summary", h.summary)
	mux.HandleFunc("GET /v1/reports/export", h.exportCSV)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requireScope extracts claims and checks one of the accepted scopes; admin
// tokens pass everything.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if claims.HasScope(auth.ScopeAdmin) {
		return claims, true
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(scopes, " or ")+" required")
	return nil, false
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parsePositiveInt(raw string) (int, error) {
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, strconv.ErrRange
	}
	return parsed, nil
}

// parseFilter reads the shared filter from query parameters. Read paths are
// lenient: a malformed value is treated as absent rather than failing the
// request.
func parseFilter(r *http.Request) domain.RecordFilter {
	q := r.URL.Query()
	var f domain.RecordFilter

	if raw := q.Get("unit_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.UnitID = &id
		}
	}
	if raw := q.Get("actor_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.ActorID = &id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			f.From = &ts
		}
	}
	if raw := q.Get("to"); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			f.To = &ts
		}
	}
	if raw := q.Get("priority"); raw != "" {
		f.Priority = &raw
	}
	if raw := q.Get("status"); raw != "" {
		f.Status = &raw
	}
	if raw := q.Get("category"); raw != "" {
		f.Category = &raw
	}
	return f
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

// writeDomainError maps domain sentinels onto HTTP statuses. Validation
// failures carry the complete field error list.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"type":   "validation_failed",
			"errors": verr.Errors,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrDuplicateName):
		writeError(w, http.StatusConflict, "duplicate_name", err.Error())
	case errors.Is(err, domain.ErrInUse):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
