package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// UnitView exposes one unit catalog entry.
type UnitView struct {
	UnitID      int64  `json:"unit_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UnitRequest is the payload for unit creation.
type UnitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite); !ok {
		return
	}

	units, err := h.directory.ListUnits(r.Context(), true)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	views := make([]UnitView, 0, len(units))
	for _, u := range units {
		views = append(views, UnitView{UnitID: u.ID, Name: u.Name, Description: u.Description})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeAdmin); !ok {
		return
	}

	var req UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	unit, err := h.directory.CreateUnit(r.Context(), domain.Unit{Name: req.Name, Description: req.Description})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	// New units start with their matching default template, if any.
	if _, err := h.schemas.ApplyDefaults(r.Context(), unit); err != nil {
		h.log.Error("seed default fields", "unit_id", unit.ID, "error", err)
	}
	writeJSON(w, http.StatusCreated, UnitView{UnitID: unit.ID, Name: unit.Name, Description: unit.Description})
}

func (h *Handler) deleteUnit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeAdmin); !ok {
		return
	}

	unitID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid unit id")
		return
	}

	// A unit's records go with it; the catalog row is removed last.
	if _, err := h.records.PurgeUnitRecords(r.Context(), unitID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.directory.DeleteUnit(r.Context(), unitID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActorView exposes one directory entry.
type ActorView struct {
	ActorID    int64  `json:"actor_id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	UnitID     int64  `json:"unit_id"`
	IsAdmin    bool   `json:"is_admin"`
}

// ActorRequest is the payload for actor creation.
type ActorRequest struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	UnitID     int64  `json:"unit_id"`
	IsAdmin    bool   `json:"is_admin"`
}

func (h *Handler) listActors(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeAdmin, auth.ScopeReportsRead); !ok {
		return
	}

	var unitID *int64
	if raw := r.URL.Query().Get("unit_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			unitID = &id
		}
	}

	actors, err := h.directory.ListActors(r.Context(), unitID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	views := make([]ActorView, 0, len(actors))
	for _, a := range actors {
		views = append(views, ActorView{ActorID: a.ID, Name: a.Name, EmployeeID: a.EmployeeID, UnitID: a.UnitID, IsAdmin: a.IsAdmin})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}

func (h *Handler) createActor(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeAdmin); !ok {
		return
	}

	var req ActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Name == "" || req.EmployeeID == "" || req.UnitID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "name, employee_id, and unit_id are required")
		return
	}

	actor, err := h.directory.CreateActor(r.Context(), domain.Actor{
		Name:       req.Name,
		EmployeeID: req.EmployeeID,
		UnitID:     req.UnitID,
		IsAdmin:    req.IsAdmin,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ActorView{ActorID: actor.ID, Name: actor.Name, EmployeeID: actor.EmployeeID, UnitID: actor.UnitID, IsAdmin: actor.IsAdmin})
}

func (h *Handler) deleteActor(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeAdmin); !ok {
		return
	}

	actorID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid actor id")
		return
	}

	// Directory removal retains the actor's records; aggregations keep
	// counting them under a synthetic label. purge=true opts into the full
	// cleanup.
	if r.URL.Query().Get("purge") == "true" {
		if _, err := h.records.PurgeActorRecords(r.Context(), actorID); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	if err := h.directory.DeleteActor(r.Context(), actorID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
