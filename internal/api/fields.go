package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// FieldView exposes one tracking field definition.
type FieldView struct {
	FieldID   int64     `json:"field_id"`
	UnitID    int64     `json:"unit_id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Type      string    `json:"type"`
	Required  bool      `json:"required"`
	Order     int       `json:"order"`
	Choices   []string  `json:"choices,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FieldRequest is the payload for field create and update.
type FieldRequest struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
	Choices  []string `json:"choices,omitempty"`
}

func (h *Handler) listFields(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeSchemaAdmin); !ok {
		return
	}

	unitID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid unit id")
		return
	}

	defs, err := h.schemas.ListFields(r.Context(), unitID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	views := make([]FieldView, 0, len(defs))
	for _, def := range defs {
		views = append(views, toFieldView(def))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}

func (h *Handler) addField(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeSchemaAdmin); !ok {
		return
	}

	unitID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid unit id")
		return
	}

	var req FieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	def, err := h.schemas.AddField(r.Context(), unitID, fromFieldRequest(req))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFieldView(def))
}

func (h *Handler) updateField(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeSchemaAdmin); !ok {
		return
	}

	fieldID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid field id")
		return
	}

	var req FieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := h.schemas.UpdateField(r.Context(), fieldID, fromFieldRequest(req)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteField(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeSchemaAdmin); !ok {
		return
	}

	fieldID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid field id")
		return
	}

	if err := h.schemas.RemoveField(r.Context(), fieldID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func fromFieldRequest(req FieldRequest) domain.FieldDefinition {
	return domain.FieldDefinition{
		Name:     req.Name,
		Label:    req.Label,
		Type:     domain.FieldType(req.Type),
		Required: req.Required,
		Order:    req.Order,
		Choices:  req.Choices,
	}
}

func toFieldView(def domain.FieldDefinition) FieldView {
	return FieldView{
		FieldID:   def.ID,
		UnitID:    def.UnitID,
		Name:      def.Name,
		Label:     def.Label,
		Type:      string(def.Type),
		Required:  def.Required,
		Order:     def.Order,
		Choices:   def.Choices,
		CreatedAt: def.CreatedAt,
	}
}
