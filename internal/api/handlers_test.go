package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/form"
	"github.com/SRG1996AP/productivity-tracker/internal/report"
	"github.com/SRG1996AP/productivity-tracker/internal/schema"
)

type memRecords struct {
	records []domain.Record
	status  map[string]string
}

func (m *memRecords) matches(r domain.Record, f domain.RecordFilter) bool {
	if f.UnitID != nil && r.UnitID != *f.UnitID {
		return false
	}
	if f.ActorID != nil && r.ActorID != *f.ActorID {
		return false
	}
	return true
}

func (m *memRecords) Insert(ctx context.Context, record domain.Record) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memRecords) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	for i := range m.records {
		if m.records[i].ID == recordID {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memRecords) List(ctx context.Context, filter domain.RecordFilter, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	var out []domain.Record
	for _, r := range m.records {
		if m.matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil, nil
}

func (m *memRecords) Count(ctx context.Context, filter domain.RecordFilter) (int, error) {
	n := 0
	for _, r := range m.records {
		if m.matches(r, filter) {
			n++
		}
	}
	return n, nil
}

func (m *memRecords) SumDuration(ctx context.Context, filter domain.RecordFilter) (int, error) {
	total := 0
	for _, r := range m.records {
		if m.matches(r, filter) {
			total += r.DurationMin
		}
	}
	return total, nil
}

func (m *memRecords) UpdateStatus(ctx context.Context, recordID, status string) error {
	if m.status == nil {
		m.status = make(map[string]string)
	}
	m.status[recordID] = status
	return nil
}

func (m *memRecords) DeleteByActor(ctx context.Context, actorID int64) (int64, error) { return 0, nil }
func (m *memRecords) DeleteByUnit(ctx context.Context, unitID int64) (int64, error)  { return 0, nil }

type memFields struct {
	fields []domain.FieldDefinition
	nextID int64
}

func (m *memFields) ListByUnit(ctx context.Context, unitID int64) ([]domain.FieldDefinition, error) {
	var out []domain.FieldDefinition
	for _, f := range m.fields {
		if f.UnitID == unitID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFields) Get(ctx context.Context, fieldID int64) (*domain.FieldDefinition, error) {
	for i := range m.fields {
		if m.fields[i].ID == fieldID {
			f := m.fields[i]
			return &f, nil
		}
	}
	return nil, nil
}

func (m *memFields) Insert(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error) {
	m.nextID++
	def.ID = m.nextID
	m.fields = append(m.fields, def)
	return def, nil
}

func (m *memFields) Update(ctx context.Context, def domain.FieldDefinition) error {
	for i := range m.fields {
		if m.fields[i].ID == def.ID {
			m.fields[i] = def
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memFields) Delete(ctx context.Context, fieldID int64) error {
	for i := range m.fields {
		if m.fields[i].ID == fieldID {
			m.fields = append(m.fields[:i], m.fields[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memReportStore struct {
	units  []domain.Unit
	counts map[int64]int
}

func (m *memReportStore) ListUnits(ctx context.Context, includeManagement bool) ([]domain.Unit, error) {
	return m.units, nil
}

func (m *memReportStore) Count(ctx context.Context, f domain.RecordFilter) (int, error) {
	return 0, nil
}

func (m *memReportStore) CountByUnit(ctx context.Context, f domain.RecordFilter) (map[int64]int, error) {
	return m.counts, nil
}

func (m *memReportStore) DurationByUnitPriority(ctx context.Context, f domain.RecordFilter) (map[int64]map[string]int, error) {
	return nil, nil
}

func (m *memReportStore) SumDurationByUnit(ctx context.Context, f domain.RecordFilter) (map[int64]int, error) {
	return nil, nil
}

func (m *memReportStore) CountByDay(ctx context.Context, f domain.RecordFilter) (map[string]int, error) {
	return nil, nil
}

func (m *memReportStore) CountByActor(ctx context.Context, f domain.RecordFilter, limit int) ([]report.ActorCount, error) {
	return nil, nil
}

func (m *memReportStore) ActorNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return nil, nil
}

func (m *memReportStore) StaticHeadcount(ctx context.Context) (map[int64]int, error) {
	return nil, nil
}

func (m *memReportStore) ActiveHeadcount(ctx context.Context, f domain.RecordFilter) (map[int64]int, error) {
	return nil, nil
}

func (m *memReportStore) CountByWeekdayHour(ctx context.Context, f domain.RecordFilter) ([7][24]int, error) {
	return [7][24]int{}, nil
}

func (m *memReportStore) CountByCategory(ctx context.Context, f domain.RecordFilter) ([]report.CategoryCount, error) {
	return nil, nil
}

type memDirectory struct {
	units         []domain.Unit
	deleteUnitErr error
	deletedUnits  []int64
}

func (m *memDirectory) ListUnits(ctx context.Context, includeManagement bool) ([]domain.Unit, error) {
	return m.units, nil
}

func (m *memDirectory) GetUnit(ctx context.Context, unitID int64) (*domain.Unit, error) {
	for i := range m.units {
		if m.units[i].ID == unitID {
			u := m.units[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memDirectory) CreateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error) {
	unit.ID = int64(len(m.units) + 1)
	m.units = append(m.units, unit)
	return unit, nil
}

func (m *memDirectory) DeleteUnit(ctx context.Context, unitID int64) error {
	if m.deleteUnitErr != nil {
		return m.deleteUnitErr
	}
	m.deletedUnits = append(m.deletedUnits, unitID)
	return nil
}

func (m *memDirectory) ListActors(ctx context.Context, unitID *int64) ([]domain.Actor, error) {
	return nil, nil
}

func (m *memDirectory) GetActor(ctx context.Context, actorID int64) (*domain.Actor, error) {
	return nil, nil
}

func (m *memDirectory) CreateActor(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	return actor, nil
}

func (m *memDirectory) DeleteActor(ctx context.Context, actorID int64) error { return nil }

type fixture struct {
	mux       *http.ServeMux
	records   *memRecords
	fields    *memFields
	directory *memDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	records := &memRecords{}
	fields := &memFields{}
	fields.Insert(context.Background(), domain.FieldDefinition{UnitID: 3, Name: "ticket_request_type", Label: "Ticket Type", Type: domain.FieldText, Required: true, Order: 1})
	fields.Insert(context.Background(), domain.FieldDefinition{UnitID: 3, Name: "duration_mins", Label: "Duration (mins)", Type: domain.FieldNumber, Order: 2})
	fields.Insert(context.Background(), domain.FieldDefinition{UnitID: 3, Name: "remarks", Label: "Remarks", Type: domain.FieldTextarea, Order: 3})

	registry := schema.NewRegistry(fields)
	service := domain.NewService(records)
	materializer := form.NewMaterializer(registry, records)
	engine := report.NewEngine(&memReportStore{
		units:  []domain.Unit{{ID: 3, Name: "IT"}, {ID: 4, Name: "Finance"}},
		counts: map[int64]int{3: 2},
	})
	directory := &memDirectory{units: []domain.Unit{{ID: 3, Name: "IT"}, {ID: 4, Name: "Finance"}}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := http.NewServeMux()
	NewHandler(service, materializer, registry, engine, directory, log).RegisterRoutes(mux)
	return &fixture{mux: mux, records: records, fields: fields, directory: directory}
}

func authedRequest(method, path string, body io.Reader, claims *auth.Claims) *http.Request {
	req := httptest.NewRequest(method, path, body)
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func scopedClaims(unitID int64, scopes ...string) *auth.Claims {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return &auth.Claims{Subject: "tester", ActorID: 7, UnitID: unitID, Scopes: set}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateRecordAcceptsValidSubmission(t *testing.T) {
	f := newFixture(t)
	body := bytes.NewBufferString(`{"values":{
		"description": "Reset domain password for agent",
		"ticket_request_type": "Access Request",
		"duration_mins": "15",
		"remarks": "first contact"
	}}`)
	req := authedRequest(http.MethodPost, "/v1/records", body, scopedClaims(3, auth.ScopeRecordsWrite))

	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.RecordID)
	require.Equal(t, int64(3), view.UnitID)
	require.Equal(t, int64(7), view.ActorID)
	require.Equal(t, "Access Request", view.Category)
	require.Equal(t, 15, view.DurationMin)
	require.Equal(t, domain.StatusLogged, view.Status)
	require.Len(t, f.records.records, 1)
}

func TestCreateRecordReturnsFullErrorList(t *testing.T) {
	f := newFixture(t)
	body := bytes.NewBufferString(`{"values":{
		"description": "hi",
		"duration_mins": "soon"
	}}`)
	req := authedRequest(http.MethodPost, "/v1/records", body, scopedClaims(3, auth.ScopeRecordsWrite))

	rec := f.do(req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var payload struct {
		Type   string `json:"type"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "validation_failed", payload.Type)
	// Every violation reported in one response, nothing persisted.
	require.Len(t, payload.Errors, 3)
	require.Empty(t, f.records.records)
}

func TestCreateRecordScopeChecks(t *testing.T) {
	f := newFixture(t)

	req := authedRequest(http.MethodPost, "/v1/records", strings.NewReader(`{}`), scopedClaims(3, auth.ScopeRecordsRead))
	require.Equal(t, http.StatusForbidden, f.do(req).Code)

	// No claims on the context at all.
	req = httptest.NewRequest(http.MethodPost, "/v1/records", strings.NewReader(`{}`))
	require.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestListRecordsForcedToOwnUnit(t *testing.T) {
	f := newFixture(t)
	f.records.records = []domain.Record{
		{ID: "a", UnitID: 3, ActorID: 7, Status: domain.StatusLogged},
		{ID: "b", UnitID: 4, ActorID: 9, Status: domain.StatusLogged},
	}

	req := authedRequest(http.MethodGet, "/v1/records?unit_id=4", nil, scopedClaims(3, auth.ScopeRecordsRead))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListRecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The requested unit_id is overridden by the caller's own unit.
	require.Len(t, resp.Items, 1)
	require.Equal(t, "a", resp.Items[0].RecordID)
}

func TestListRecordsReportScopeSeesAllUnits(t *testing.T) {
	f := newFixture(t)
	f.records.records = []domain.Record{
		{ID: "a", UnitID: 3},
		{ID: "b", UnitID: 4},
	}

	req := authedRequest(http.MethodGet, "/v1/records", nil, scopedClaims(3, auth.ScopeRecordsRead, auth.ScopeReportsRead))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListRecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
}

func TestGetRecordCrossUnitForbidden(t *testing.T) {
	f := newFixture(t)
	f.records.records = []domain.Record{{ID: "b", UnitID: 4}}

	req := authedRequest(http.MethodGet, "/v1/records/b", nil, scopedClaims(3, auth.ScopeRecordsRead))
	require.Equal(t, http.StatusForbidden, f.do(req).Code)

	req = authedRequest(http.MethodGet, "/v1/records/b", nil, scopedClaims(3, auth.ScopeAdmin))
	require.Equal(t, http.StatusOK, f.do(req).Code)

	req = authedRequest(http.MethodGet, "/v1/records/missing", nil, scopedClaims(3, auth.ScopeAdmin))
	require.Equal(t, http.StatusNotFound, f.do(req).Code)
}

func TestUpdateStatusAdminOnly(t *testing.T) {
	f := newFixture(t)
	f.records.records = []domain.Record{{ID: "a", UnitID: 3}}

	body := `{"status":"flagged"}`
	req := authedRequest(http.MethodPatch, "/v1/records/a/status", strings.NewReader(body), scopedClaims(3, auth.ScopeRecordsWrite))
	require.Equal(t, http.StatusForbidden, f.do(req).Code)

	req = authedRequest(http.MethodPatch, "/v1/records/a/status", strings.NewReader(body), scopedClaims(3, auth.ScopeAdmin))
	require.Equal(t, http.StatusNoContent, f.do(req).Code)
	require.Equal(t, domain.StatusFlagged, f.records.status["a"])

	req = authedRequest(http.MethodPatch, "/v1/records/a/status", strings.NewReader(`{"status":"archived"}`), scopedClaims(3, auth.ScopeAdmin))
	require.Equal(t, http.StatusUnprocessableEntity, f.do(req).Code)
}

func TestUnitFormReturnsSchemaAndNextEntry(t *testing.T) {
	f := newFixture(t)
	f.records.records = []domain.Record{{ID: "a", UnitID: 3}, {ID: "b", UnitID: 3}}

	req := authedRequest(http.MethodGet, "/v1/units/3/form", nil, scopedClaims(3, auth.ScopeRecordsWrite))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view FormView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, int64(3), view.UnitID)
	require.Equal(t, 3, view.EntryNo)
	require.Len(t, view.Fields, 3)
	require.Equal(t, "ticket_request_type", view.Fields[0].Name)
}

func TestFieldEndpointsRequireSchemaAdmin(t *testing.T) {
	f := newFixture(t)

	body := `{"name":"root_cause","label":"Root Cause","type":"text"}`
	req := authedRequest(http.MethodPost, "/v1/units/3/fields", strings.NewReader(body), scopedClaims(3, auth.ScopeRecordsWrite))
	require.Equal(t, http.StatusForbidden, f.do(req).Code)

	req = authedRequest(http.MethodPost, "/v1/units/3/fields", strings.NewReader(body), scopedClaims(3, auth.ScopeSchemaAdmin))
	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view FieldView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "root_cause", view.Name)
	require.Equal(t, 4, view.Order)

	// Duplicate name in the same unit conflicts.
	req = authedRequest(http.MethodPost, "/v1/units/3/fields", strings.NewReader(body), scopedClaims(3, auth.ScopeSchemaAdmin))
	require.Equal(t, http.StatusConflict, f.do(req).Code)
}

func TestDeleteUnitBlockedByMembersConflicts(t *testing.T) {
	f := newFixture(t)
	f.directory.deleteUnitErr = fmt.Errorf("delete unit: blocked by actors_unit_id_fkey: %w", domain.ErrInUse)

	req := authedRequest(http.MethodDelete, "/v1/units/3", nil, scopedClaims(3, auth.ScopeAdmin))
	rec := f.do(req)
	require.Equal(t, http.StatusConflict, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "conflict", payload["type"])
	require.Contains(t, payload["detail"], "actors_unit_id_fkey")
	require.Empty(t, f.directory.deletedUnits)
}

func TestDeleteUnitSucceedsWhenUnreferenced(t *testing.T) {
	f := newFixture(t)

	req := authedRequest(http.MethodDelete, "/v1/units/4", nil, scopedClaims(3, auth.ScopeAdmin))
	require.Equal(t, http.StatusNoContent, f.do(req).Code)
	require.Equal(t, []int64{4}, f.directory.deletedUnits)
}

func TestReportEndpointRequiresReportScope(t *testing.T) {
	f := newFixture(t)

	req := authedRequest(http.MethodGet, "/v1/reports/records-by-unit", nil, scopedClaims(3, auth.ScopeRecordsRead))
	require.Equal(t, http.StatusForbidden, f.do(req).Code)

	req = authedRequest(http.MethodGet, "/v1/reports/records-by-unit", nil, scopedClaims(3, auth.ScopeReportsRead))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view BarChartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, []string{"IT", "Finance"}, view.Labels)
	require.Equal(t, []int{2, 0}, view.Counts)
}

func TestExportCSVStreamsRecords(t *testing.T) {
	f := newFixture(t)
	f.records.records = []domain.Record{
		{ID: "a", UnitID: 3, ActorID: 7, Description: "Reset password", Category: "Access Request", Status: domain.StatusLogged, DurationMin: 15},
	}

	req := authedRequest(http.MethodGet, "/v1/reports/export", nil, scopedClaims(3, auth.ScopeReportsRead))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "record_id,unit_id,actor_id"))
	require.Contains(t, lines[1], "Reset password")
	require.Contains(t, lines[1], "Access Request")
}

func TestHealthzOpen(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
