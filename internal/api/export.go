package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/auth"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

const exportPageSize = 500

var exportHeader = []string{
	"record_id", "unit_id", "actor_id", "description", "category",
	"system_application", "priority", "sla_tat", "tool_platform_used",
	"duration_mins", "frequency_per_day", "status", "logged_at", "attributes",
}

// exportCSV streams the filtered record set as CSV, paging through the store
// so large exports never load fully into memory.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeReportsRead); !ok {
		return
	}

	filter := parseFilter(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return
	}

	var cursor *domain.Cursor
	for {
		records, next, err := h.records.ListRecords(r.Context(), filter, cursor, exportPageSize)
		if err != nil {
			h.log.Error("export failed", "error", err)
			return
		}

		for _, record := range records {
			if err := writer.Write(exportRow(record)); err != nil {
				return
			}
		}

		if next == nil {
			break
		}
		cursor = next
	}
	writer.Flush()
}

func exportRow(record domain.Record) []string {
	return []string{
		record.ID,
		strconv.FormatInt(record.UnitID, 10),
		strconv.FormatInt(record.ActorID, 10),
		record.Description,
		record.Category,
		record.System,
		record.Priority,
		record.SLA,
		record.Tool,
		strconv.Itoa(record.DurationMin),
		strconv.Itoa(record.Frequency),
		record.Status,
		record.LoggedAt.UTC().Format(time.RFC3339),
		record.Attributes.String(),
	}
}
