package schema

import (
	"context"
	"strings"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// DefaultPriorityChoices is the canonical choice list for seeded priority
// select fields.
var DefaultPriorityChoices = []string{"Low", "Medium", "High", "Urgent"}

// TemplateField is one entry of a canned schema template.
type TemplateField struct {
	Name    string
	Label   string
	Type    domain.FieldType
	Choices []string
}

func text(name, label string) TemplateField {
	return TemplateField{Name: name, Label: label, Type: domain.FieldText}
}

func number(name, label string) TemplateField {
	return TemplateField{Name: name, Label: label, Type: domain.FieldNumber}
}

func textarea(name, label string) TemplateField {
	return TemplateField{Name: name, Label: label, Type: domain.FieldTextarea}
}

var defaultTemplates = map[string][]TemplateField{
	"operations_leaders": {
		number("entry_no", "No"),
		text("campaign_account", "Campaign / Account"),
		text("client_ops_requirement", "Client / OPS Requirement"),
		text("activity_category", "Activity Category"),
		text("kpi_sla_impacted", "KPI / SLA Impacted"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_evidence", "Output / Evidence"),
		textarea("remarks", "Remarks"),
	},
	"rta": {
		number("entry_no", "No"),
		text("supporting_campaign_project", "Supporting Campaign/Project"),
		text("client_ops_requirement", "Client/OPS Requirement"),
		text("report_name", "Report Name"),
		number("duration_mins", "Duration (mins)"),
		text("tool_crm_telephony_used", "Tool/CRM/Telephony Used"),
		textarea("remarks", "Remarks"),
	},
	"training": {
		number("entry_no", "No"),
		text("training_program_batch", "Training Program / Batch"),
		text("ops_client_requirement", "OPS / Client Requirement"),
		text("training_type", "Training Type"),
		number("no_of_trainees", "No. of Trainees"),
		text("training_mode", "Training Mode"),
		text("tool_lms_used", "Tool / LMS Used"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_report", "Output / Report"),
		textarea("remarks", "Remarks"),
	},
	"qa": {
		number("entry_no", "No"),
		text("campaign_process_audited", "Campaign / Process Audited"),
		text("ops_client_requirement", "OPS / Client Requirement"),
		text("audit_type", "Audit Type"),
		number("sample_size", "Sample Size"),
		text("qa_standard_kpi", "QA Standard / KPI"),
		text("qa_tool_used", "QA Tool Used"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_scorecard", "Output / Scorecard"),
		textarea("remarks", "Remarks"),
	},
	"finance": {
		number("entry_no", "No"),
		text("financial_area", "Financial Area"),
		text("ops_business_requirement", "OPS / Business Requirement"),
		text("transaction_type", "Transaction Type"),
		number("amount_if_applicable", "Amount (if applicable)"),
		text("approval_level", "Approval Level"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_report", "Output / Report"),
		textarea("remarks", "Remarks"),
	},
	"ta": {
		number("entry_no", "No"),
		text("hiring_project_campaign", "Hiring Project / Campaign"),
		text("ops_client_requirement", "OPS / Client Requirement"),
		text("position_role", "Position / Role"),
		number("hiring_volume", "Hiring Volume"),
		text("stage_of_hiring", "Stage of Hiring"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_report", "Output / Report"),
		textarea("remarks", "Remarks"),
	},
	"hr": {
		number("entry_no", "No"),
		text("hr_process_area", "HR Process Area"),
		text("ops_employee_requirement", "OPS / Employee Requirement"),
		text("request_type", "Request Type"),
		text("policy_sop_reference", "Policy / SOP Reference"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_report", "Output / Report"),
		textarea("remarks", "Remarks"),
	},
	"it": {
		number("entry_no", "No"),
		text("system_application", "System / Application Supported"),
		text("ops_business_requirement", "OPS / Business Requirement"),
		text("ticket_request_type", "Ticket / Request Type"),
		{Name: "priority", Label: "Priority", Type: domain.FieldSelect, Choices: DefaultPriorityChoices},
		text("sla_tat", "SLA / TAT"),
		text("tool_platform_used", "Tool / Platform Used"),
		number("duration_mins", "Duration (mins)"),
		textarea("output_report", "Output / Report"),
		textarea("remarks", "Remarks"),
	},
}

// MatchTemplateKey maps a unit's display name to a template key using
// case-insensitive substring matching. Management units never match.
func MatchTemplateKey(unitName string) string {
	name := strings.ToLower(unitName)
	switch {
	case name == "":
		return ""
	case strings.Contains(name, "management"):
		return ""
	case strings.Contains(name, "operation"):
		return "operations_leaders"
	case strings.Contains(name, "rta"), strings.Contains(name, "real time analyst"):
		return "rta"
	case strings.Contains(name, "training"):
		return "training"
	case strings.Contains(name, "qa"), strings.Contains(name, "quality"):
		return "qa"
	case strings.Contains(name, "finance"):
		return "finance"
	case strings.Contains(name, "talent"), strings.Contains(name, "ta"):
		return "ta"
	case strings.Contains(name, "human resource"), strings.Contains(name, "hr"):
		return "hr"
	case strings.Contains(name, "information technology"), strings.Contains(name, "it"):
		return "it"
	}
	return ""
}

// ResolveDefaultSchema returns the canned template for a unit display name,
// or nil when no keyword matches. Pure function; order in the returned slice
// is the display order.
func ResolveDefaultSchema(unitName string) []TemplateField {
	key := MatchTemplateKey(unitName)
	if key == "" {
		return nil
	}
	return defaultTemplates[key]
}

// ApplyDefaults seeds a unit with its default template. It is idempotent: a
// unit that already has any field declared is left untouched, and units whose
// name matches no template are skipped. Returns the number of fields created.
func (r *Registry) ApplyDefaults(ctx context.Context, unit domain.Unit) (int, error) {
	template := ResolveDefaultSchema(unit.Name)
	if template == nil {
		return 0, nil
	}

	existing, err := r.fields.ListByUnit(ctx, unit.ID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for i, tf := range template {
		def := domain.FieldDefinition{
			UnitID:  unit.ID,
			Name:    tf.Name,
			Label:   tf.Label,
			Type:    tf.Type,
			Order:   i + 1,
			Choices: tf.Choices,
		}
		if _, err := r.fields.Insert(ctx, def); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
