package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SRG1996AP/productivity-tracker/internal/events"
)

// ClassificationStore persists classifier verdicts.
type ClassificationStore interface {
	SaveClassification(ctx context.Context, recordID, label string, score float64) error
}

// ClassifierRule scores a description against one label's keyword list.
type ClassifierRule struct {
	Label    string
	Keywords []string
}

// DefaultRules covers the activity categories seen across unit templates.
var DefaultRules = []ClassifierRule{
	{Label: "incident", Keywords: []string{"incident", "outage", "escalation", "downtime", "urgent", "breach"}},
	{Label: "reporting", Keywords: []string{"report", "dashboard", "tracker", "summary", "metrics", "analysis"}},
	{Label: "meeting", Keywords: []string{"meeting", "huddle", "call", "sync", "calibration", "briefing"}},
	{Label: "audit", Keywords: []string{"audit", "review", "qa", "quality", "scorecard", "compliance"}},
	{Label: "hiring", Keywords: []string{"hiring", "interview", "sourcing", "onboarding", "endorsement", "candidate"}},
	{Label: "training", Keywords: []string{"training", "coaching", "upskilling", "certification", "module", "refresher"}},
	{Label: "support", Keywords: []string{"ticket", "request", "troubleshoot", "reset", "access", "installation"}},
}

// UnclassifiedLabel is used when no rule matches the description.
const UnclassifiedLabel = "general"

// ClassifierHandler labels record.created events by keyword scoring the
// description and stores the verdict. Other event types are acknowledged
// without action.
type ClassifierHandler struct {
	store ClassificationStore
	rules []ClassifierRule
}

// NewClassifierHandler constructs a handler; nil rules fall back to
// DefaultRules.
func NewClassifierHandler(store ClassificationStore, rules []ClassifierRule) *ClassifierHandler {
	if rules == nil {
		rules = DefaultRules
	}
	return &ClassifierHandler{store: store, rules: rules}
}

// Handle classifies one consumed message.
func (h *ClassifierHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeRecordCreated {
		return nil
	}

	var event events.RecordCreated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode record.created: %w", err)
	}

	label, score := Classify(h.rules, event.Description)
	if err := h.store.SaveClassification(ctx, event.RecordID, label, score); err != nil {
		return fmt.Errorf("save classification for %s: %w", event.RecordID, err)
	}
	return nil
}

// Classify scores the description against every rule and returns the best
// label with its match ratio. Matching is case-insensitive substring search;
// ties keep the earlier rule.
func Classify(rules []ClassifierRule, description string) (string, float64) {
	text := strings.ToLower(description)

	bestLabel := UnclassifiedLabel
	bestScore := 0.0
	for _, rule := range rules {
		matched := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(rule.Keywords))
		if score > bestScore {
			bestLabel = rule.Label
			bestScore = score
		}
	}
	return bestLabel, bestScore
}
