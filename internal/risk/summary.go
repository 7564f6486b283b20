// Package risk aggregates individual threat signals into a dataset-level
// risk summary: an overall risk level derived from ordered escalation rules,
// a ranked top-threats view, confidence statistics, and a narrative summary.
//
// Like the classifier it sits on top of, this package is advisory only. It
// interprets and prioritizes; it never approves, rejects, or gates anything.
package risk

import (
	"github.com/outsidedata/governor/internal/threat"
)

// Level is the dataset-level risk classification.
type Level string

const (
	LevelLow      Level = "low"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"

	// LevelUnknown is never produced by aggregation; it is reserved for the
	// facade's failure and empty-input fallbacks.
	LevelUnknown Level = "unknown"
)

// RankedThreat is one entry of the top-threats view.
type RankedThreat struct {
	ThreatID         string          `json:"threat_id"`
	ThreatName       string          `json:"threat_name"`
	Severity         threat.Severity `json:"severity"`
	ImpactedProperty threat.Property `json:"impacted_property"`
	Confidence       float64         `json:"confidence"`
	PriorityScore    float64         `json:"priority_score"`

	// TriggeredBy carries at most the first two trigger conditions.
	TriggeredBy []string `json:"triggered_by"`
}

// ConfidenceStats summarizes signal confidences, each value in [0,1] with
// Min ≤ Avg ≤ Max. All zero when no signal had a usable confidence.
type ConfidenceStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Summary is the dataset-level risk summary. It is a value constructed fresh
// on every aggregation call and never mutated afterwards.
type Summary struct {
	OverallRiskLevel    Level           `json:"overall_risk_level"`
	TotalThreats        int             `json:"total_threats"`
	SeverityBreakdown   map[string]int  `json:"severity_breakdown"`
	PropertyBreakdown   map[string]int  `json:"property_breakdown"`
	TopThreats          []RankedThreat  `json:"top_threats"`
	EscalationReasons   []string        `json:"escalation_reasons"`
	SummaryText         string          `json:"summary_text"`
	ThreatIDs           []string        `json:"threat_ids"`
	ConfidenceStats     ConfidenceStats `json:"confidence_stats"`
	TotalMissingMetrics int             `json:"total_missing_metrics"`
	HasUncertainty      bool            `json:"has_uncertainty"`
}

// BlankSummary builds a summary with zeroed breakdowns and no threats. It is
// the shared shape of the canonical empty result and the facade's fallback
// results, which differ only in level, reasons, and text.
func BlankSummary(level Level, reasons []string, text string) Summary {
	if reasons == nil {
		reasons = []string{}
	}
	return Summary{
		OverallRiskLevel:  level,
		TotalThreats:      0,
		SeverityBreakdown: map[string]int{"high": 0, "medium": 0, "low": 0},
		PropertyBreakdown: map[string]int{"privacy": 0, "utility": 0, "consistency": 0},
		TopThreats:        []RankedThreat{},
		EscalationReasons: reasons,
		SummaryText:       text,
		ThreatIDs:         []string{},
		ConfidenceStats:   ConfidenceStats{},
	}
}

// EmptySummary is the canonical "no threats / low risk" summary returned for
// an empty signal set.
func EmptySummary() Summary {
	return BlankSummary(
		LevelLow,
		[]string{"No threats detected"},
		"No security or governance threats detected in dataset.",
	)
}

// LevelDescription returns a human-readable description of a risk level.
func LevelDescription(level Level) string {
	switch level {
	case LevelCritical:
		return "Critical risk requiring immediate attention. Dataset may pose significant privacy or governance concerns."
	case LevelWarning:
		return "Elevated risk detected. Review recommended before deployment or sharing."
	case LevelLow:
		return "Low risk profile. Standard monitoring and governance practices apply."
	default:
		return "Unknown risk level"
	}
}
