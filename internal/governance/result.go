// Package governance is the public entry point of the risk engine. It wraps
// the classifier and aggregator behind a single Evaluate call with safe
// defaults and graceful degradation.
//
// The engine is ADVISORY ONLY. It describes governance risks (privacy,
// utility, consistency); it never makes approve/reject decisions, never
// enforces policy, and never gates anything. All outputs are informational
// for human review.
package governance

import (
	"github.com/outsidedata/governor/internal/risk"
	"github.com/outsidedata/governor/internal/threat"
)

// EngineVersion is reported in every result's metadata.
const EngineVersion = "2.1.0"

// OutputMode controls how much detail a Result carries.
type OutputMode string

const (
	// ModeSummary returns the risk summary only.
	ModeSummary OutputMode = "summary"
	// ModeDetailed additionally includes the individual threat signals.
	ModeDetailed OutputMode = "detailed"
	// ModeFull includes everything ModeDetailed does; reserved for future
	// metadata extensions.
	ModeFull OutputMode = "full"
)

// Metadata records how an evaluation was produced.
type Metadata struct {
	EngineVersion string         `json:"engine_version"`
	Timestamp     string         `json:"timestamp"`
	OutputMode    OutputMode     `json:"output_mode"`
	Config        map[string]any `json:"config"`
}

// Result is the single output format of the engine. Threats is nil unless
// the output mode requested detail and at least one signal exists; a nil
// slice serializes to JSON null.
//
// A Result never contains approval or rejection fields at any depth. That is
// a hard external contract; consumers verify it.
type Result struct {
	DatasetRiskSummary risk.Summary    `json:"dataset_risk_summary"`
	Threats            []threat.Signal `json:"threats"`
	HasUncertainty     bool            `json:"has_uncertainty"`
	UncertaintyNotes   []string        `json:"uncertainty_notes"`
	Metadata           Metadata        `json:"metadata"`
	Disclaimers        []string        `json:"disclaimers"`
}

// Disclaimers returns the fixed advisory-only disclaimers attached to every
// result.
func Disclaimers() []string {
	return []string{
		"This assessment is advisory only and does not constitute compliance certification",
		"Risk levels are interpretive and should inform, not replace, human decision-making",
		"No approval or rejection decisions are made by this system",
	}
}
