// Package threat maps dataset-quality metrics to named governance threats.
//
// A static catalog defines, for each threat, the metrics it inspects, ordered
// severity rules, and the thresholds used for confidence scoring and trigger
// explanation. The Classifier evaluates the catalog against a flattened,
// sanitized metric map and emits at most one Signal per catalog entry.
//
// Everything here is advisory: a Signal describes a concern, it never
// approves or rejects anything.
package threat

// Severity is the ordinal concern level for a single threat.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Property is the governance dimension a threat affects.
type Property string

const (
	PropertyPrivacy     Property = "privacy"
	PropertyUtility     Property = "utility"
	PropertyConsistency Property = "consistency"
)

// Signal is one detected threat derived from a catalog entry and the current
// metric map. Signals are values, constructed fresh on every classification
// call and never mutated afterwards.
type Signal struct {
	ThreatID         string         `json:"threat_id"`
	ThreatName       string         `json:"threat_name"`
	AttackType       string         `json:"attack_type"`
	ImpactedProperty Property       `json:"impacted_property"`
	Severity         Severity       `json:"severity"`

	// Confidence is the strength of evidence in [0,1]. It is derived
	// independently of Severity: a high-severity signal can carry low
	// confidence when the evidence is marginal.
	Confidence float64 `json:"confidence"`

	// RelatedMetrics is the subset of the catalog entry's metrics that had
	// valid values; MetricValues retains those values for display only.
	RelatedMetrics []string       `json:"related_metrics"`
	MetricValues   map[string]any `json:"metric_values"`

	// TriggeredBy lists the human-readable conditions that fired. Always
	// non-empty; a generic note is used when no specific condition applies.
	TriggeredBy []string `json:"triggered_by"`

	Description string `json:"description"`

	// MissingMetrics counts expected metrics that were absent or invalid.
	MissingMetrics   int      `json:"missing_metrics"`
	UncertaintyNotes []string `json:"uncertainty_notes"`
}
