package threat

import (
	"fmt"
	"math"

	"github.com/outsidedata/governor/internal/metricset"
)

// ConfidenceKind selects the heuristic used to turn a metric value into a
// strength-of-evidence estimate. Confidence reflects distance from the
// decision boundary, not severity: the two are derived independently.
type ConfidenceKind string

const (
	// ConfidenceDistance: min(|value − baseline| × scale, 1). Used for
	// AUC-style metrics where the baseline is random guessing.
	ConfidenceDistance ConfidenceKind = "distance"

	// ConfidenceRate: min(value × scale, 1). Used for small rates where even
	// a few percent is strong evidence.
	ConfidenceRate ConfidenceKind = "rate"

	// ConfidenceBelowCeiling: min((baseline − value) / scale, 1). Used for
	// 0–1 quality scores where the baseline is the ideal value.
	ConfidenceBelowCeiling ConfidenceKind = "below-ceiling"

	// ConfidenceLogCount: min(log10(value + 1) / scale, 1), zero for a zero
	// count. Used for unbounded violation counts.
	ConfidenceLogCount ConfidenceKind = "log-count"

	// ConfidenceDivergence: min(value / scale, 1). Used for divergence
	// measures with a natural reference scale.
	ConfidenceDivergence ConfidenceKind = "divergence"

	// ConfidenceBySeverity: a fixed per-severity lookup for threats without
	// a direct numeric driver.
	ConfidenceBySeverity ConfidenceKind = "by-severity"
)

// ConfidenceSpec configures the confidence heuristic for one threat.
type ConfidenceSpec struct {
	Kind       ConfidenceKind
	Metric     string
	Baseline   float64
	Scale      float64
	BySeverity map[Severity]float64
}

// score computes the confidence for a signal, rounded to 3 decimals. A
// present-but-non-numeric driver metric is an error; the caller falls back to
// 0.5 and records an uncertainty note.
func (s ConfidenceSpec) score(flat map[string]any, severity Severity) (float64, error) {
	if s.Kind == ConfidenceBySeverity {
		if c, ok := s.BySeverity[severity]; ok {
			return round3(c), nil
		}
		return 0.5, nil
	}

	// Missing driver metrics fall back to the no-evidence value for each
	// heuristic, yielding zero confidence rather than an error.
	value, err := s.metricValue(flat)
	if err != nil {
		return 0, err
	}

	var confidence float64
	switch s.Kind {
	case ConfidenceDistance:
		confidence = math.Min(math.Abs(value-s.Baseline)*s.Scale, 1.0)
	case ConfidenceRate:
		confidence = math.Min(value*s.Scale, 1.0)
	case ConfidenceBelowCeiling:
		confidence = math.Min((s.Baseline-value)/s.Scale, 1.0)
	case ConfidenceLogCount:
		if value == 0 {
			confidence = 0
		} else {
			confidence = math.Min(math.Log10(value+1)/s.Scale, 1.0)
		}
	case ConfidenceDivergence:
		confidence = math.Min(value/s.Scale, 1.0)
	default:
		return 0, fmt.Errorf("unknown confidence kind %q", s.Kind)
	}

	if confidence < 0 {
		confidence = 0
	}
	return round3(confidence), nil
}

func (s ConfidenceSpec) metricValue(flat map[string]any) (float64, error) {
	raw, present := flat[s.Metric]
	if !present {
		switch s.Kind {
		case ConfidenceDistance, ConfidenceBelowCeiling:
			return s.Baseline, nil
		default:
			return 0, nil
		}
	}
	n, ok := metricset.Number(raw)
	if !ok {
		return 0, fmt.Errorf("metric %s: expected number, got %T", s.Metric, raw)
	}
	return n, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
