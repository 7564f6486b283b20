package threat

import (
	"testing"
)

func TestConfidence_distanceFromBaseline(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceDistance, Metric: "auc", Baseline: 0.5, Scale: 2.0}

	cases := []struct {
		name string
		auc  any
		want float64
	}{
		{"at baseline", 0.5, 0.0},
		{"above baseline", 0.75, 0.5},
		{"below baseline counts too", 0.25, 0.5},
		{"capped at one", 0.99, 0.98},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := spec.score(map[string]any{"auc": tc.auc}, SeverityHigh)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfidence_rate(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceRate, Metric: "rate", Scale: 50.0}

	if got, _ := spec.score(map[string]any{"rate": 0.01}, SeverityLow); got != 0.5 {
		t.Errorf("rate 0.01 → %v, want 0.5", got)
	}
	if got, _ := spec.score(map[string]any{"rate": 0.5}, SeverityLow); got != 1.0 {
		t.Errorf("rate 0.5 should cap at 1.0, got %v", got)
	}
	if got, _ := spec.score(map[string]any{}, SeverityLow); got != 0.0 {
		t.Errorf("missing rate → %v, want 0", got)
	}
}

func TestConfidence_belowCeiling(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceBelowCeiling, Metric: "privacy_score", Baseline: 1.0, Scale: 0.4}

	if got, _ := spec.score(map[string]any{"privacy_score": 0.8}, SeverityMedium); got != 0.5 {
		t.Errorf("score 0.8 → %v, want 0.5", got)
	}
	// Missing metric assumes the ideal value: no evidence.
	if got, _ := spec.score(map[string]any{}, SeverityMedium); got != 0.0 {
		t.Errorf("missing score → %v, want 0", got)
	}
	// A score above the ceiling must not go negative.
	if got, _ := spec.score(map[string]any{"privacy_score": 1.2}, SeverityMedium); got != 0.0 {
		t.Errorf("above-ceiling score → %v, want 0", got)
	}
}

func TestConfidence_logCount(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceLogCount, Metric: "violations", Scale: 3.0}

	if got, _ := spec.score(map[string]any{"violations": 0}, SeverityLow); got != 0.0 {
		t.Errorf("zero count → %v, want 0", got)
	}
	if got, _ := spec.score(map[string]any{"violations": 999}, SeverityHigh); got != 1.0 {
		t.Errorf("log10(1000)/3 → %v, want 1.0", got)
	}
	got, _ := spec.score(map[string]any{"violations": 9}, SeverityMedium)
	if got != 0.333 {
		t.Errorf("log10(10)/3 rounded → %v, want 0.333", got)
	}
}

func TestConfidence_divergence(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceDivergence, Metric: "kl", Scale: 1.0}

	if got, _ := spec.score(map[string]any{"kl": 0.3}, SeverityMedium); got != 0.3 {
		t.Errorf("kl 0.3 → %v, want 0.3", got)
	}
	if got, _ := spec.score(map[string]any{"kl": 2.5}, SeverityHigh); got != 1.0 {
		t.Errorf("kl 2.5 should cap at 1.0, got %v", got)
	}
}

func TestConfidence_bySeverity(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceBySeverity, BySeverity: map[Severity]float64{
		SeverityLow: 0.3, SeverityMedium: 0.6, SeverityHigh: 0.9,
	}}

	for severity, want := range spec.BySeverity {
		got, err := spec.score(map[string]any{}, severity)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("severity %s → %v, want %v", severity, got, want)
		}
	}
}

func TestConfidence_badTypeErrors(t *testing.T) {
	spec := ConfidenceSpec{Kind: ConfidenceRate, Metric: "rate", Scale: 50.0}
	if _, err := spec.score(map[string]any{"rate": "high"}, SeverityLow); err == nil {
		t.Error("expected error for non-numeric driver metric")
	}
}
