package governance

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/outsidedata/governor/internal/risk"
	"go.uber.org/zap"
)

// ── Fixtures ─────────────────────────────────────────────────────────────

func safeMetrics() map[string]any {
	return map[string]any{
		"privacy_score": 0.92,
		"utility_score": 0.95,
		"privacy_risk": map[string]any{
			"membership_inference_auc": 0.52,
		},
	}
}

func riskyMetrics() map[string]any {
	return map[string]any{
		"privacy_score": 0.55,
		"privacy_risk": map[string]any{
			"membership_inference_auc": 0.78,
			"near_duplicates_rate":     0.04,
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(nil, zap.NewNop())
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestEvaluate_emptyInput(t *testing.T) {
	for _, metrics := range []map[string]any{nil, {}} {
		result := newTestEngine().Evaluate(metrics)

		if result.DatasetRiskSummary.OverallRiskLevel != risk.LevelUnknown {
			t.Errorf("expected unknown risk, got %s", result.DatasetRiskSummary.OverallRiskLevel)
		}
		if result.DatasetRiskSummary.SummaryText != "Cannot evaluate: no metrics provided" {
			t.Errorf("unexpected summary text %q", result.DatasetRiskSummary.SummaryText)
		}
		if !result.HasUncertainty {
			t.Error("empty input must flag uncertainty")
		}
		if len(result.UncertaintyNotes) != 1 ||
			result.UncertaintyNotes[0] != "No metrics provided or invalid input format" {
			t.Errorf("unexpected notes: %v", result.UncertaintyNotes)
		}
		if result.Threats != nil {
			t.Error("empty input must not include threats")
		}
	}
}

func TestEvaluate_safeDataset(t *testing.T) {
	result := newTestEngine().Evaluate(safeMetrics())

	if result.DatasetRiskSummary.OverallRiskLevel == risk.LevelCritical {
		t.Errorf("safe dataset escalated to critical: %+v", result.DatasetRiskSummary)
	}
	if result.DatasetRiskSummary.TotalThreats == 0 {
		t.Error("expected low-severity signals for a safe dataset")
	}
}

func TestEvaluate_riskyDatasetIsCritical(t *testing.T) {
	result := newTestEngine().Evaluate(riskyMetrics())

	if result.DatasetRiskSummary.OverallRiskLevel != risk.LevelCritical {
		t.Errorf("expected critical, got %s", result.DatasetRiskSummary.OverallRiskLevel)
	}
	if len(result.DatasetRiskSummary.TopThreats) == 0 {
		t.Error("expected ranked top threats")
	}
}

func TestEvaluate_outputModes(t *testing.T) {
	engine := newTestEngine()

	if got := engine.Evaluate(safeMetrics()); got.Threats != nil {
		t.Error("summary mode must not include threats")
	}
	if got := engine.Evaluate(safeMetrics(), WithOutputMode(ModeDetailed)); len(got.Threats) == 0 {
		t.Error("detailed mode must include threats")
	}
	if got := engine.Evaluate(safeMetrics(), WithOutputMode(ModeFull)); len(got.Threats) == 0 {
		t.Error("full mode must include threats")
	}
}

func TestEvaluate_topNFlowsIntoSummaryAndConfig(t *testing.T) {
	result := newTestEngine().Evaluate(riskyMetrics(), WithTopN(1))

	if len(result.DatasetRiskSummary.TopThreats) != 1 {
		t.Errorf("expected 1 top threat, got %d", len(result.DatasetRiskSummary.TopThreats))
	}
	if result.Metadata.Config["top_threats_count"] != 1 {
		t.Errorf("config must record the override: %v", result.Metadata.Config)
	}
}

func TestEvaluate_zeroSignalsFlagsUncertainty(t *testing.T) {
	// Valid metrics that no catalog entry relates to.
	result := newTestEngine().Evaluate(map[string]any{"row_count": 1000.0})

	if result.DatasetRiskSummary.OverallRiskLevel != risk.LevelLow {
		t.Errorf("expected low, got %s", result.DatasetRiskSummary.OverallRiskLevel)
	}
	if result.DatasetRiskSummary.SummaryText != "No threats detected in provided metrics" {
		t.Errorf("unexpected summary text %q", result.DatasetRiskSummary.SummaryText)
	}
	if !result.HasUncertainty {
		t.Error("zero signals must flag uncertainty")
	}
	found := false
	for _, note := range result.UncertaintyNotes {
		if note == "No threats detected - metrics may be incomplete" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing incomplete-metrics note: %v", result.UncertaintyNotes)
	}
}

func TestEvaluate_invalidValuesSurfaceAsNotes(t *testing.T) {
	metrics := safeMetrics()
	metrics["privacy_score"] = "high"
	metrics["avg_nn_distance"] = 0.3

	result := newTestEngine().Evaluate(metrics, WithOutputMode(ModeDetailed))

	if !result.HasUncertainty {
		t.Error("invalid metric values must flag uncertainty")
	}
	hasInvalidNote := false
	for _, note := range result.UncertaintyNotes {
		if strings.Contains(note, "Invalid value for privacy_score") {
			hasInvalidNote = true
		}
	}
	if !hasInvalidNote {
		t.Errorf("expected invalid-value note, got %v", result.UncertaintyNotes)
	}
}

func TestEvaluate_metadata(t *testing.T) {
	result := newTestEngine().Evaluate(safeMetrics(), WithOutputMode(ModeDetailed))

	if result.Metadata.EngineVersion != "2.1.0" {
		t.Errorf("unexpected engine version %q", result.Metadata.EngineVersion)
	}
	if result.Metadata.OutputMode != ModeDetailed {
		t.Errorf("unexpected output mode %q", result.Metadata.OutputMode)
	}
	ts, err := time.Parse(time.RFC3339, result.Metadata.Timestamp)
	if err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
	if ts.Location() != time.UTC {
		t.Error("timestamp must be UTC")
	}
	if len(result.Disclaimers) != 3 {
		t.Errorf("expected 3 disclaimers, got %v", result.Disclaimers)
	}
}

func TestEvaluate_jsonShape(t *testing.T) {
	raw, err := json.Marshal(newTestEngine().Evaluate(safeMetrics()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{
		"dataset_risk_summary", "threats", "has_uncertainty",
		"uncertainty_notes", "metadata", "disclaimers",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("result JSON missing key %q", key)
		}
	}
	if decoded["threats"] != nil {
		t.Error("summary mode threats must serialize to null")
	}
	summary, ok := decoded["dataset_risk_summary"].(map[string]any)
	if !ok {
		t.Fatal("dataset_risk_summary is not an object")
	}
	for _, key := range []string{
		"overall_risk_level", "total_threats", "severity_breakdown",
		"property_breakdown", "top_threats", "escalation_reasons",
		"summary_text", "threat_ids", "confidence_stats",
		"total_missing_metrics", "has_uncertainty",
	} {
		if _, ok := summary[key]; !ok {
			t.Errorf("dataset_risk_summary missing key %q", key)
		}
	}
}

// The serialized result must never carry approval, rejection, or acceptance
// fields at any depth. External consumers depend on this.
func TestEvaluate_noDecisionKeysAnywhere(t *testing.T) {
	for _, metrics := range []map[string]any{nil, safeMetrics(), riskyMetrics()} {
		raw, err := json.Marshal(newTestEngine().Evaluate(metrics, WithOutputMode(ModeFull)))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		scanForDecisionKeys(t, decoded, "")
	}
}

func scanForDecisionKeys(t *testing.T, node any, path string) {
	t.Helper()
	obj, ok := node.(map[string]any)
	if !ok {
		if list, ok := node.([]any); ok {
			for _, item := range list {
				scanForDecisionKeys(t, item, path+"[]")
			}
		}
		return
	}
	for key, value := range obj {
		lower := strings.ToLower(key)
		for _, forbidden := range []string{"decision", "approv", "reject", "accept"} {
			if strings.Contains(lower, forbidden) {
				t.Errorf("forbidden key %q at %s", key, path+"."+key)
			}
		}
		scanForDecisionKeys(t, value, path+"."+key)
	}
}

func TestEvaluate_concurrentCallsAreIndependent(t *testing.T) {
	engine := newTestEngine()

	done := make(chan *Result, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- engine.Evaluate(riskyMetrics())
		}()
	}
	first := <-done
	for i := 1; i < 8; i++ {
		result := <-done
		if result.DatasetRiskSummary.OverallRiskLevel != first.DatasetRiskSummary.OverallRiskLevel {
			t.Error("concurrent evaluations disagreed on risk level")
		}
	}
}
