package threat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/outsidedata/governor/internal/metricset"
)

// explainTriggers generates the human-readable conditions that fired for a
// threat, formatted from the metric values that determined severity. When no
// specific condition applies the caller substitutes genericTrigger.
func explainTriggers(def Definition, flat map[string]any, severity Severity) []string {
	var conditions []string

	switch def.ID {
	case MembershipInference:
		if auc, ok := num(flat, "membership_inference_auc"); ok {
			switch severity {
			case SeverityHigh:
				conditions = append(conditions, fmt.Sprintf("membership_inference_auc (%.3f) > 0.70", auc))
			case SeverityMedium:
				conditions = append(conditions, fmt.Sprintf("membership_inference_auc (%.3f) > 0.60", auc))
			default:
				conditions = append(conditions, fmt.Sprintf("membership_inference_auc (%.3f) detected", auc))
			}
		}

	case RecordLinkage:
		if rate, ok := num(flat, "near_duplicates_rate"); ok && rate > 0.01 {
			conditions = append(conditions, fmt.Sprintf("near_duplicates_rate (%.4f) > threshold", rate))
		}
		if count, ok := num(flat, "near_duplicates_count"); ok && count > 5 {
			conditions = append(conditions, fmt.Sprintf("near_duplicates_count (%s) detected", formatCount(count)))
		}
		if dist, ok := num(flat, "min_nn_distance"); ok && dist < 1.0 {
			conditions = append(conditions, fmt.Sprintf("min_nn_distance (%.2f) < 1.0", dist))
		}

	case PrivacyLeakage:
		if score, ok := num(flat, "privacy_score"); ok {
			switch severity {
			case SeverityHigh:
				conditions = append(conditions, fmt.Sprintf("privacy_score (%.3f) < 0.60", score))
			case SeverityMedium:
				conditions = append(conditions, fmt.Sprintf("privacy_score (%.3f) < 0.80", score))
			default:
				conditions = append(conditions, fmt.Sprintf("privacy_score (%.3f) below optimal", score))
			}
		}

	case SemanticViolation:
		if violations, ok := num(flat, "semantic_violations"); ok && violations > 0 {
			conditions = append(conditions, fmt.Sprintf("semantic_violations (%s) detected", formatCount(violations)))
		}
		conditions = append(conditions, fieldViolationConditions(flat)...)

	case DistributionDrift:
		if level, ok := flat["statistical_drift"].(string); ok {
			if lower := strings.ToLower(level); lower == "high" || lower == "moderate" {
				conditions = append(conditions, "statistical_drift = "+level)
			}
		}
		if kl, ok := num(flat, "avg_kl_divergence"); ok && kl > 0.1 {
			conditions = append(conditions, fmt.Sprintf("avg_kl_divergence (%.3f) > baseline", kl))
		}

	case CorrelationInconsistency:
		if norm, ok := num(flat, "correlation_frobenius_norm"); ok {
			switch severity {
			case SeverityHigh:
				conditions = append(conditions, fmt.Sprintf("correlation_frobenius_norm (%.2f) > 2.0", norm))
			case SeverityMedium:
				conditions = append(conditions, fmt.Sprintf("correlation_frobenius_norm (%.2f) > 1.0", norm))
			default:
				conditions = append(conditions, fmt.Sprintf("correlation_frobenius_norm (%.2f) detected", norm))
			}
		}

	case UtilityDegradation:
		if score, ok := num(flat, "utility_score"); ok {
			switch severity {
			case SeverityHigh:
				conditions = append(conditions, fmt.Sprintf("utility_score (%.3f) < 0.70", score))
			case SeverityMedium:
				conditions = append(conditions, fmt.Sprintf("utility_score (%.3f) < 0.85", score))
			default:
				conditions = append(conditions, fmt.Sprintf("utility_score (%.3f) below optimal", score))
			}
		}

	case AttributeInference:
		if acc, ok := num(flat, "attribute_inference_accuracy"); ok {
			switch severity {
			case SeverityHigh:
				conditions = append(conditions, fmt.Sprintf("attribute_inference_accuracy (%.3f) > 0.85", acc))
			case SeverityMedium:
				conditions = append(conditions, fmt.Sprintf("attribute_inference_accuracy (%.3f) > 0.75", acc))
			}
		}
	}

	return conditions
}

// genericTrigger is the fallback condition used when no specific explanation
// could be produced for a signal.
func genericTrigger(severity Severity) string {
	return fmt.Sprintf("Detected based on %s severity threshold", severity)
}

// fieldViolationConditions expands the per-field violation map, sorted by
// field name so output is deterministic.
func fieldViolationConditions(flat map[string]any) []string {
	fields, ok := flat["field_constraint_violations"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var conditions []string
	for _, name := range names {
		if count, ok := metricset.Number(fields[name]); ok && count > 0 {
			conditions = append(conditions, fmt.Sprintf("%s: %s violations", name, formatCount(count)))
		}
	}
	return conditions
}

func num(flat map[string]any, key string) (float64, bool) {
	raw, ok := flat[key]
	if !ok {
		return 0, false
	}
	return metricset.Number(raw)
}

// formatCount renders count-style values without a decimal point when whole.
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
