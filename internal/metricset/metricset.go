// Package metricset normalizes raw metric maps before threat evaluation.
//
// Upstream metric engines emit loosely-shaped maps: scalar values mixed with
// one-level nested groupings (e.g. "privacy_risk" holding per-attack numbers),
// and occasionally NaN, infinities, or empty strings where a computation did
// not converge. Flatten and Sanitize turn that into the flat, valid-only view
// that all rule evaluation operates on.
package metricset

import (
	"math"
	"strings"
)

// Flatten promotes the keys of every one-level nested map to the top level.
// Top-level keys are kept as-is (including the nested map value itself under
// its own key); on a key collision the nested value overwrites the top-level
// one, last nested map wins. Non-map nested values are left alone. A nil map
// yields an empty, non-nil map.
func Flatten(metrics map[string]any) map[string]any {
	flat := make(map[string]any, len(metrics))
	if metrics == nil {
		return flat
	}
	// Two passes: promoted nested keys must win over top-level keys
	// regardless of map iteration order.
	for key, value := range metrics {
		flat[key] = value
	}
	for _, value := range metrics {
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for nestedKey, nestedValue := range nested {
			flat[nestedKey] = nestedValue
		}
	}
	return flat
}

// Sanitize returns a copy of metrics with every invalid entry removed.
// Sanitizing an already-sanitized map is a no-op.
func Sanitize(metrics map[string]any) map[string]any {
	sanitized := make(map[string]any, len(metrics))
	for key, value := range metrics {
		if !IsValid(value) {
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

// IsValid reports whether a single metric value is usable for evaluation.
// nil, NaN, ±Inf, and empty or whitespace-only strings are invalid;
// everything else (finite numbers, booleans, non-empty strings, nested
// structures) is valid.
func IsValid(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		f := float64(v)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

// Number coerces a metric value to float64. Booleans and strings are not
// numbers. The second return is false when the value has no numeric
// representation.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
