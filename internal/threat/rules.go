package threat

import (
	"fmt"
	"math"
	"strings"

	"github.com/outsidedata/governor/internal/metricset"
)

// Op is a comparison operator in a severity condition.
type Op string

const (
	// Numeric comparisons against Condition.Threshold.
	OpGT  Op = ">"
	OpGTE Op = ">="
	OpLT  Op = "<"
	OpLTE Op = "<="

	// String comparison: the lowercased metric value must equal one of
	// Condition.Values. An absent metric never matches.
	OpIsOneOf Op = "is-one-of"
)

// Condition is a single tagged comparison over the flat metric map. Severity
// rules are plain data rather than closures so the catalog stays serializable
// and testable on its own.
type Condition struct {
	Metric string
	Op     Op

	// Threshold and Absent apply to numeric ops. Absent is the value assumed
	// when the metric is missing from the map (e.g. +Inf for a minimum
	// distance, so "< x" cannot fire on missing data).
	Threshold float64
	Absent    float64

	// Values applies to OpIsOneOf, lowercased.
	Values []string
}

// Rule matches when any of its conditions matches, evaluated in order with
// short-circuiting. A condition that cannot be evaluated (metric present but
// of the wrong type) aborts the rule with an error.
type Rule struct {
	Any []Condition
}

// Eval evaluates the rule against the sanitized flat metric map.
func (r Rule) Eval(flat map[string]any) (bool, error) {
	for _, c := range r.Any {
		ok, err := c.eval(flat)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c Condition) eval(flat map[string]any) (bool, error) {
	raw, present := flat[c.Metric]

	if c.Op == OpIsOneOf {
		if !present {
			return false, nil
		}
		s, ok := raw.(string)
		if !ok {
			return false, fmt.Errorf("metric %s: expected string, got %T", c.Metric, raw)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, v := range c.Values {
			if s == v {
				return true, nil
			}
		}
		return false, nil
	}

	value := c.Absent
	if present {
		n, ok := metricset.Number(raw)
		if !ok {
			return false, fmt.Errorf("metric %s: expected number, got %T", c.Metric, raw)
		}
		value = n
	}

	switch c.Op {
	case OpGT:
		return value > c.Threshold, nil
	case OpGTE:
		return value >= c.Threshold, nil
	case OpLT:
		return value < c.Threshold, nil
	case OpLTE:
		return value <= c.Threshold, nil
	default:
		return false, fmt.Errorf("metric %s: unknown operator %q", c.Metric, c.Op)
	}
}

// gt, lt, lte, and drift are catalog construction shorthands.

func gt(metric string, threshold float64) Condition {
	return Condition{Metric: metric, Op: OpGT, Threshold: threshold}
}

func lt(metric string, threshold, absent float64) Condition {
	return Condition{Metric: metric, Op: OpLT, Threshold: threshold, Absent: absent}
}

func lte(metric string, threshold, absent float64) Condition {
	return Condition{Metric: metric, Op: OpLTE, Threshold: threshold, Absent: absent}
}

func gte(metric string, threshold, absent float64) Condition {
	return Condition{Metric: metric, Op: OpGTE, Threshold: threshold, Absent: absent}
}

func drift(values ...string) Condition {
	return Condition{Metric: "statistical_drift", Op: OpIsOneOf, Values: values}
}

// infinity is the absent-default for minimum-distance metrics.
var infinity = math.Inf(1)
