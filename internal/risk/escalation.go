package risk

import (
	"github.com/outsidedata/governor/internal/threat"
	"go.uber.org/zap"
)

// escalationRule fixes the dataset risk level when its predicate matches the
// full signal set.
type escalationRule struct {
	name   string
	reason string
	match  func(signals []threat.Signal) bool
}

// escalationGroup binds a target level to its ordered rules.
type escalationGroup struct {
	level Level
	rules []escalationRule
}

// escalationGroups are evaluated strictly critical → warning → low; within a
// group, rules run in declared order and the first match wins. The groups are
// exhaustive by construction: the low group's two rules cover "only low
// severity" and "no threats", and any other composition is caught earlier.
var escalationGroups = []escalationGroup{
	{
		level: LevelCritical,
		rules: []escalationRule{
			{
				name:   "high_severity_privacy_threat",
				reason: "High severity privacy threat detected",
				match: func(signals []threat.Signal) bool {
					return anySignal(signals, func(s threat.Signal) bool {
						return s.Severity == threat.SeverityHigh && s.ImpactedProperty == threat.PropertyPrivacy
					})
				},
			},
			{
				name:   "multiple_high_severity_threats",
				reason: "Multiple high severity threats detected",
				match: func(signals []threat.Signal) bool {
					return countSignals(signals, func(s threat.Signal) bool {
						return s.Severity == threat.SeverityHigh
					}) >= 2
				},
			},
			{
				name:   "high_confidence_privacy_threat",
				reason: "High confidence privacy threat with elevated severity",
				match: func(signals []threat.Signal) bool {
					return anySignal(signals, func(s threat.Signal) bool {
						return s.ImpactedProperty == threat.PropertyPrivacy &&
							s.Confidence > 0.8 &&
							(s.Severity == threat.SeverityHigh || s.Severity == threat.SeverityMedium)
					})
				},
			},
		},
	},
	{
		level: LevelWarning,
		rules: []escalationRule{
			{
				name:   "any_high_severity_threat",
				reason: "At least one high severity threat detected",
				match: func(signals []threat.Signal) bool {
					return anySignal(signals, func(s threat.Signal) bool {
						return s.Severity == threat.SeverityHigh
					})
				},
			},
			{
				name:   "multiple_medium_privacy_threats",
				reason: "Multiple medium severity privacy threats detected",
				match: func(signals []threat.Signal) bool {
					return countSignals(signals, func(s threat.Signal) bool {
						return s.Severity == threat.SeverityMedium && s.ImpactedProperty == threat.PropertyPrivacy
					}) >= 2
				},
			},
			{
				name:   "multiple_medium_threats",
				reason: "Multiple medium severity threats detected across properties",
				match: func(signals []threat.Signal) bool {
					return countSignals(signals, func(s threat.Signal) bool {
						return s.Severity == threat.SeverityMedium
					}) >= 3
				},
			},
			{
				name:   "privacy_threat_with_medium_confidence",
				reason: "Privacy threat with significant confidence detected",
				match: func(signals []threat.Signal) bool {
					return anySignal(signals, func(s threat.Signal) bool {
						return s.ImpactedProperty == threat.PropertyPrivacy && s.Confidence > 0.6
					})
				},
			},
		},
	},
	{
		level: LevelLow,
		rules: []escalationRule{
			{
				name:   "only_low_severity_threats",
				reason: "Only low severity threats detected",
				match: func(signals []threat.Signal) bool {
					if len(signals) == 0 {
						return false
					}
					return countSignals(signals, func(s threat.Signal) bool {
						return s.Severity == threat.SeverityLow
					}) == len(signals)
				},
			},
			{
				name:   "no_threats",
				reason: "No threats detected",
				match: func(signals []threat.Signal) bool {
					return len(signals) == 0
				},
			},
		},
	},
}

// determineLevel resolves the overall risk level. A panicking rule is logged
// and treated as not matching; the fallback below it is unreachable when the
// rule groups stay exhaustive and exists only as a defensive backstop.
func determineLevel(signals []threat.Signal, logger *zap.Logger) (Level, []string) {
	for _, group := range escalationGroups {
		for _, rule := range group.rules {
			if safeMatch(rule, signals, logger) {
				return group.level, []string{rule.reason}
			}
		}
	}

	logger.Warn("no escalation rule matched; falling back to warning",
		zap.Int("signal_count", len(signals)),
	)
	return LevelWarning, []string{"Unable to determine risk level (fallback)"}
}

func safeMatch(rule escalationRule, signals []threat.Signal, logger *zap.Logger) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("escalation rule panicked",
				zap.String("rule", rule.name),
				zap.Any("panic", r),
			)
			matched = false
		}
	}()
	return rule.match(signals)
}

// ExplainRules documents every escalation rule per risk level, in evaluation
// order, for transparency endpoints and tooling.
func ExplainRules() map[string][]string {
	doc := make(map[string][]string, len(escalationGroups))
	for _, group := range escalationGroups {
		reasons := make([]string, len(group.rules))
		for i, rule := range group.rules {
			reasons[i] = rule.reason
		}
		doc[string(group.level)] = reasons
	}
	return doc
}

func anySignal(signals []threat.Signal, pred func(threat.Signal) bool) bool {
	for _, s := range signals {
		if pred(s) {
			return true
		}
	}
	return false
}

func countSignals(signals []threat.Signal, pred func(threat.Signal) bool) int {
	n := 0
	for _, s := range signals {
		if pred(s) {
			n++
		}
	}
	return n
}
