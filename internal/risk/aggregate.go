package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/outsidedata/governor/internal/threat"
	"go.uber.org/zap"
)

// DefaultTopN is the number of top threats included when no explicit count is
// requested.
const DefaultTopN = 5

// severityWeight and propertyWeight drive priority scoring. Privacy always
// outranks utility, which outranks consistency, at equal severity.
var (
	severityWeight = map[threat.Severity]float64{
		threat.SeverityHigh:   3,
		threat.SeverityMedium: 2,
		threat.SeverityLow:    1,
	}
	propertyWeight = map[threat.Property]float64{
		threat.PropertyPrivacy:     3,
		threat.PropertyUtility:     2,
		threat.PropertyConsistency: 1,
	}
)

// Aggregator combines threat signals into a dataset-level Summary. It holds
// no mutable state and is safe for concurrent use.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates an Aggregator. A nil logger disables logging.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger}
}

// Aggregate produces the risk summary for a signal set. A nil or empty set
// yields the canonical empty summary. topN ≤ 0 selects DefaultTopN.
func (a *Aggregator) Aggregate(signals []threat.Signal, topN int) Summary {
	if len(signals) == 0 {
		return EmptySummary()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	severityBreakdown := map[string]int{"high": 0, "medium": 0, "low": 0}
	propertyBreakdown := map[string]int{"privacy": 0, "utility": 0, "consistency": 0}
	threatIDs := make([]string, 0, len(signals))
	totalMissing := 0
	hasUncertainty := false

	for _, s := range signals {
		severityBreakdown[string(s.Severity)]++
		propertyBreakdown[string(s.ImpactedProperty)]++
		threatIDs = append(threatIDs, s.ThreatID)
		totalMissing += s.MissingMetrics
		if len(s.UncertaintyNotes) > 0 {
			hasUncertainty = true
		}
	}

	level, reasons := determineLevel(signals, a.logger)
	topThreats := rankTopThreats(signals, topN)
	stats := confidenceStats(signals)

	return Summary{
		OverallRiskLevel:    level,
		TotalThreats:        len(signals),
		SeverityBreakdown:   severityBreakdown,
		PropertyBreakdown:   propertyBreakdown,
		TopThreats:          topThreats,
		EscalationReasons:   reasons,
		SummaryText:         summaryText(level, len(signals), severityBreakdown, propertyBreakdown, topThreats, hasUncertainty),
		ThreatIDs:           threatIDs,
		ConfidenceStats:     stats,
		TotalMissingMetrics: totalMissing,
		HasUncertainty:      hasUncertainty,
	}
}

// rankTopThreats scores every signal and returns the topN by descending
// priority. The sort is stable so equal scores keep classification order.
func rankTopThreats(signals []threat.Signal, topN int) []RankedThreat {
	ranked := make([]RankedThreat, 0, len(signals))
	for _, s := range signals {
		score := severityWeight[s.Severity]*10 +
			propertyWeight[s.ImpactedProperty]*5 +
			s.Confidence*10

		triggered := s.TriggeredBy
		if len(triggered) > 2 {
			triggered = triggered[:2]
		}

		ranked = append(ranked, RankedThreat{
			ThreatID:         s.ThreatID,
			ThreatName:       s.ThreatName,
			Severity:         s.Severity,
			ImpactedProperty: s.ImpactedProperty,
			Confidence:       s.Confidence,
			PriorityScore:    math.Round(score*100) / 100,
			TriggeredBy:      triggered,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func confidenceStats(signals []threat.Signal) ConfidenceStats {
	if len(signals) == 0 {
		return ConfidenceStats{}
	}

	sum, minimum, maximum := 0.0, signals[0].Confidence, signals[0].Confidence
	for _, s := range signals {
		sum += s.Confidence
		if s.Confidence < minimum {
			minimum = s.Confidence
		}
		if s.Confidence > maximum {
			maximum = s.Confidence
		}
	}

	return ConfidenceStats{
		Avg: round3(sum / float64(len(signals))),
		Max: round3(maximum),
		Min: round3(minimum),
	}
}

// summaryText renders the deterministic narrative: lead sentence by level,
// counts, dominant property impact, the single top-ranked threat, and an
// optional uncertainty note. Empty clauses are dropped.
func summaryText(
	level Level,
	total int,
	severityBreakdown, propertyBreakdown map[string]int,
	topThreats []RankedThreat,
	hasUncertainty bool,
) string {
	var intro string
	switch level {
	case LevelCritical:
		intro = "⚠️ CRITICAL RISK: Immediate review required."
	case LevelWarning:
		intro = "⚡ WARNING: Elevated risk detected."
	default:
		intro = "✓ LOW RISK: Minor concerns detected."
	}

	composition := fmt.Sprintf("Detected %d threat(s): %d high, %d medium, %d low severity.",
		total, severityBreakdown["high"], severityBreakdown["medium"], severityBreakdown["low"])

	var impact string
	switch {
	case propertyBreakdown["privacy"] > 0:
		impact = fmt.Sprintf("Privacy concerns: %d threat(s).", propertyBreakdown["privacy"])
	case propertyBreakdown["utility"] > 0:
		impact = fmt.Sprintf("Utility concerns: %d threat(s).", propertyBreakdown["utility"])
	default:
		impact = "Consistency concerns detected."
	}

	var priority string
	if len(topThreats) > 0 {
		priority = fmt.Sprintf("Top priority: %s (%s).", topThreats[0].ThreatName, topThreats[0].Severity)
	}

	var uncertainty string
	if hasUncertainty {
		uncertainty = "[Note: Some metrics were missing/invalid]"
	}

	parts := make([]string, 0, 5)
	for _, p := range []string{intro, composition, impact, priority, uncertainty} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
