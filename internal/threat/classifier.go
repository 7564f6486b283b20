package threat

import (
	"fmt"
	"unicode/utf8"

	"github.com/outsidedata/governor/internal/metricset"
	"go.uber.org/zap"
)

// Classifier evaluates the threat catalog against a raw metric map. It holds
// no mutable state; a single Classifier is safe for concurrent use.
type Classifier struct {
	catalog *Catalog
	logger  *zap.Logger
}

// NewClassifier creates a Classifier over the given catalog. A nil catalog
// selects the default catalog; a nil logger disables logging.
func NewClassifier(catalog *Catalog, logger *zap.Logger) *Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{catalog: catalog, logger: logger}
}

// Classify maps a raw metric map to threat signals, one per catalog entry at
// most, in catalog order. A nil map is treated as empty. Classify never
// panics: malformed values degrade to skipped entries or uncertainty notes.
func (c *Classifier) Classify(metrics map[string]any) []Signal {
	if metrics == nil {
		c.logger.Warn("classify called with nil metrics, returning no signals")
		return nil
	}

	flat := metricset.Flatten(metrics)
	sanitized := metricset.Sanitize(flat)

	var signals []Signal
	for _, def := range c.catalog.All() {
		if signal, ok := c.evaluate(def, flat, sanitized); ok {
			signals = append(signals, signal)
		}
	}
	return signals
}

// evaluate runs one catalog entry. The boolean is false when the entry
// produces no signal (no valid metrics, or no severity rule matched).
func (c *Classifier) evaluate(def Definition, flat, sanitized map[string]any) (Signal, bool) {
	var notes []string

	related := make([]string, 0, len(def.Metrics))
	values := make(map[string]any, len(def.Metrics))
	missing := 0

	for _, name := range def.Metrics {
		if v, ok := sanitized[name]; ok {
			related = append(related, name)
			values[name] = v
			continue
		}
		missing++
		// Distinguish a metric that arrived with an unusable value from one
		// that was never provided at all.
		if _, present := flat[name]; present {
			notes = append(notes, "Invalid value for "+name)
		}
	}

	if len(related) == 0 {
		return Signal{}, false
	}

	severity, ok, evalNotes := c.evaluateSeverity(def, sanitized)
	notes = append(notes, evalNotes...)
	if !ok {
		return Signal{}, false
	}

	confidence, err := def.Confidence.score(sanitized, severity)
	if err != nil {
		c.logger.Warn("confidence calculation failed",
			zap.String("threat_id", def.ID),
			zap.Error(err),
		)
		confidence = 0.5
		notes = append(notes, "Confidence calculation failed")
	}

	triggeredBy := explainTriggers(def, sanitized, severity)
	if len(triggeredBy) == 0 {
		triggeredBy = []string{genericTrigger(severity)}
	}

	return Signal{
		ThreatID:         def.ID,
		ThreatName:       def.Name,
		AttackType:       def.AttackType,
		ImpactedProperty: def.ImpactedProperty,
		Severity:         severity,
		Confidence:       confidence,
		RelatedMetrics:   related,
		MetricValues:     values,
		TriggeredBy:      triggeredBy,
		Description:      def.Description,
		MissingMetrics:   missing,
		UncertaintyNotes: notes,
	}, true
}

// evaluateSeverity runs the rule set strictly high → medium → low against the
// full sanitized map; rules may reference metrics outside the entry's own
// list. A rule that cannot be evaluated is noted and skipped, the remaining
// levels are still tried.
func (c *Classifier) evaluateSeverity(def Definition, sanitized map[string]any) (Severity, bool, []string) {
	var notes []string

	ordered := []struct {
		severity Severity
		rule     Rule
	}{
		{SeverityHigh, def.Rules.High},
		{SeverityMedium, def.Rules.Medium},
		{SeverityLow, def.Rules.Low},
	}

	for _, level := range ordered {
		if len(level.rule.Any) == 0 {
			continue
		}
		match, err := level.rule.Eval(sanitized)
		if err != nil {
			c.logger.Warn("severity rule evaluation failed",
				zap.String("threat_id", def.ID),
				zap.String("severity", string(level.severity)),
				zap.Error(err),
			)
			notes = append(notes, fmt.Sprintf("Severity evaluation failed: %s", truncate(err.Error(), 50)))
			continue
		}
		if match {
			return level.severity, true, notes
		}
	}
	return "", false, notes
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back the cut off to a rune boundary so a multi-byte rune is never split.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
