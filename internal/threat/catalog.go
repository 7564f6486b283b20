package threat

// Stable threat identifiers. External systems persist these; once published
// an ID is never reused for a different meaning.
const (
	MembershipInference      = "membership_inference"
	RecordLinkage            = "record_linkage"
	AttributeInference       = "attribute_inference"
	PrivacyLeakage           = "privacy_leakage"
	SemanticViolation        = "semantic_violation"
	DistributionDrift        = "distribution_drift"
	CorrelationInconsistency = "correlation_inconsistency"
	UtilityDegradation       = "utility_degradation"
)

// SeverityRules holds a threat's ordered rule set. Evaluation order is
// strictly High, Medium, Low; the first matching rule wins.
type SeverityRules struct {
	High   Rule
	Medium Rule
	Low    Rule
}

// Definition is a single immutable catalog entry.
type Definition struct {
	ID               string
	Name             string
	AttackType       string
	ImpactedProperty Property
	Description      string

	// Metrics lists the metric names this threat inspects. A signal is only
	// emitted when at least one of them has a valid value.
	Metrics []string

	Rules SeverityRules

	// Thresholds are the named constants used by confidence scoring and
	// trigger explanation. Severity evaluation uses Rules directly.
	Thresholds map[string]float64

	Confidence ConfidenceSpec
}

// Catalog is the process-wide, read-only threat registry. It is built once by
// DefaultCatalog and never mutated.
type Catalog struct {
	defs []Definition
	byID map[string]int
}

func newCatalog(defs []Definition) *Catalog {
	byID := make(map[string]int, len(defs))
	for i, d := range defs {
		byID[d.ID] = i
	}
	return &Catalog{defs: defs, byID: byID}
}

// All returns the catalog entries in declaration order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// ByID returns the definition for a threat ID.
func (c *Catalog) ByID(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// IDs returns every threat ID in declaration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.defs))
	for i, d := range c.defs {
		ids[i] = d.ID
	}
	return ids
}

// MetricsFor returns the metric names a threat inspects, or nil for an
// unknown ID.
func (c *Catalog) MetricsFor(id string) []string {
	d, ok := c.ByID(id)
	if !ok {
		return nil
	}
	out := make([]string, len(d.Metrics))
	copy(out, d.Metrics)
	return out
}

var defaultCatalog = newCatalog([]Definition{
	{
		ID:               MembershipInference,
		Name:             "Membership Inference Attack",
		AttackType:       "membership_inference",
		ImpactedProperty: PropertyPrivacy,
		Description: "An attacker could determine whether a specific record was part of the " +
			"original training dataset by analyzing synthetic data characteristics.",
		Metrics: []string{"membership_inference_auc", "membership_inference_accuracy"},
		Rules: SeverityRules{
			High:   Rule{Any: []Condition{gt("membership_inference_auc", 0.70)}},
			Medium: Rule{Any: []Condition{gt("membership_inference_auc", 0.60)}},
			Low:    Rule{Any: []Condition{lte("membership_inference_auc", 0.60, 0)}},
		},
		Thresholds: map[string]float64{"high": 0.70, "medium": 0.60, "baseline": 0.50},
		Confidence: ConfidenceSpec{
			Kind:     ConfidenceDistance,
			Metric:   "membership_inference_auc",
			Baseline: 0.50,
			Scale:    2.0,
		},
	},
	{
		ID:               RecordLinkage,
		Name:             "Record Linkage / Re-identification",
		AttackType:       "record_linkage",
		ImpactedProperty: PropertyPrivacy,
		Description: "Near-duplicate records or exact matches could enable linking synthetic " +
			"records back to original individuals, especially when combined with " +
			"external datasets containing quasi-identifiers.",
		Metrics: []string{"near_duplicates_count", "near_duplicates_rate", "min_nn_distance"},
		Rules: SeverityRules{
			High: Rule{Any: []Condition{
				gt("near_duplicates_rate", 0.02),
				gt("near_duplicates_count", 10),
			}},
			Medium: Rule{Any: []Condition{
				gt("near_duplicates_rate", 0.01),
				lt("min_nn_distance", 0.5, infinity),
			}},
			Low: Rule{Any: []Condition{lte("near_duplicates_rate", 0.01, 0)}},
		},
		Thresholds: map[string]float64{
			"high_rate": 0.02, "high_count": 10, "medium_rate": 0.01, "min_distance": 0.5,
		},
		Confidence: ConfidenceSpec{
			Kind:   ConfidenceRate,
			Metric: "near_duplicates_rate",
			Scale:  50.0,
		},
	},
	{
		ID:               AttributeInference,
		Name:             "Attribute Inference Attack",
		AttackType:       "attribute_inference",
		ImpactedProperty: PropertyPrivacy,
		Description: "Strong correlations in synthetic data could allow attackers to infer " +
			"sensitive attributes from known quasi-identifiers with high accuracy.",
		Metrics: []string{"attribute_inference_accuracy", "correlation_frobenius_norm"},
		Rules: SeverityRules{
			High:   Rule{Any: []Condition{gt("attribute_inference_accuracy", 0.85)}},
			Medium: Rule{Any: []Condition{gt("attribute_inference_accuracy", 0.75)}},
			Low:    Rule{Any: []Condition{lte("attribute_inference_accuracy", 0.75, 0)}},
		},
		Thresholds: map[string]float64{"high": 0.85, "medium": 0.75, "baseline": 0.50},
		Confidence: ConfidenceSpec{
			Kind: ConfidenceBySeverity,
			BySeverity: map[Severity]float64{
				SeverityLow: 0.3, SeverityMedium: 0.6, SeverityHigh: 0.9,
			},
		},
	},
	{
		ID:               PrivacyLeakage,
		Name:             "General Privacy Leakage",
		AttackType:       "privacy_leakage",
		ImpactedProperty: PropertyPrivacy,
		Description: "Overall privacy score indicates potential information leakage through " +
			"various channels including record similarity, membership patterns, and " +
			"nearest-neighbor proximity.",
		Metrics: []string{"privacy_score", "leakage_risk_level", "avg_nn_distance"},
		Rules: SeverityRules{
			High:   Rule{Any: []Condition{lt("privacy_score", 0.60, 1.0)}},
			Medium: Rule{Any: []Condition{lt("privacy_score", 0.80, 1.0)}},
			Low:    Rule{Any: []Condition{gte("privacy_score", 0.80, 1.0)}},
		},
		Thresholds: map[string]float64{"high": 0.60, "medium": 0.80, "baseline": 1.0},
		Confidence: ConfidenceSpec{
			Kind:     ConfidenceBelowCeiling,
			Metric:   "privacy_score",
			Baseline: 1.0,
			Scale:    0.4,
		},
	},
	{
		ID:               SemanticViolation,
		Name:             "Semantic Constraint Violation",
		AttackType:       "semantic_violation",
		ImpactedProperty: PropertyConsistency,
		Description: "Violations of domain-specific business rules or cross-field constraints " +
			"indicate synthetic data may not respect real-world invariants, potentially " +
			"revealing generation artifacts or enabling detection.",
		Metrics: []string{"semantic_violations", "field_constraint_violations", "cross_field_violations"},
		Rules: SeverityRules{
			High:   Rule{Any: []Condition{gt("semantic_violations", 100)}},
			Medium: Rule{Any: []Condition{gt("semantic_violations", 10)}},
			Low:    Rule{Any: []Condition{gt("semantic_violations", 0)}},
		},
		Thresholds: map[string]float64{"high": 100, "medium": 10, "baseline": 0},
		Confidence: ConfidenceSpec{
			Kind:   ConfidenceLogCount,
			Metric: "semantic_violations",
			Scale:  3.0,
		},
	},
	{
		ID:               DistributionDrift,
		Name:             "Statistical Distribution Drift",
		AttackType:       "distribution_drift",
		ImpactedProperty: PropertyUtility,
		Description: "Significant divergence in statistical distributions could compromise " +
			"the utility of synthetic data for downstream ML tasks and reduce " +
			"the fidelity of insights derived from it.",
		Metrics: []string{"statistical_drift", "avg_kl_divergence", "avg_wasserstein_distance", "avg_psi"},
		Rules: SeverityRules{
			High: Rule{Any: []Condition{
				drift("high"),
				gt("avg_kl_divergence", 0.5),
			}},
			Medium: Rule{Any: []Condition{
				drift("moderate"),
				gt("avg_kl_divergence", 0.2),
			}},
			Low: Rule{Any: []Condition{drift("low", "none")}},
		},
		Thresholds: map[string]float64{"high_kl": 0.5, "medium_kl": 0.2, "baseline": 0.0},
		Confidence: ConfidenceSpec{
			Kind:   ConfidenceDivergence,
			Metric: "avg_kl_divergence",
			Scale:  1.0,
		},
	},
	{
		ID:               CorrelationInconsistency,
		Name:             "Correlation Structure Inconsistency",
		AttackType:       "correlation_inconsistency",
		ImpactedProperty: PropertyUtility,
		Description: "Divergence in correlation patterns between synthetic and original data " +
			"can compromise model performance and analytical validity, especially " +
			"for multivariate analyses.",
		Metrics: []string{"correlation_frobenius_norm", "feature_importance_correlation"},
		Rules: SeverityRules{
			High:   Rule{Any: []Condition{gt("correlation_frobenius_norm", 2.0)}},
			Medium: Rule{Any: []Condition{gt("correlation_frobenius_norm", 1.0)}},
			Low:    Rule{Any: []Condition{lte("correlation_frobenius_norm", 1.0, 0)}},
		},
		Thresholds: map[string]float64{"high": 2.0, "medium": 1.0, "baseline": 0.0},
		Confidence: ConfidenceSpec{
			Kind: ConfidenceBySeverity,
			BySeverity: map[Severity]float64{
				SeverityLow: 0.3, SeverityMedium: 0.6, SeverityHigh: 0.9,
			},
		},
	},
	{
		ID:               UtilityDegradation,
		Name:             "ML Utility Degradation",
		AttackType:       "utility_degradation",
		ImpactedProperty: PropertyUtility,
		Description: "Reduced utility score indicates that models trained on synthetic data " +
			"significantly underperform compared to models trained on real data, " +
			"limiting the value of the synthetic dataset for ML applications.",
		Metrics: []string{"utility_score", "utility_assessment", "synthetic_model_accuracy", "accuracy_gap"},
		Rules: SeverityRules{
			High:   Rule{Any: []Condition{lt("utility_score", 0.70, 1.0)}},
			Medium: Rule{Any: []Condition{lt("utility_score", 0.85, 1.0)}},
			Low:    Rule{Any: []Condition{gte("utility_score", 0.85, 1.0)}},
		},
		Thresholds: map[string]float64{"high": 0.70, "medium": 0.85, "baseline": 1.0},
		Confidence: ConfidenceSpec{
			Kind: ConfidenceBySeverity,
			BySeverity: map[Severity]float64{
				SeverityLow: 0.3, SeverityMedium: 0.6, SeverityHigh: 0.9,
			},
		},
	},
})

// DefaultCatalog returns the built-in threat catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
