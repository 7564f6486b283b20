package governance

import (
	"fmt"
	"time"

	"github.com/outsidedata/governor/internal/risk"
	"github.com/outsidedata/governor/internal/threat"
	"go.uber.org/zap"
)

// Engine evaluates dataset metrics end to end. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	catalog    *threat.Catalog
	classifier *threat.Classifier
	aggregator *risk.Aggregator
	logger     *zap.Logger
}

// NewEngine builds an Engine. A nil catalog selects the default catalog and a
// nil logger disables logging.
func NewEngine(catalog *threat.Catalog, logger *zap.Logger) *Engine {
	if catalog == nil {
		catalog = threat.DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog:    catalog,
		classifier: threat.NewClassifier(catalog, logger),
		aggregator: risk.NewAggregator(logger),
		logger:     logger,
	}
}

// Catalog exposes the engine's threat catalog for inspection endpoints.
func (e *Engine) Catalog() *threat.Catalog {
	return e.catalog
}

// options holds per-evaluation settings.
type options struct {
	mode   OutputMode
	topN   int
	strict bool
	config map[string]any
}

// Option customizes a single Evaluate call.
type Option func(*options)

// WithOutputMode selects the level of detail. Unrecognized modes behave like
// ModeSummary.
func WithOutputMode(mode OutputMode) Option {
	return func(o *options) { o.mode = mode }
}

// WithTopN overrides the number of top threats in the summary.
func WithTopN(n int) Option {
	return func(o *options) {
		o.topN = n
		o.config["top_threats_count"] = n
	}
}

// WithStrictMode disables the outer panic guard so faults surface during
// development and testing. Never enable it in production paths.
func WithStrictMode() Option {
	return func(o *options) { o.strict = true }
}

// Evaluate assesses governance risks for a dataset's metrics. It always
// returns a usable Result and never panics: empty input, classification
// faults, and aggregation faults each degrade to an "unknown" or minimal
// summary with uncertainty notes. Callers branch on HasUncertainty and the
// overall risk level, not on errors.
func (e *Engine) Evaluate(metrics map[string]any, opts ...Option) (result *Result) {
	o := options{mode: ModeSummary, topN: risk.DefaultTopN, config: map[string]any{}}
	for _, opt := range opts {
		opt(&o)
	}

	meta := Metadata{
		EngineVersion: EngineVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		OutputMode:    o.mode,
		Config:        o.config,
	}

	defer func() {
		if r := recover(); r != nil {
			if o.strict {
				panic(r)
			}
			e.logger.Error("unexpected evaluation fault", zap.Any("panic", r))
			result = e.catastrophicResult(r, meta)
		}
	}()

	if len(metrics) == 0 {
		e.logger.Warn("evaluate called with no metrics")
		return &Result{
			DatasetRiskSummary: risk.BlankSummary(
				risk.LevelUnknown,
				[]string{"No metrics available for evaluation"},
				"Cannot evaluate: no metrics provided",
			),
			HasUncertainty:   true,
			UncertaintyNotes: []string{"No metrics provided or invalid input format"},
			Metadata:         meta,
			Disclaimers:      Disclaimers(),
		}
	}

	notes := []string{}
	uncertain := false

	signals, err := e.classify(metrics)
	if err != nil {
		uncertain = true
		notes = append(notes, fmt.Sprintf("Threat classification failed: %v", err))
		e.logger.Error("threat classification failed", zap.Error(err))
		signals = nil
	}

	var summary risk.Summary
	if len(signals) == 0 {
		if err == nil {
			uncertain = true
			notes = append(notes, "No threats detected - metrics may be incomplete")
		}
		summary = risk.BlankSummary(risk.LevelLow, []string{}, "No threats detected in provided metrics")
	} else {
		summary, err = e.aggregate(signals, o.topN)
		if err != nil {
			uncertain = true
			notes = append(notes, fmt.Sprintf("Threat aggregation failed: %v", err))
			e.logger.Error("threat aggregation failed", zap.Error(err))

			summary = risk.BlankSummary(
				risk.LevelUnknown,
				[]string{"Aggregation failed - see uncertainty notes"},
				"Risk assessment incomplete due to processing error",
			)
			summary.TotalThreats = len(signals)
		}
	}

	// Roll per-signal uncertainty up into the result.
	for _, s := range signals {
		if s.MissingMetrics > 0 {
			uncertain = true
			notes = append(notes, fmt.Sprintf("Threat '%s' has %d missing metrics", s.ThreatName, s.MissingMetrics))
		}
		if len(s.UncertaintyNotes) > 0 {
			uncertain = true
			notes = append(notes, s.UncertaintyNotes...)
		}
	}

	var included []threat.Signal
	if (o.mode == ModeDetailed || o.mode == ModeFull) && len(signals) > 0 {
		included = signals
	}

	return &Result{
		DatasetRiskSummary: summary,
		Threats:            included,
		HasUncertainty:     uncertain,
		UncertaintyNotes:   notes,
		Metadata:           meta,
		Disclaimers:        Disclaimers(),
	}
}

// classify runs the classifier under a recover guard so a faulting catalog
// entry degrades to an uncertainty note instead of aborting evaluation.
func (e *Engine) classify(metrics map[string]any) (signals []threat.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signals = nil
			err = fmt.Errorf("%v", r)
		}
	}()
	return e.classifier.Classify(metrics), nil
}

func (e *Engine) aggregate(signals []threat.Signal, topN int) (summary risk.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return e.aggregator.Aggregate(signals, topN), nil
}

// catastrophicResult is the minimal safe result produced by the outermost
// guard.
func (e *Engine) catastrophicResult(cause any, meta Metadata) *Result {
	summary := risk.BlankSummary(
		risk.LevelUnknown,
		[]string{"Critical error during evaluation"},
		fmt.Sprintf("Evaluation failed: %v", cause),
	)
	return &Result{
		DatasetRiskSummary: summary,
		HasUncertainty:     true,
		UncertaintyNotes:   []string{fmt.Sprintf("Critical evaluation error: %v", cause)},
		Metadata:           meta,
		Disclaimers:        Disclaimers(),
	}
}
