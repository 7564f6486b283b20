package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/outsidedata/governor/internal/governance"
	"github.com/outsidedata/governor/internal/risk"
	"go.uber.org/zap"
)

// maxMetricsBody bounds the evaluate request body.
const maxMetricsBody = 1 << 20

// evaluate handles POST /v1/evaluate. The body is the raw metrics object;
// malformed or non-object bodies evaluate as empty input and still return
// 200 with an "unknown"-risk result. Query parameters: mode
// (summary|detailed|full) and top_n.
func (s *Server) evaluate(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMetricsBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	// The engine handles absent metrics; a body that is not a JSON object
	// degrades to nil rather than failing the request.
	var metrics map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &metrics); err != nil {
			s.logger.Warn("evaluate body is not a JSON object", zap.Error(err))
			metrics = nil
		}
	}

	opts := []governance.Option{}
	switch mode := governance.OutputMode(c.DefaultQuery("mode", "summary")); mode {
	case governance.ModeSummary, governance.ModeDetailed, governance.ModeFull:
		opts = append(opts, governance.WithOutputMode(mode))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be summary, detailed, or full"})
		return
	}
	if raw := c.Query("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_n must be a positive integer"})
			return
		}
		opts = append(opts, governance.WithTopN(n))
	}

	result := s.engine.Evaluate(metrics, opts...)

	level := string(result.DatasetRiskSummary.OverallRiskLevel)
	recordEvaluation(level, result.HasUncertainty)

	if s.auditLog != nil {
		_, err := s.auditLog.Append(c.Request.Context(), level,
			result.DatasetRiskSummary.TotalThreats, result.HasUncertainty, result)
		if err != nil {
			// Audit failures never fail the evaluation.
			s.logger.Error("audit append failed", zap.Error(err))
		} else {
			recordAuditAppend()
		}
	}

	c.JSON(http.StatusOK, result)
}

// threatSummary is the catalog DTO served by the threat routes.
type threatSummary struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	AttackType       string             `json:"attack_type"`
	ImpactedProperty string             `json:"impacted_property"`
	Description      string             `json:"description"`
	RelevantMetrics  []string           `json:"relevant_metrics"`
	Thresholds       map[string]float64 `json:"thresholds"`
}

// listThreats handles GET /v1/threats.
func (s *Server) listThreats(c *gin.Context) {
	defs := s.engine.Catalog().All()
	out := make([]threatSummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, threatSummary{
			ID:               d.ID,
			Name:             d.Name,
			AttackType:       d.AttackType,
			ImpactedProperty: string(d.ImpactedProperty),
			Description:      d.Description,
			RelevantMetrics:  d.Metrics,
			Thresholds:       d.Thresholds,
		})
	}
	c.JSON(http.StatusOK, gin.H{"threats": out})
}

// getThreat handles GET /v1/threats/:id.
func (s *Server) getThreat(c *gin.Context) {
	d, ok := s.engine.Catalog().ByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown threat id"})
		return
	}
	c.JSON(http.StatusOK, threatSummary{
		ID:               d.ID,
		Name:             d.Name,
		AttackType:       d.AttackType,
		ImpactedProperty: string(d.ImpactedProperty),
		Description:      d.Description,
		RelevantMetrics:  d.Metrics,
		Thresholds:       d.Thresholds,
	})
}

// riskLevels handles GET /v1/risk-levels. It documents each level and the
// escalation rules that lead to it, in evaluation order.
func (s *Server) riskLevels(c *gin.Context) {
	rules := risk.ExplainRules()
	levels := make([]gin.H, 0, 3)
	for _, level := range []risk.Level{risk.LevelCritical, risk.LevelWarning, risk.LevelLow} {
		levels = append(levels, gin.H{
			"level":       level,
			"description": risk.LevelDescription(level),
			"rules":       rules[string(level)],
		})
	}
	c.JSON(http.StatusOK, gin.H{"risk_levels": levels})
}
