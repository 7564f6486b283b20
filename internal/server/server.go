// Package server exposes the governance engine over HTTP. Evaluation and
// catalog routes are open; audit routes require an operator JWT obtained by
// exchanging a configured API key.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/outsidedata/governor/internal/audit"
	"github.com/outsidedata/governor/internal/governance"
	"go.uber.org/zap"
)

// Config holds the server's runtime settings.
type Config struct {
	// CORSOrigins lists allowed browser origins; empty disables CORS.
	CORSOrigins []string

	// RateRPS and RateBurst configure per-IP rate limiting. RateRPS ≤ 0
	// disables the limiter.
	RateRPS   int
	RateBurst int

	// APIKeyHash is the bcrypt hash of the operator API key. Empty disables
	// the token endpoint and with it all audit access.
	APIKeyHash string

	// JWTSecret signs operator tokens.
	JWTSecret []byte

	// Issuer is the iss claim on operator tokens.
	Issuer string

	// TokenTTL is the operator token lifetime. Zero selects the default.
	TokenTTL time.Duration
}

// Server wires the engine, audit log, and auth into a gin router.
type Server struct {
	cfg      Config
	engine   *governance.Engine
	auditLog audit.Log
	tokens   *TokenIssuer
	logger   *zap.Logger
}

// New creates a Server. auditLog may be nil to disable audit recording and
// its routes' backing store stays empty.
func New(cfg Config, engine *governance.Engine, auditLog audit.Log, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = governance.NewEngine(nil, logger)
	}
	return &Server{
		cfg:      cfg,
		engine:   engine,
		auditLog: auditLog,
		tokens:   NewTokenIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL),
		logger:   logger,
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(PrometheusMiddleware())

	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if s.cfg.RateRPS > 0 {
		r.Use(RateLimiter(s.cfg.RateRPS, s.cfg.RateBurst))
	}

	r.GET("/healthz", s.health)
	r.GET("/metrics", MetricsHandler())

	v1 := r.Group("/v1")
	{
		v1.POST("/evaluate", s.evaluate)
		v1.GET("/threats", s.listThreats)
		v1.GET("/threats/:id", s.getThreat)
		v1.GET("/risk-levels", s.riskLevels)
		v1.POST("/auth/token", s.issueToken)

		auditGroup := v1.Group("/audit", s.requireOperator)
		{
			auditGroup.GET("", s.auditOverview)
			auditGroup.GET("/verify", s.auditVerify)
			auditGroup.GET("/records/:idx", s.auditRecord)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": governance.EngineVersion,
	})
}
