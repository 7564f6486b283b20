package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/outsidedata/governor/internal/audit"
	"github.com/outsidedata/governor/internal/governance"
	"github.com/outsidedata/governor/internal/server"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testAPIKey = "test-operator-key"

func setupRouter(t *testing.T) (*gin.Engine, *audit.MemoryLog) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	log := audit.NewMemoryLog()
	srv := server.New(server.Config{
		APIKeyHash: string(hash),
		JWTSecret:  []byte("test-secret"),
		Issuer:     "http://localhost",
	}, governance.NewEngine(nil, zap.NewNop()), log, zap.NewNop())

	return srv.Router(), log
}

func postJSON(router *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func operatorToken(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := postJSON(router, "/v1/auth/token", `{"api_key":"`+testAPIKey+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("token exchange failed: %d %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp["token"].(string)
}

func TestEvaluate_200(t *testing.T) {
	router, log := setupRouter(t)

	w := postJSON(router, "/v1/evaluate", `{"privacy_score": 0.55, "privacy_risk": {"membership_inference_auc": 0.78}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	summary := resp["dataset_risk_summary"].(map[string]any)
	if summary["overall_risk_level"] != "critical" {
		t.Errorf("expected critical, got %v", summary["overall_risk_level"])
	}

	n, _ := log.Len(context.Background())
	if n != 2 { // genesis + 1
		t.Errorf("expected audit append, log has %d records", n)
	}
}

func TestEvaluate_malformedBodyStays200(t *testing.T) {
	router, _ := setupRouter(t)

	for _, body := range []string{"", "not json", `[1,2,3]`, `"string"`} {
		w := postJSON(router, "/v1/evaluate", body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("body %q: expected 200, got %d", body, w.Code)
		}
		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		summary := resp["dataset_risk_summary"].(map[string]any)
		if summary["overall_risk_level"] != "unknown" {
			t.Errorf("body %q: expected unknown risk, got %v", body, summary["overall_risk_level"])
		}
	}
}

func TestEvaluate_modeAndTopN(t *testing.T) {
	router, _ := setupRouter(t)

	w := postJSON(router, "/v1/evaluate?mode=detailed&top_n=1", `{"privacy_score": 0.55}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["threats"] == nil {
		t.Error("detailed mode must include threats")
	}

	if w := postJSON(router, "/v1/evaluate?mode=bogus", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode: expected 400, got %d", w.Code)
	}
	if w := postJSON(router, "/v1/evaluate?top_n=0", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid top_n: expected 400, got %d", w.Code)
	}
}

func TestThreats_listAndDetail(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/v1/threats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if threats := resp["threats"].([]any); len(threats) != 8 {
		t.Errorf("expected 8 catalog entries, got %d", len(threats))
	}

	if w := get(router, "/v1/threats/membership_inference", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 for known threat, got %d", w.Code)
	}
	if w := get(router, "/v1/threats/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown threat, got %d", w.Code)
	}
}

func TestRiskLevels_200(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/v1/risk-levels", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if levels := resp["risk_levels"].([]any); len(levels) != 3 {
		t.Errorf("expected 3 documented levels, got %d", len(levels))
	}
}

func TestAuthToken_badKey401(t *testing.T) {
	router, _ := setupRouter(t)

	if w := postJSON(router, "/v1/auth/token", `{"api_key":"wrong"}`, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w := postJSON(router, "/v1/auth/token", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing key, got %d", w.Code)
	}
}

func TestAudit_requiresToken(t *testing.T) {
	router, _ := setupRouter(t)

	if w := get(router, "/v1/audit", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := get(router, "/v1/audit", map[string]string{"Authorization": "Bearer garbage"}); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", w.Code)
	}

	token := operatorToken(t, router)
	w := get(router, "/v1/audit", map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["records"].(float64)) != 1 { // genesis
		t.Errorf("expected 1 record, got %v", resp["records"])
	}
}

func TestAuditVerify_afterEvaluations(t *testing.T) {
	router, _ := setupRouter(t)

	postJSON(router, "/v1/evaluate", `{"privacy_score": 0.92}`, nil)
	postJSON(router, "/v1/evaluate", `{"privacy_score": 0.55}`, nil)

	token := operatorToken(t, router)
	w := get(router, "/v1/audit/verify", map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["valid"] != true {
		t.Errorf("expected valid chain, got %v", resp["valid"])
	}

	w = get(router, "/v1/audit/records/1", map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var record map[string]any
	json.Unmarshal(w.Body.Bytes(), &record)
	if record["risk_level"] == "" || record["eval_id"] == "" {
		t.Errorf("record missing fields: %v", record)
	}
}

func TestHealthz_200(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["version"] != governance.EngineVersion {
		t.Errorf("expected version %s, got %v", governance.EngineVersion, resp["version"])
	}
}

func TestRateLimiter_rejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(server.RateLimiter(1, 2))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("requests within burst should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("request beyond burst: got %d, want 429", codes[2])
	}
}
