package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caseflow/compliance/compliance"
)

var testNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type serverFixture struct {
	server *Server
	cases  *compliance.InMemoryCaseStore
	rules  *compliance.InMemoryRuleStore
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	cases := compliance.NewInMemoryCaseStore()
	rules := compliance.NewInMemoryRuleStore()
	checks := compliance.NewInMemoryCheckStore()

	for _, rule := range compliance.DefaultCatalog() {
		if err := rules.Add(rule); err != nil {
			t.Fatalf("failed to seed rule: %v", err)
		}
	}

	engine := compliance.NewEngine(cases, compliance.NewInMemoryCertificateStore(),
		rules, checks, compliance.NewInMemoryActionStore(),
		compliance.WithClock(func() time.Time { return testNow }))

	return &serverFixture{
		server: newServerWithStores(engine, rules, checks),
		cases:  cases,
		rules:  rules,
	}
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

// TestHealthEndpoint verifies the health check reports healthy without a
// database attached.
func TestHealthEndpoint(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}

// TestEvaluateCaseEndpoint verifies a full evaluation round trip over HTTP.
func TestEvaluateCaseEndpoint(t *testing.T) {
	f := newServerFixture(t)
	f.cases.Put(&compliance.WorkerCase{
		ID:            "case-100",
		WorkerName:    "Riley Chen",
		CompanyName:   "Dockside Freight",
		DateOfInjury:  testNow.AddDate(0, 0, -21),
		CurrentStatus: "At work - full duties",
		WorkStatus:    compliance.WorkStatusAtWork,
		UpdatedAt:     testNow.AddDate(0, 0, -3),
	})

	rec := f.do(t, http.MethodPost, "/api/v1/cases/case-100/evaluate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	report, ok := body["report"].(map[string]any)
	if !ok {
		t.Fatalf("response should carry a report, got %v", body)
	}
	if report["overallStatus"] != "compliant" {
		t.Errorf("overallStatus = %v, want compliant", report["overallStatus"])
	}
	if score, ok := report["complianceScore"].(float64); !ok || score != 100 {
		t.Errorf("complianceScore = %v, want 100", report["complianceScore"])
	}
	if checks, ok := report["checks"].([]any); !ok || len(checks) != 7 {
		t.Errorf("checks = %v, want 7 entries", report["checks"])
	}
}

// TestEvaluateCaseEndpointNotFound verifies a missing case maps to 404.
func TestEvaluateCaseEndpointNotFound(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/cases/no-such-case/evaluate", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestLatestComplianceEndpoint verifies the read path serves the newest audit
// row per rule after an evaluation.
func TestLatestComplianceEndpoint(t *testing.T) {
	f := newServerFixture(t)
	f.cases.Put(&compliance.WorkerCase{
		ID:            "case-100",
		WorkerName:    "Riley Chen",
		CompanyName:   "Dockside Freight",
		DateOfInjury:  testNow.AddDate(0, 0, -21),
		CurrentStatus: "At work - full duties",
		WorkStatus:    compliance.WorkStatusAtWork,
		UpdatedAt:     testNow.AddDate(0, 0, -3),
	})

	if rec := f.do(t, http.MethodGet, "/api/v1/cases/case-100/compliance", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status before any evaluation = %d, want 404", rec.Code)
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/cases/case-100/evaluate", nil); rec.Code != http.StatusOK {
		t.Fatalf("evaluation failed with status %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/cases/case-100/compliance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	checks, ok := body["checks"].([]any)
	if !ok || len(checks) != 7 {
		t.Fatalf("checks = %v, want 7 entries", body["checks"])
	}
	first, ok := checks[0].(map[string]any)
	if !ok || first["finding"] == "" {
		t.Errorf("check view should carry a finding, got %v", checks[0])
	}
}

// TestRuleCRUDEndpoints verifies catalog management over HTTP, including
// validation failures and cache invalidation on mutation.
func TestRuleCRUDEndpoints(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/rules/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); len(body["rules"].([]any)) != 7 {
		t.Fatalf("seeded catalog should list 7 rules")
	}

	newRule := map[string]any{
		"ruleCode":          "NEW_RULE",
		"name":              "A new rule",
		"severity":          "low",
		"recommendedAction": "Do the thing",
		"active":            true,
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/rules/", newRule); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	bad := map[string]any{"ruleCode": "lowercase", "name": "Bad", "severity": "low"}
	if rec := f.do(t, http.MethodPost, "/api/v1/rules/", bad); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid rule create status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/rules/NEW_RULE", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["name"] != "A new rule" {
		t.Errorf("name = %v", body["name"])
	}

	updated := map[string]any{
		"name":     "A renamed rule",
		"severity": "medium",
		"active":   true,
	}
	if rec := f.do(t, http.MethodPut, "/api/v1/rules/NEW_RULE", updated); rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodDelete, "/api/v1/rules/NEW_RULE", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/rules/NEW_RULE", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

// TestRuleMutationInvalidatesEngine verifies a catalog change is visible to
// the next evaluation.
func TestRuleMutationInvalidatesEngine(t *testing.T) {
	f := newServerFixture(t)
	f.cases.Put(&compliance.WorkerCase{
		ID:            "case-100",
		WorkerName:    "Riley Chen",
		CompanyName:   "Dockside Freight",
		DateOfInjury:  testNow.AddDate(0, 0, -21),
		CurrentStatus: "At work - full duties",
		WorkStatus:    compliance.WorkStatusAtWork,
		UpdatedAt:     testNow.AddDate(0, 0, -3),
	})

	rec := f.do(t, http.MethodPost, "/api/v1/cases/case-100/evaluate", nil)
	report := decodeBody(t, rec)["report"].(map[string]any)
	if len(report["checks"].([]any)) != 7 {
		t.Fatalf("expected 7 checks before the mutation")
	}

	if rec := f.do(t, http.MethodDelete, "/api/v1/rules/"+compliance.RuleCertCurrent, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/cases/case-100/evaluate", nil)
	report = decodeBody(t, rec)["report"].(map[string]any)
	if got := len(report["checks"].([]any)); got != 6 {
		t.Errorf("checks after deletion = %d, want 6", got)
	}
}
