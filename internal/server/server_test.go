package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/iwvelando/rent-vs-buy/internal/engine"
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/internal/share"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/testutil"
	"go.uber.org/zap"
)

const testShareBase = "https://calc.example.com/"

func newTestHandler() http.Handler {
	return NewHandler(zap.NewNop(), constants.DefaultMaxBodyBytes, "test", testShareBase)
}

func TestHandleEvaluateDefaults(t *testing.T) {
	rr := performJSON(t, newTestHandler(), map[string]interface{}{}, "/api/evaluate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := engine.Evaluate(scenario.Default())
	if resp.Scenario != scenario.Default() {
		t.Fatalf("expected default scenario, got %+v", resp.Scenario)
	}
	if resp.Results.Totals != want.Totals {
		t.Fatalf("totals mismatch: got %+v, want %+v", resp.Results.Totals, want.Totals)
	}
	if resp.Token == "" {
		t.Fatal("expected share token in response")
	}
	if !strings.HasPrefix(resp.URL, testShareBase+"#") {
		t.Fatalf("expected share URL on %s, got %q", testShareBase, resp.URL)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleEvaluatePartialScenarioAndInputs(t *testing.T) {
	payload := map[string]interface{}{
		"preset": "HHT",
		"qty":    25,
		"term":   24,
		"inputs": map[string]string{
			"purchasePrice": "1.234,56",
			"annualRate":    "0,12",
		},
	}
	rr := performJSON(t, newTestHandler(), payload, "/api/evaluate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	hht, _ := scenario.LookupPreset("HHT")
	s := resp.Scenario
	if s.EquipmentKey != "HHT" || s.RealCost != hht.RealCost {
		t.Fatalf("expected HHT preset applied, got %+v", s)
	}
	if s.Quantity != 25 || s.TermMonths != 24 {
		t.Fatalf("expected qty 25 and term 24, got %d/%d", s.Quantity, s.TermMonths)
	}
	if s.PurchasePrice != 1234.56 {
		t.Fatalf("expected free-text price 1234.56, got %v", s.PurchasePrice)
	}
	if resp.Results.Rent.PaybackMonths != scenario.DefaultPayback(24) {
		t.Fatalf("expected canonical payback for 24 months, got %d", resp.Results.Rent.PaybackMonths)
	}
}

func TestHandleEvaluateEquipKeySelectsPreset(t *testing.T) {
	payload := map[string]interface{}{"equipKey": "HHT", "realCost": 700}
	rr := performJSON(t, newTestHandler(), payload, "/api/evaluate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	hht, _ := scenario.LookupPreset("HHT")
	s := resp.Scenario
	if s.EquipmentKey != "HHT" || s.PurchasePrice != hht.PurchasePrice || s.ResidualPct != hht.ResidualPct {
		t.Fatalf("expected HHT preset figures, got %+v", s)
	}
	if s.RealCost != 700 {
		t.Fatalf("expected explicit realCost 700 to win over the preset, got %v", s.RealCost)
	}
}

func TestHandleEvaluateWarnings(t *testing.T) {
	payload := map[string]interface{}{"purchasePrice": 500, "realCost": 800, "qty": 50000}
	rr := performJSON(t, newTestHandler(), payload, "/api/evaluate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Warnings []string `json:"warnings"`
		Results  struct {
			Advantage      *engine.Advantage `json:"advantage"`
			PriceBelowCost bool              `json:"priceBelowCost"`
		} `json:"results"`
		Scenario scenario.Scenario `json:"scenario"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Results.Advantage != nil || !resp.Results.PriceBelowCost {
		t.Fatal("expected advantage to be not applicable")
	}
	if resp.Scenario.Quantity != constants.MaxQuantity {
		t.Fatalf("expected clamped quantity, got %d", resp.Scenario.Quantity)
	}
	if len(resp.Warnings) != 2 {
		t.Fatalf("expected clamp and price warnings, got %v", resp.Warnings)
	}
}

func TestHandleEvaluateBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "Invalid JSON", body: "{not json"},
		{name: "Unsupported term", body: `{"term": 30}`},
		{name: "Unknown preset", body: `{"preset": "XYZ"}`},
		{name: "Unknown equipment key", body: `{"equipKey": "XYZ"}`},
		{name: "Invalid currency", body: `{"currency": "EURO"}`},
		{name: "Unknown input field", body: `{"inputs": {"colour": "red"}}`},
		{name: "Fractional quantity", body: `{"qty": 2.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			newTestHandler().ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] == "" || resp["error_kind"] != ErrorKindInvalidInput {
				t.Fatalf("unexpected error payload %v", resp)
			}
		})
	}
}

func TestHandleEvaluateMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/evaluate", nil)
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleEvaluateBodyTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 32, "test", "")
	body := `{"currency": "EUR", "equipKey": "PDT", "qty": 10, "term": 36}`

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleEvaluateHugeAmounts(t *testing.T) {
	payload := map[string]interface{}{
		"purchasePrice": 1.7e308,
		"realCost":      1e308,
		"qty":           10000,
	}
	rr := performJSON(t, newTestHandler(), payload, "/api/evaluate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	if resp.Scenario.PurchasePrice != constants.MaxAmount || resp.Scenario.RealCost != constants.MaxAmount {
		t.Errorf("expected amounts capped at %v, got %v/%v", constants.MaxAmount, resp.Scenario.PurchasePrice, resp.Scenario.RealCost)
	}
	if resp.Results.Advantage != nil {
		t.Errorf("expected advantage to be not applicable, got %+v", resp.Results.Advantage)
	}
	exceeds := 0
	for _, w := range resp.Warnings {
		if strings.Contains(w, "exceeds the maximum") {
			exceeds++
		}
	}
	if exceeds != 2 {
		t.Errorf("expected 2 ceiling warnings, got %d: %v", exceeds, resp.Warnings)
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()

	h.writeJSON(rr, http.StatusOK, map[string]float64{"total": math.Inf(1)})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rr.Body.String(), err)
	}
	if resp["error_kind"] != ErrorKindInternal {
		t.Errorf("expected error_kind %q, got %q", ErrorKindInternal, resp["error_kind"])
	}
}

func TestHandleShareRoundTrip(t *testing.T) {
	handler := newTestHandler()
	payload := map[string]interface{}{"preset": "TAB", "qty": 7, "annualRate": 0.1 + 0.2}

	rr := performJSON(t, handler, payload, "/api/share")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var shared shareResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &shared); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if shared.Token == "" || shared.URL != testShareBase+"#"+shared.Token {
		t.Fatalf("unexpected share response %+v", shared)
	}

	for _, param := range []string{shared.Token, shared.URL} {
		req := httptest.NewRequest(http.MethodGet, "/api/share?token="+url.QueryEscape(param), nil)
		getRR := httptest.NewRecorder()
		handler.ServeHTTP(getRR, req)

		if getRR.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", getRR.Code, getRR.Body.String())
		}
		var resp evaluateResponse
		if err := json.Unmarshal(getRR.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Scenario.EquipmentKey != "TAB" || resp.Scenario.Quantity != 7 || resp.Scenario.AnnualRate != 0.1+0.2 {
			t.Fatalf("restored scenario mismatch: %+v", resp.Scenario)
		}
		if resp.Token != shared.Token {
			t.Fatalf("re-encoded token differs: %q vs %q", resp.Token, shared.Token)
		}
	}
}

func TestHandleShareDecodeErrors(t *testing.T) {
	legacyBadTerm := base64.StdEncoding.EncodeToString([]byte(`{"term": 30}`))

	tests := []struct {
		name     string
		query    string
		wantKind string
	}{
		{name: "Missing token", query: "", wantKind: ErrorKindNoToken},
		{name: "Lone hash", query: "?token=%23", wantKind: ErrorKindNoToken},
		{name: "Garbage token", query: "?token=%40%40garbage", wantKind: ErrorKindMalformedToken},
		{name: "Unsupported version", query: "?token=v9.abc", wantKind: ErrorKindMalformedToken},
		{name: "Unsupported term", query: "?token=" + url.QueryEscape(legacyBadTerm), wantKind: ErrorKindMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/share"+tt.query, nil)
			rr := httptest.NewRecorder()
			newTestHandler().ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error_kind"] != tt.wantKind {
				t.Fatalf("expected error_kind %q, got %v", tt.wantKind, resp)
			}
		})
	}
}

func TestHandleShareLegacyToken(t *testing.T) {
	legacy := base64.StdEncoding.EncodeToString([]byte(`{"equipKey":"PRN","qty":3,"term":48}`))
	token, err := share.Encode(scenario.Default())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if legacy == token {
		t.Fatal("legacy and current tokens must differ")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/share?token="+url.QueryEscape(legacy), nil)
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Scenario.EquipmentKey != "PRN" || resp.Scenario.Quantity != 3 || resp.Scenario.TermMonths != 48 {
		t.Fatalf("legacy scenario mismatch: %+v", resp.Scenario)
	}
	if !strings.HasPrefix(resp.Token, "v1.") {
		t.Fatalf("expected the response to carry a current token, got %q", resp.Token)
	}
}

func TestHandleCompareTerms(t *testing.T) {
	rr := performJSON(t, newTestHandler(), map[string]interface{}{"preset": "PRN"}, "/api/compare-terms")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp compareTermsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Terms) != len(scenario.SupportedTerms()) {
		t.Fatalf("expected %d terms, got %d", len(scenario.SupportedTerms()), len(resp.Terms))
	}
	for i, term := range scenario.SupportedTerms() {
		if resp.Terms[i].TermMonths != term {
			t.Fatalf("term %d: expected %d months, got %d", i, term, resp.Terms[i].TermMonths)
		}
	}
	if tc := testutil.FindTerm(resp.Terms, 36); tc == nil || tc.PaybackMonths != scenario.DefaultPayback(36) {
		t.Fatalf("expected 36 month term with default payback, got %+v", tc)
	}
}

func TestHandlePresets(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/presets", nil)
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp presetsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Presets) != len(scenario.PresetKeys()) {
		t.Fatalf("expected %d presets, got %d", len(scenario.PresetKeys()), len(resp.Presets))
	}
	if resp.PaybackTable["36"] != 20 {
		t.Fatalf("expected payback 20 for 36 months, got %v", resp.PaybackTable)
	}
	if resp.Default != scenario.Default() {
		t.Fatalf("unexpected default scenario %+v", resp.Default)
	}
}

func TestHandleVersion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	NewHandler(nil, 0, "  ", "").ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected version dev, got %q", resp["version"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler()
	performJSON(t, handler, map[string]interface{}{}, "/api/evaluate")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	for _, name := range []string{"rentvsbuy_requests_total", "rentvsbuy_evaluations_total"} {
		if !strings.Contains(rr.Body.String(), name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}
}

func performJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
