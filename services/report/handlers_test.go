// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(svc *Service) *gin.Engine {
	router := gin.New()
	handlers := NewHandlers(svc)
	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router
}

func TestHandlers_HandleHealth(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}
	if resp.Version != ServiceVersion {
		t.Errorf("expected version %q, got %q", ServiceVersion, resp.Version)
	}
	if resp.Zones == 0 {
		t.Error("expected zones in the default rulebook")
	}
}

func TestHandlers_HandleCreateReport_Success(t *testing.T) {
	svc, led, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)
	mustTopup(t, led, "acct-1", 10)

	body := `{"address": {"line": "123 Main St"}, "account": "acct-1"}`
	req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}

	var rep Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if rep.RequestID == "" {
		t.Error("expected a request id")
	}
	if len(rep.Actions) == 0 {
		t.Error("expected classified actions")
	}
	if rep.CreditsCharged != 1 {
		t.Errorf("CreditsCharged = %d, want 1", rep.CreditsCharged)
	}
}

func TestHandlers_HandleCreateReport_RequestIDEcho(t *testing.T) {
	svc, led, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)
	mustTopup(t, led, "acct-1", 10)

	body := `{"address": {"line": "123 Main St"}, "account": "acct-1"}`
	req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "client-supplied-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("X-Request-ID = %q, want client-supplied-id", got)
	}
}

func TestHandlers_HandleCreateReport_InvalidRequest(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "empty body",
			body:       "{}",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "blank address line",
			body:       `{"address": {"line": "   "}, "account": "acct-1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing account",
			body:       `{"address": {"line": "123 Main St"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "malformed json",
			body:       `{"address": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var errResp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, errResp.Code)
			}
		})
	}
}

func TestHandlers_HandleCreateReport_InsufficientCredits(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)

	body := `{"address": {"line": "123 Main St"}, "account": "broke"}`
	req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status %d, got %d", http.StatusPaymentRequired, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "INSUFFICIENT_CREDITS" {
		t.Errorf("expected code 'INSUFFICIENT_CREDITS', got %q", errResp.Code)
	}
}

func TestHandlers_HandleCreateReport_AddressNotFound(t *testing.T) {
	svc, led, _ := newTestService(t, stubSource{err: propertydata.ErrAddressNotFound})
	router := setupTestRouter(svc)
	mustTopup(t, led, "acct-1", 5)

	body := `{"address": {"line": "nowhere"}, "account": "acct-1"}`
	req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "ADDRESS_NOT_FOUND" {
		t.Errorf("expected code 'ADDRESS_NOT_FOUND', got %q", errResp.Code)
	}
}

func TestHandlers_HandleGetReport(t *testing.T) {
	svc, led, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)
	mustTopup(t, led, "acct-1", 5)

	body := `{"address": {"line": "123 Main St"}, "account": "acct-1"}`
	req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected status %d, got %d", http.StatusOK, w.Code)
	}
	var created Report
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	req, _ = http.NewRequest("GET", "/v1/reports/"+created.RequestID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, w.Code)
	}
	var got Report
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got.RequestID != created.RequestID {
		t.Errorf("RequestID = %q, want %q", got.RequestID, created.RequestID)
	}
}

func TestHandlers_HandleGetReport_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/reports/3f1c8a2e-9b47-4d6f-8a21-0c5e7d9b4f13", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "REPORT_NOT_FOUND" {
		t.Errorf("expected code 'REPORT_NOT_FOUND', got %q", errResp.Code)
	}
}

func TestHandlers_HandleGetReport_MalformedID(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	// Report ids are UUIDs; anything else is rejected before the store
	// is consulted.
	req, _ := http.NewRequest("GET", "/v1/reports/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "INVALID_REQUEST" {
		t.Errorf("expected code 'INVALID_REQUEST', got %q", errResp.Code)
	}
}

func TestHandlers_HandleListReports(t *testing.T) {
	svc, led, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)
	mustTopup(t, led, "acct-1", 5)

	body := `{"address": {"line": "123 Main St"}, "account": "acct-1"}`
	req, _ := http.NewRequest("POST", "/v1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected status %d, got %d", http.StatusOK, w.Code)
	}

	req, _ = http.NewRequest("GET", "/v1/reports", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("list: expected status %d, got %d", http.StatusOK, w.Code)
	}
	var summaries []ReportSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("summaries = %d, want 1", len(summaries))
	}
}

func TestHandlers_HandleListReports_BadLimit(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/reports?limit=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandlers_HandleEvaluate(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	body := `{
		"zone_code": "R-6",
		"lot": {"width_ft": 80, "depth_ft": 120},
		"candidates": [
			{"id": "adu-1", "type": "adu", "x": 30, "y": 80, "width": 24, "depth": 30, "bedrooms": 1}
		]
	}`
	req, _ := http.NewRequest("POST", "/v1/evaluate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Permits) == 0 {
		t.Error("expected permit requirements for an ADU")
	}
}

func TestHandlers_HandleEvaluate_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no candidates",
			body:       `{"lot": {"width_ft": 80, "depth_ft": 120}, "candidates": []}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "unknown zone",
			body: `{"zone_code": "XX-99", "lot": {"width_ft": 80, "depth_ft": 120},
				"candidates": [{"id": "c1", "type": "shed", "x": 10, "y": 10, "width": 10, "depth": 10}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "UNKNOWN_ZONE",
		},
		{
			name: "malformed zone code",
			body: `{"zone_code": "R@5; drop", "lot": {"width_ft": 80, "depth_ft": 120},
				"candidates": [{"id": "c1", "type": "shed", "x": 10, "y": 10, "width": 10, "depth": 10}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "unknown structure type",
			body: `{"lot": {"width_ft": 80, "depth_ft": 120},
				"candidates": [{"id": "c1", "type": "castle", "x": 10, "y": 10, "width": 10, "depth": 10}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("POST", "/v1/evaluate", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var errResp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, errResp.Code)
			}
		})
	}
}

func TestHandlers_HandleClassify(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	body := `{"zone_code": "R-6", "facts": {"parcel_area_sq_ft": 9600}}`
	req, _ := http.NewRequest("POST", "/v1/actions/classify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp ClassifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Actions) == 0 {
		t.Error("expected classified actions")
	}
}

func TestHandlers_HandleClassify_UnknownZone(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	body := `{"zone_code": "XX-99"}`
	req, _ := http.NewRequest("POST", "/v1/actions/classify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "UNKNOWN_ZONE" {
		t.Errorf("expected code 'UNKNOWN_ZONE', got %q", errResp.Code)
	}
}

func TestHandlers_HandleLookup(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{rec: sampleRecord("R-6")})
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/parcels/lookup?line=123+Main+St&city=Exampleton", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var rec propertydata.PropertyRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if rec.Parcel.ParcelID != "0423059123" {
		t.Errorf("ParcelID = %q, want 0423059123", rec.Parcel.ParcelID)
	}
}

func TestHandlers_HandleLookup_MissingLine(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/parcels/lookup?city=Exampleton", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandlers_HandleCreditsFlow(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	body := `{"account": "acct-1", "credits": 25}`
	req, _ := http.NewRequest("POST", "/v1/credits/topup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("topup: expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var topup CreditsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &topup); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if topup.Balance != 25 {
		t.Errorf("Balance = %d, want 25", topup.Balance)
	}

	req, _ = http.NewRequest("GET", "/v1/credits?account=acct-1&history=5", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("credits: expected status %d, got %d", http.StatusOK, w.Code)
	}
	var credits CreditsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &credits); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if credits.Balance != 25 || len(credits.History) != 1 {
		t.Errorf("credits = %+v, want balance 25 with one entry", credits)
	}
}

func TestHandlers_HandleCredits_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})
	router := setupTestRouter(svc)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"missing account", "GET", "/v1/credits", ""},
		{"bad history", "GET", "/v1/credits?account=a&history=-1", ""},
		{"zero topup", "POST", "/v1/credits/topup", `{"account": "a", "credits": 0}`},
		{"negative topup", "POST", "/v1/credits/topup", `{"account": "a", "credits": -5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req, _ = http.NewRequest(tt.method, tt.target, bytes.NewBufferString(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req, _ = http.NewRequest(tt.method, tt.target, nil)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}
