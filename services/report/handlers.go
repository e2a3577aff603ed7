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
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/ledger"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report/observability"
	"github.com/AleutianAI/ParcelFOSS/services/report/telemetry"
)

// ServiceVersion is the report service version.
const ServiceVersion = "0.1.0"

// defaultListLimit caps GET /v1/reports when the client does not ask
// for a specific page size.
const defaultListLimit = 50

// Handlers contains the HTTP handlers for the report service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleCreateReport handles POST /v1/reports.
//
// Description:
//
//	Generates a full feasibility report for an address: fetches the
//	property record, classifies every catalog action, builds the site
//	model, and derives the permit set. Charges the account one report
//	cost when metering is enabled.
//
// Request Body:
//
//	ReportRequest
//
// Response:
//
//	200 OK: Report
//	400 Bad Request: Validation error
//	402 Payment Required: Account balance below report cost
//	404 Not Found: Address or parcel unknown to the data sources
//	502 Bad Gateway: Upstream property source failure
func (h *Handlers) HandleCreateReport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateReport")

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		recordError(observability.EndpointReport, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Invalid request", "error", err)
		recordError(observability.EndpointReport, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Generating report", "address", req.Address.Line, "account", req.Account)

	rep, err := h.svc.BuildReport(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "REPORT_FAILED"
		metricCode := observability.ErrorCodeInternal

		if errors.Is(err, ledger.ErrInsufficientCredit) {
			statusCode = http.StatusPaymentRequired
			errCode = "INSUFFICIENT_CREDITS"
			metricCode = observability.ErrorCodePayment
		} else if errors.Is(err, ledger.ErrInvalidAccount) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_REQUEST"
			metricCode = observability.ErrorCodeValidation
		} else if errors.Is(err, propertydata.ErrAddressNotFound) {
			statusCode = http.StatusNotFound
			errCode = "ADDRESS_NOT_FOUND"
			metricCode = observability.ErrorCodeNotFound
		} else if errors.Is(err, propertydata.ErrParcelNotFound) {
			statusCode = http.StatusNotFound
			errCode = "PARCEL_NOT_FOUND"
			metricCode = observability.ErrorCodeNotFound
		} else if errors.Is(err, propertydata.ErrUpstream) {
			statusCode = http.StatusBadGateway
			errCode = "UPSTREAM_UNAVAILABLE"
			metricCode = observability.ErrorCodeUpstream
		}

		logger.Error("Report failed", "error", err)
		recordError(observability.EndpointReport, metricCode)
		recordRequest(observability.EndpointReport, false)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Report generated",
		"report_id", rep.RequestID,
		"zone", rep.Zoning.ZoneCode,
		"actions", len(rep.Actions),
		"permits", len(rep.Permits),
		"partial", len(rep.Partial) > 0)

	recordRequest(observability.EndpointReport, true)
	c.JSON(http.StatusOK, rep)
}

// HandleGetReport handles GET /v1/reports/:id.
//
// Response:
//
//	200 OK: Report
//	400 Bad Request: Malformed report id
//	404 Not Found: No saved report with that id
func (h *Handlers) HandleGetReport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetReport")

	id := c.Param("id")
	if err := validation.ValidateReportID(id); err != nil {
		recordError(observability.EndpointReport, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}
	rep, err := h.svc.GetReport(c.Request.Context(), id)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "REPORT_FAILED"
		metricCode := observability.ErrorCodeInternal

		if errors.Is(err, ErrReportNotFound) {
			statusCode = http.StatusNotFound
			errCode = "REPORT_NOT_FOUND"
			metricCode = observability.ErrorCodeNotFound
		}

		logger.Warn("Report fetch failed", "report_id", id, "error", err)
		recordError(observability.EndpointReport, metricCode)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	c.JSON(http.StatusOK, rep)
}

// HandleListReports handles GET /v1/reports.
//
// Description:
//
//	Lists saved report summaries, newest first. The limit query
//	parameter caps the page size and defaults to 50.
//
// Response:
//
//	200 OK: []ReportSummary
//	400 Bad Request: Malformed limit
func (h *Handlers) HandleListReports(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListReports")

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			recordError(observability.EndpointReport, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a positive integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		limit = parsed
	}

	summaries, err := h.svc.ListReports(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Report list failed", "error", err)
		recordError(observability.EndpointReport, observability.ErrorCodeInternal)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}
	if summaries == nil {
		summaries = []ReportSummary{}
	}

	c.JSON(http.StatusOK, summaries)
}

// HandleEvaluate handles POST /v1/evaluate.
//
// Description:
//
//	Evaluates a layout snapshot against the zone's placement rules and
//	derives the permit set for the candidates. Not metered.
//
// Request Body:
//
//	EvaluateRequest
//
// Response:
//
//	200 OK: EvaluateResponse
//	400 Bad Request: Validation error, unknown zone, or rejected site
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleEvaluate")

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		recordError(observability.EndpointEvaluate, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Invalid request", "error", err)
		recordError(observability.EndpointEvaluate, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.svc.EvaluatePlacement(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "EVALUATE_FAILED"
		metricCode := observability.ErrorCodeInternal

		if errors.Is(err, ErrUnknownZone) {
			statusCode = http.StatusBadRequest
			errCode = "UNKNOWN_ZONE"
			metricCode = observability.ErrorCodeValidation
		} else if errors.Is(err, ErrInvalidSite) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_SITE"
			metricCode = observability.ErrorCodeValidation
		} else if errors.Is(err, ErrInvalidRequest) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_REQUEST"
			metricCode = observability.ErrorCodeValidation
		}

		logger.Warn("Evaluate failed", "error", err)
		recordError(observability.EndpointEvaluate, metricCode)
		recordRequest(observability.EndpointEvaluate, false)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Placement evaluated",
		"zone", req.ZoneCode,
		"candidates", len(req.Candidates),
		"comments", len(resp.Comments),
		"permits", len(resp.Permits))

	recordRequest(observability.EndpointEvaluate, true)
	c.JSON(http.StatusOK, resp)
}

// HandleClassify handles POST /v1/actions/classify.
//
// Description:
//
//	Classifies the full action catalog against caller-supplied facts.
//	A zone code, when present, replaces the facts' rule checks with
//	the rulebook's answers for that zone. Not metered.
//
// Request Body:
//
//	ClassifyRequest
//
// Response:
//
//	200 OK: ClassifyResponse
//	400 Bad Request: Validation error or unknown zone
func (h *Handlers) HandleClassify(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleClassify")

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		recordError(observability.EndpointClassify, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.svc.ClassifyFacts(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "CLASSIFY_FAILED"
		metricCode := observability.ErrorCodeInternal

		if errors.Is(err, ErrUnknownZone) {
			statusCode = http.StatusBadRequest
			errCode = "UNKNOWN_ZONE"
			metricCode = observability.ErrorCodeValidation
		} else if errors.Is(err, ErrInvalidRequest) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_REQUEST"
			metricCode = observability.ErrorCodeValidation
		}

		logger.Warn("Classify failed", "error", err)
		recordError(observability.EndpointClassify, metricCode)
		recordRequest(observability.EndpointClassify, false)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	recordRequest(observability.EndpointClassify, true)
	c.JSON(http.StatusOK, resp)
}

// HandleLookup handles GET /v1/parcels/lookup.
//
// Description:
//
//	Returns the raw property record for an address without charging or
//	classifying. Useful for inspecting what the data sources know
//	before paying for a report.
//
// Query Parameters:
//
//	line, city, state, zip - Address components; line is required
//
// Response:
//
//	200 OK: propertydata.PropertyRecord
//	400 Bad Request: Missing address line
//	404 Not Found: Address or parcel unknown to the data sources
//	502 Bad Gateway: Upstream property source failure
func (h *Handlers) HandleLookup(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleLookup")

	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid query", "error", err)
		recordError(observability.EndpointLookup, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "address line is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	line, err := validation.SanitizeAddressLine(req.Line)
	if err != nil {
		logger.Warn("Invalid address line", "error", err)
		recordError(observability.EndpointLookup, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}
	req.Line = line

	rec, err := h.svc.Lookup(c.Request.Context(), req.Address())
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "LOOKUP_FAILED"
		metricCode := observability.ErrorCodeInternal

		if errors.Is(err, propertydata.ErrAddressNotFound) {
			statusCode = http.StatusNotFound
			errCode = "ADDRESS_NOT_FOUND"
			metricCode = observability.ErrorCodeNotFound
		} else if errors.Is(err, propertydata.ErrParcelNotFound) {
			statusCode = http.StatusNotFound
			errCode = "PARCEL_NOT_FOUND"
			metricCode = observability.ErrorCodeNotFound
		} else if errors.Is(err, propertydata.ErrUpstream) {
			statusCode = http.StatusBadGateway
			errCode = "UPSTREAM_UNAVAILABLE"
			metricCode = observability.ErrorCodeUpstream
		}

		logger.Warn("Lookup failed", "line", req.Line, "error", err)
		recordError(observability.EndpointLookup, metricCode)
		recordRequest(observability.EndpointLookup, false)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	recordRequest(observability.EndpointLookup, true)
	c.JSON(http.StatusOK, rec)
}

// HandleCredits handles GET /v1/credits.
//
// Query Parameters:
//
//	account - Account id; required
//	history - Number of recent ledger entries to include; optional
//
// Response:
//
//	200 OK: CreditsResponse
//	400 Bad Request: Missing account or malformed history
func (h *Handlers) HandleCredits(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCredits")

	account, err := validation.SanitizeAccount(c.Query("account"))
	if err != nil {
		recordError(observability.EndpointCredits, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}
	logger = telemetry.LoggerWithAccount(c.Request.Context(), logger, account)

	history := 0
	if raw := c.Query("history"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			recordError(observability.EndpointCredits, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "history must be a non-negative integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		history = parsed
	}

	resp, err := h.svc.Credits(c.Request.Context(), account, history)
	if err != nil {
		logger.Error("Credits lookup failed", "error", err)
		recordError(observability.EndpointCredits, observability.ErrorCodeInternal)
		recordRequest(observability.EndpointCredits, false)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "CREDITS_FAILED",
		})
		return
	}

	recordRequest(observability.EndpointCredits, true)
	c.JSON(http.StatusOK, resp)
}

// HandleTopup handles POST /v1/credits/topup.
//
// Request Body:
//
//	TopupRequest
//
// Response:
//
//	200 OK: CreditsResponse with the new balance
//	400 Bad Request: Validation error
func (h *Handlers) HandleTopup(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleTopup")

	var req TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		recordError(observability.EndpointCredits, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger = telemetry.LoggerWithAccount(c.Request.Context(), logger, req.Account)

	resp, err := h.svc.Topup(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "TOPUP_FAILED"
		metricCode := observability.ErrorCodeInternal

		if errors.Is(err, ledger.ErrInvalidAmount) || errors.Is(err, ledger.ErrInvalidAccount) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_REQUEST"
			metricCode = observability.ErrorCodeValidation
		}

		logger.Error("Topup failed", "error", err)
		recordError(observability.EndpointCredits, metricCode)
		recordRequest(observability.EndpointCredits, false)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Account topped up", "credits", req.Credits, "balance", resp.Balance)

	recordRequest(observability.EndpointCredits, true)
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// getOrCreateRequestID returns the X-Request-ID header, minting one
// when the client did not send it, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

func recordRequest(endpoint observability.Endpoint, success bool) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, success)
	}
}

func recordError(endpoint observability.Endpoint, code observability.ErrorCode) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(endpoint, code)
	}
}
