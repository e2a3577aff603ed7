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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all report service routes with the router.
//
// Description:
//
//	Registers all /v1/* endpoints with the given Gin router group. The
//	router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Report Endpoints:
//
//	POST /v1/reports - Generate a feasibility report (metered)
//	GET  /v1/reports - List saved report summaries
//	GET  /v1/reports/:id - Fetch a saved report
//
// Engine Endpoints:
//
//	POST /v1/evaluate - Evaluate a layout snapshot
//	POST /v1/actions/classify - Classify caller-supplied facts
//	GET  /v1/parcels/lookup - Raw property record lookup
//	GET  /v1/placement/live - WebSocket live placement feedback
//
// Account Endpoints:
//
//	GET  /v1/credits - Account balance and recent ledger entries
//	POST /v1/credits/topup - Add credits to an account
//
// Health Endpoints:
//
//	GET  /v1/health - Health check
//
// Example:
//
//	svc, _ := report.NewService(cfg)
//	handlers := report.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	report.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	reports := rg.Group("/reports")
	{
		reports.POST("", handlers.HandleCreateReport)
		reports.GET("", handlers.HandleListReports)
		reports.GET("/:id", handlers.HandleGetReport)
	}

	// Engine passthroughs
	rg.POST("/evaluate", handlers.HandleEvaluate)
	rg.POST("/actions/classify", handlers.HandleClassify)
	rg.GET("/parcels/lookup", handlers.HandleLookup)
	rg.GET("/placement/live", handlers.HandleLivePlacement)

	credits := rg.Group("/credits")
	{
		credits.GET("", handlers.HandleCredits)
		credits.POST("/topup", handlers.HandleTopup)
	}

	rg.GET("/health", handlers.HandleHealth)
}
