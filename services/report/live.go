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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/ParcelFOSS/services/report/observability"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// LiveRequest is one client message on the live placement socket.
//
// Actions:
//
//	"load" - Prime the session from a saved report (ReportID).
//	"configure" - Prime the session from an inline site (ZoneCode, Lot, Site).
//	"snapshot" - Evaluate the current drag position (Candidates).
type LiveRequest struct {
	Action     string                        `json:"action"`
	ReportID   string                        `json:"reportId,omitempty"`
	ZoneCode   string                        `json:"zoneCode,omitempty"`
	Lot        siteplan.LotDimensions        `json:"lot,omitempty"`
	Site       *siteplan.SiteModel           `json:"site,omitempty"`
	Candidates []siteplan.CandidateStructure `json:"candidates,omitempty"`
}

// LiveResponse is one server message on the live placement socket.
type LiveResponse struct {
	Action    string                       `json:"action"`
	SessionID string                       `json:"sessionId,omitempty"`
	ReportID  string                       `json:"reportId,omitempty"`
	Zone      string                       `json:"zone,omitempty"`
	Comments  []siteplan.Comment           `json:"comments,omitempty"`
	Permits   []siteplan.PermitRequirement `json:"permits,omitempty"`
	Blocking  bool                         `json:"blocking"`
	Error     string                       `json:"error,omitempty"`
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleLivePlacement handles GET /v1/placement/live.
//
// Description:
//
//	Upgrades to a WebSocket and evaluates layout snapshots as the
//	client drags structures around the canvas. The session is primed
//	once, either from a saved report ("load") or an inline site
//	("configure"), after which each "snapshot" message carries only
//	the candidate positions and gets back the comment set and permit
//	list for that frame.
func (h *Handlers) HandleLivePlacement(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	if m := observability.DefaultMetrics; m != nil {
		m.LiveSessionStarted()
		defer m.LiveSessionEnded()
	}

	sessionID := uuid.NewString()
	logger := slog.With("session_id", sessionID, "handler", "HandleLivePlacement")
	logger.Info("Live placement session started")

	if err := sendJSON(ws, LiveResponse{Action: "session_created", SessionID: sessionID}); err != nil {
		return
	}

	// Session state, primed by "load" or "configure".
	var (
		rules  = siteplan.DefaultPlacementRules()
		site   *siteplan.SiteModel
		lot    siteplan.LotDimensions
		primed bool
	)

	for {
		var req LiveRequest
		if err := ws.ReadJSON(&req); err != nil {
			logger.Info("Live placement session closed", "error", err.Error())
			break
		}
		ctx := c.Request.Context()

		switch req.Action {
		case "load":
			rep, err := h.svc.GetReport(ctx, req.ReportID)
			if err != nil {
				logger.Warn("Live load failed", "report_id", req.ReportID, "error", err)
				if sendJSON(ws, LiveResponse{Action: "error", Error: err.Error()}) != nil {
					return
				}
				continue
			}
			if zoneRules, ok := h.svc.rules.Current().Placement(rep.Zoning.ZoneCode); ok {
				rules = zoneRules
			}
			site = rep.Site
			lot = rep.Lot
			primed = true
			if sendJSON(ws, LiveResponse{Action: "report_loaded", ReportID: rep.RequestID, Zone: rep.Zoning.ZoneCode}) != nil {
				return
			}

		case "configure":
			if req.ZoneCode != "" {
				zoneRules, ok := h.svc.rules.Current().Placement(req.ZoneCode)
				if !ok {
					if sendJSON(ws, LiveResponse{Action: "error", Error: "unknown zone " + req.ZoneCode}) != nil {
						return
					}
					continue
				}
				rules = zoneRules
			}
			params := siteplan.SiteModelParams{}
			if req.Site != nil {
				params = siteplan.SiteModelParams{
					Features:      req.Site.Features,
					Easements:     req.Site.Easements,
					FloodZone:     req.Site.FloodZone,
					FloodZoneCode: req.Site.FloodZoneCode,
					SlopePercent:  req.Site.SlopePercent,
					Utilities:     req.Site.Utilities,
				}
			}
			built, err := siteplan.NewSiteModel(params)
			if err != nil {
				logger.Warn("Live configure rejected", "error", err)
				if sendJSON(ws, LiveResponse{Action: "error", Error: err.Error()}) != nil {
					return
				}
				continue
			}
			site = built
			lot = req.Lot
			primed = true
			if sendJSON(ws, LiveResponse{Action: "configured", Zone: req.ZoneCode}) != nil {
				return
			}

		case "snapshot":
			if !primed {
				if sendJSON(ws, LiveResponse{Action: "error", Error: "no site configured; send load or configure first"}) != nil {
					return
				}
				continue
			}
			comments := siteplan.EvaluateAll(req.Candidates, site, lot, rules)
			permits := siteplan.DerivePermits(req.Candidates, site, rules)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordLiveSnapshot()
			}
			if sendJSON(ws, LiveResponse{
				Action:   "evaluation",
				Comments: comments,
				Permits:  permits,
				Blocking: anyBlocking(comments),
			}) != nil {
				return
			}

		default:
			if sendJSON(ws, LiveResponse{Action: "error", Error: "unknown action " + req.Action}) != nil {
				return
			}
		}
	}
}

func anyBlocking(comments []siteplan.Comment) bool {
	for _, c := range comments {
		if c.Severity.Blocking() {
			return true
		}
	}
	return false
}
