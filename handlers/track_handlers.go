package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lpstudio/api/models"
	"lpstudio/api/store"
)

// AnalyticsHandlers serves the tracking and metrics endpoints.
type AnalyticsHandlers struct {
	Log      *store.EventLog
	Identity *store.Identity
}

func NewAnalyticsHandlers(eventLog *store.EventLog, identity *store.Identity) *AnalyticsHandlers {
	return &AnalyticsHandlers{Log: eventLog, Identity: identity}
}

// TrackEvent ingests one event from a published page. Pages that already
// carry identity send visitor_id/session_id; otherwise both are derived
// server-side (the session extending or rotating per the 30-minute
// inactivity window).
func (h *AnalyticsHandlers) TrackEvent(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Error binding incoming tracking JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		var err error
		if visitorID, err = h.Identity.VisitorID(); err != nil {
			log.Printf("Error deriving visitor id: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
			return
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		var err error
		if sessionID, err = h.Identity.SessionID(); err != nil {
			log.Printf("Error deriving session id: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
			return
		}
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = c.Request.Referer()
	}
	device := store.Device{
		UserAgent: c.Request.UserAgent(),
		Referrer:  referrer,
		IPAddress: c.ClientIP(),
	}

	ev, err := h.Log.Append(c.Request.Context(), req.Type, req.URL, req.LpID, visitorID, sessionID, device, req.Extra)
	if err != nil {
		log.Printf("Error appending event: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}

	c.JSON(http.StatusCreated, ev)
}

// GetMetricsSummary computes the summary for an optional date range and
// landing page. A missing bound leaves that side unbounded; bounds are
// inclusive.
func (h *AnalyticsHandlers) GetMetricsSummary(c *gin.Context) {
	var filter store.MetricsFilter

	if startParam := c.Query("start"); startParam != "" {
		start, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
			return
		}
		filter.From = &start
	}

	if endParam := c.Query("end"); endParam != "" {
		end, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
			return
		}
		filter.To = &end
	}

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'end' must not be before 'start'"})
		return
	}

	filter.LpID = c.Query("lp_id")

	summary := store.Summarize(h.Log.ReadAll(), filter)
	c.JSON(http.StatusOK, summary)
}

// ClearEvents bulk-clears the event log. Individual events are never
// deleted; this is the only removal path.
func (h *AnalyticsHandlers) ClearEvents(c *gin.Context) {
	if err := h.Log.Clear(); err != nil {
		log.Printf("Error clearing event log: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event log cleared"})
}
