package models

// AnalyticsEvent is a single immutable tracking event. Events are only ever
// appended to the event log and bulk-cleared, never edited one by one.
// Timestamp is kept as the RFC3339 string it was recorded with; the
// aggregator parses it when a date filter is applied.
type AnalyticsEvent struct {
	EventID     string `json:"id"`
	EventType   string `json:"type"`
	Timestamp   string `json:"timestamp"`
	VisitorID   string `json:"visitor_id"`
	SessionID   string `json:"session_id"`
	URL         string `json:"url"`
	LpID        string `json:"lp_id,omitempty"`
	UtmSource   string `json:"utm_source,omitempty"`
	UtmMedium   string `json:"utm_medium,omitempty"`
	UtmCampaign string `json:"utm_campaign,omitempty"`
	UtmTerm     string `json:"utm_term,omitempty"`
	UtmContent  string `json:"utm_content,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`

	// Extra carries type-specific payload fields (button label, form name,
	// order id on conversions, ...).
	Extra map[string]any `json:"extra,omitempty"`
}

// Event types accepted by the tracking endpoint.
const (
	EventPageView     = "page_view"
	EventCtaClick     = "cta_click"
	EventFormStart    = "form_start"
	EventFormSubmit   = "form_submit"
	EventConversion   = "conversion"
	EventSignupOpen   = "signup_open"
	EventSignupSubmit = "signup_submit"
)

// SourceStat is the per-utm_source breakdown row of a metrics summary.
type SourceStat struct {
	Source      string  `json:"source"`
	Visitors    int     `json:"visitors"`
	Sessions    int     `json:"sessions"`
	PageViews   int     `json:"page_views"`
	Conversions int     `json:"conversions"`
	ConvRate    float64 `json:"conv_rate"`
}

// MetricsSummary is a derived projection over the event log for one filter.
// It is computed on demand and never persisted.
type MetricsSummary struct {
	Visitors         int          `json:"visitors"`
	Sessions         int          `json:"sessions"`
	PageViews        int          `json:"pageViews"`
	Clicks           int          `json:"clicks"`
	Submits          int          `json:"submits"`
	Conversions      int          `json:"conversions"`
	CTR              float64      `json:"ctr"`
	ConvRateSessions float64      `json:"convRateSessions"`
	ConvRateVisitors float64      `json:"convRateVisitors"`
	BounceRate       float64      `json:"bounceRate"`
	Sources          []SourceStat `json:"sources"`
}

// TrackRequest is the POST /api/track payload sent by published pages.
type TrackRequest struct {
	Type      string         `json:"type" binding:"required"`
	URL       string         `json:"url"`
	LpID      string         `json:"lp_id"`
	VisitorID string         `json:"visitor_id"`
	SessionID string         `json:"session_id"`
	Referrer  string         `json:"referrer"`
	Extra     map[string]any `json:"extra"`
}
