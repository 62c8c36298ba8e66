package store

import (
	"sort"
	"time"

	"lpstudio/api/models"
)

// DirectSource labels events that carry no utm_source.
const DirectSource = "(direct)"

// MetricsFilter restricts a summary to a date range and/or one landing
// page. A missing bound is unbounded on that side; bounds are inclusive.
type MetricsFilter struct {
	From *time.Time
	To   *time.Time
	LpID string
}

// inRange reports whether the event timestamp falls inside the filter
// bounds. When a bound is set, events with unparseable timestamps are
// excluded rather than guessed at.
func inRange(ev models.AnalyticsEvent, f MetricsFilter) bool {
	if f.From == nil && f.To == nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, ev.Timestamp)
	if err != nil {
		return false
	}
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

// isInteraction reports whether the event type disqualifies a session
// from being counted as a bounce.
func isInteraction(eventType string) bool {
	switch eventType {
	case models.EventCtaClick, models.EventFormStart, models.EventFormSubmit, models.EventConversion:
		return true
	}
	return false
}

// Summarize computes the metrics projection for the filtered event set.
// It is pure: no mutation of the input, no side effects, deterministic
// for a given event set and filter.
func Summarize(events []models.AnalyticsEvent, f MetricsFilter) models.MetricsSummary {
	visitors := map[string]bool{}
	sessions := map[string][]models.AnalyticsEvent{}
	sources := map[string][]models.AnalyticsEvent{}

	var pageViews, clicks, submits, conversions int

	for _, ev := range events {
		if f.LpID != "" && ev.LpID != f.LpID {
			continue
		}
		if !inRange(ev, f) {
			continue
		}

		visitors[ev.VisitorID] = true
		sessions[ev.SessionID] = append(sessions[ev.SessionID], ev)

		src := ev.UtmSource
		if src == "" {
			src = DirectSource
		}
		sources[src] = append(sources[src], ev)

		switch ev.EventType {
		case models.EventPageView:
			pageViews++
		case models.EventCtaClick:
			clicks++
		case models.EventFormSubmit:
			submits++
		case models.EventConversion:
			conversions++
		}
	}

	// A bounce is a session with exactly one page view and no interaction.
	bounces := 0
	for _, evs := range sessions {
		views := 0
		interacted := false
		for _, ev := range evs {
			if ev.EventType == models.EventPageView {
				views++
			}
			if isInteraction(ev.EventType) {
				interacted = true
			}
		}
		if views == 1 && !interacted {
			bounces++
		}
	}

	summary := models.MetricsSummary{
		Visitors:         len(visitors),
		Sessions:         len(sessions),
		PageViews:        pageViews,
		Clicks:           clicks,
		Submits:          submits,
		Conversions:      conversions,
		CTR:              ratio(clicks, pageViews),
		ConvRateSessions: ratio(conversions, len(sessions)),
		ConvRateVisitors: ratio(conversions, len(visitors)),
		BounceRate:       ratio(bounces, len(sessions)),
		Sources:          []models.SourceStat{},
	}

	for src, evs := range sources {
		stat := models.SourceStat{Source: src}
		srcVisitors := map[string]bool{}
		srcSessions := map[string]bool{}
		for _, ev := range evs {
			srcVisitors[ev.VisitorID] = true
			srcSessions[ev.SessionID] = true
			switch ev.EventType {
			case models.EventPageView:
				stat.PageViews++
			case models.EventConversion:
				stat.Conversions++
			}
		}
		stat.Visitors = len(srcVisitors)
		stat.Sessions = len(srcSessions)
		stat.ConvRate = ratio(stat.Conversions, stat.PageViews)
		summary.Sources = append(summary.Sources, stat)
	}

	// Conversions descending, ties broken by page views descending; the
	// final name tiebreak keeps output order stable across runs.
	sort.Slice(summary.Sources, func(a, b int) bool {
		sa, sb := summary.Sources[a], summary.Sources[b]
		if sa.Conversions != sb.Conversions {
			return sa.Conversions > sb.Conversions
		}
		if sa.PageViews != sb.PageViews {
			return sa.PageViews > sb.PageViews
		}
		return sa.Source < sb.Source
	})

	return summary
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
