package store

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"lpstudio/api/models"
	"lpstudio/api/storage"
	"lpstudio/api/utils"
)

// EventSink receives appended events for warehouse analytics. Forwarding
// is best-effort: a sink failure is logged and never fails ingestion.
type EventSink interface {
	InsertEvents(ctx context.Context, events []models.AnalyticsEvent) error
}

// Device carries the request-derived fields stamped onto every event.
type Device struct {
	UserAgent string
	Referrer  string
	IPAddress string
}

// EventLog is the append-only analytics log backed by the events bucket.
// Every append rewrites the full list; events are immutable and only ever
// removed by Clear.
type EventLog struct {
	store storage.Store
	sink  EventSink
	now   func() time.Time
}

func NewEventLog(st storage.Store, sink EventSink) *EventLog {
	return &EventLog{store: st, sink: sink, now: time.Now}
}

// Append builds the base record (id, timestamp, identity, URL, UTM params
// parsed from the page URL, device fields) merged with extra, and persists
// it. A local write failure propagates to the caller.
func (l *EventLog) Append(ctx context.Context, eventType, pageURL, lpID, visitorID, sessionID string, device Device, extra map[string]any) (models.AnalyticsEvent, error) {
	ev := models.AnalyticsEvent{
		EventID:   utils.NewEventID(),
		EventType: eventType,
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		VisitorID: visitorID,
		SessionID: sessionID,
		URL:       pageURL,
		LpID:      lpID,
		UserAgent: device.UserAgent,
		Referrer:  device.Referrer,
		IPAddress: device.IPAddress,
		Extra:     extra,
	}

	if u, err := url.Parse(pageURL); err == nil {
		q := u.Query()
		ev.UtmSource = q.Get("utm_source")
		ev.UtmMedium = q.Get("utm_medium")
		ev.UtmCampaign = q.Get("utm_campaign")
		ev.UtmTerm = q.Get("utm_term")
		ev.UtmContent = q.Get("utm_content")
	}

	events := l.ReadAll()
	events = append(events, ev)
	if err := l.store.Save(storage.BucketEvents, events); err != nil {
		return models.AnalyticsEvent{}, fmt.Errorf("failed to persist event: %w", err)
	}

	if l.sink != nil {
		if err := l.sink.InsertEvents(ctx, []models.AnalyticsEvent{ev}); err != nil {
			log.Printf("WARN: failed to forward event %s to warehouse: %v", ev.EventID, err)
		}
	}

	return ev, nil
}

// ReadAll returns the full event list, defaulting to empty.
func (l *EventLog) ReadAll() []models.AnalyticsEvent {
	return storage.LoadJSON(l.store, storage.BucketEvents, []models.AnalyticsEvent{})
}

// Clear deletes the events bucket entirely.
func (l *EventLog) Clear() error {
	return l.store.Delete(storage.BucketEvents)
}
