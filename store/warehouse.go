package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lpstudio/api/database"
	"lpstudio/api/models"
)

// WarehouseSink batches appended events into the ClickHouse analytics
// warehouse. The local event log stays the source of truth for summaries;
// the warehouse exists for ad-hoc analysis at larger volumes.
type WarehouseSink struct {
	DB *database.ClickHouseClient
}

func NewWarehouseSink(chClient *database.ClickHouseClient) *WarehouseSink {
	return &WarehouseSink{DB: chClient}
}

// EnsureSchema creates the events table. Safe to run multiple times.
func (s *WarehouseSink) EnsureSchema(ctx context.Context) error {
	return s.DB.Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lp_events (
			event_id     String,
			event_type   String,
			timestamp    DateTime64(3),
			visitor_id   String,
			session_id   String,
			url          String,
			lp_id        String,
			utm_source   String,
			utm_medium   String,
			utm_campaign String,
			utm_term     String,
			utm_content  String,
			user_agent   String,
			referrer     String,
			ip_address   String,
			extra        String
		) ENGINE = MergeTree()
		ORDER BY (lp_id, timestamp)
	`)
}

func (s *WarehouseSink) InsertEvents(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO lp_events (
			event_id, event_type, timestamp, visitor_id, session_id, url, lp_id,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			user_agent, referrer, ip_address, extra
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, ev := range events {
		ts, err := time.Parse(time.RFC3339, ev.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}
		extraJSON := []byte("{}")
		if ev.Extra != nil {
			if b, err := json.Marshal(ev.Extra); err == nil {
				extraJSON = b
			}
		}

		err = batch.Append(
			ev.EventID,
			ev.EventType,
			ts,
			ev.VisitorID,
			ev.SessionID,
			ev.URL,
			ev.LpID,
			ev.UtmSource,
			ev.UtmMedium,
			ev.UtmCampaign,
			ev.UtmTerm,
			ev.UtmContent,
			ev.UserAgent,
			ev.Referrer,
			ev.IPAddress,
			string(extraJSON),
		)
		if err != nil {
			log.Printf("Error appending event to batch (EventID: %s): %v", ev.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	return nil
}
