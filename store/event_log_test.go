package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpstudio/api/models"
	"lpstudio/api/storage"
)

// recordingSink captures forwarded events; failSink always errors.
type recordingSink struct {
	events []models.AnalyticsEvent
}

func (s *recordingSink) InsertEvents(_ context.Context, events []models.AnalyticsEvent) error {
	s.events = append(s.events, events...)
	return nil
}

type failSink struct{}

func (failSink) InsertEvents(context.Context, []models.AnalyticsEvent) error {
	return errors.New("warehouse down")
}

func TestEventLog_AppendBuildsBaseRecord(t *testing.T) {
	l := NewEventLog(storage.NewMemoryStore(), nil)

	pageURL := "https://pages.example/lp-1?utm_source=ads&utm_medium=cpc&utm_campaign=verao&utm_term=tenis&utm_content=v2"
	ev, err := l.Append(context.Background(), models.EventPageView, pageURL, "lp-1", "v1", "s1",
		Device{UserAgent: "ua", Referrer: "https://ref.example", IPAddress: "10.0.0.1"},
		map[string]any{"botao": "comprar"},
	)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.NotEmpty(t, ev.Timestamp)
	assert.Equal(t, "ads", ev.UtmSource)
	assert.Equal(t, "cpc", ev.UtmMedium)
	assert.Equal(t, "verao", ev.UtmCampaign)
	assert.Equal(t, "tenis", ev.UtmTerm)
	assert.Equal(t, "v2", ev.UtmContent)
	assert.Equal(t, "ua", ev.UserAgent)
	assert.Equal(t, "10.0.0.1", ev.IPAddress)
	assert.Equal(t, "comprar", ev.Extra["botao"])
}

func TestEventLog_ReadAllDefaultsEmpty(t *testing.T) {
	l := NewEventLog(storage.NewMemoryStore(), nil)
	assert.Empty(t, l.ReadAll())
}

func TestEventLog_AppendIsOrdered(t *testing.T) {
	l := NewEventLog(storage.NewMemoryStore(), nil)

	for _, typ := range []string{models.EventPageView, models.EventCtaClick, models.EventFormSubmit} {
		_, err := l.Append(context.Background(), typ, "", "", "v1", "s1", Device{}, nil)
		require.NoError(t, err)
	}

	events := l.ReadAll()
	require.Len(t, events, 3)
	assert.Equal(t, models.EventPageView, events[0].EventType)
	assert.Equal(t, models.EventCtaClick, events[1].EventType)
	assert.Equal(t, models.EventFormSubmit, events[2].EventType)
}

func TestEventLog_Clear(t *testing.T) {
	l := NewEventLog(storage.NewMemoryStore(), nil)

	_, err := l.Append(context.Background(), models.EventPageView, "", "", "v1", "s1", Device{}, nil)
	require.NoError(t, err)

	require.NoError(t, l.Clear())
	assert.Empty(t, l.ReadAll())
}

func TestEventLog_ForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	l := NewEventLog(storage.NewMemoryStore(), sink)

	_, err := l.Append(context.Background(), models.EventPageView, "", "lp-1", "v1", "s1", Device{}, nil)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "lp-1", sink.events[0].LpID)
}

func TestEventLog_SinkFailureDoesNotFailAppend(t *testing.T) {
	l := NewEventLog(storage.NewMemoryStore(), failSink{})

	_, err := l.Append(context.Background(), models.EventPageView, "", "", "v1", "s1", Device{}, nil)
	require.NoError(t, err)
	assert.Len(t, l.ReadAll(), 1, "event lands locally even when the warehouse is down")
}

func TestEventLog_MalformedBucketFallsBackToEmpty(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Save(storage.BucketEvents, "not-a-list"))

	l := NewEventLog(st, nil)
	assert.Empty(t, l.ReadAll())

	// Appending after corruption starts a fresh list rather than failing.
	_, err := l.Append(context.Background(), models.EventPageView, "", "", "v1", "s1", Device{}, nil)
	require.NoError(t, err)
	assert.Len(t, l.ReadAll(), 1)
}
