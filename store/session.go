package store

import (
	"fmt"
	"time"

	"lpstudio/api/storage"
	"lpstudio/api/utils"
)

// sessionTTL is the inactivity window after which a session id rotates.
const sessionTTL = 30 * time.Minute

type sessionRecord struct {
	ID string `json:"id"`
	Ts int64  `json:"ts"` // unix millis of last access
}

// Identity derives and persists the visitor identifier (permanent) and the
// session identifier (rotated after 30 minutes of inactivity).
//
// Expiry is evaluated lazily on access: there is no timer, so an "expired"
// session is only detected the next time an id is requested. Within the
// window every access refreshes the timestamp and keeps the id stable.
type Identity struct {
	store storage.Store
	now   func() time.Time
}

func NewIdentity(st storage.Store) *Identity {
	return &Identity{store: st, now: time.Now}
}

// VisitorID returns the persisted visitor id, generating and persisting
// one on first use. Idempotent across calls; the id is never rotated.
func (i *Identity) VisitorID() (string, error) {
	id := storage.LoadJSON(i.store, storage.BucketVisitor, "")
	if id != "" {
		return id, nil
	}

	id = utils.NewVisitorID(i.now())
	if err := i.store.Save(storage.BucketVisitor, id); err != nil {
		return "", fmt.Errorf("failed to persist visitor id: %w", err)
	}
	return id, nil
}

// SessionID returns the active session id, extending the session when the
// last access was under 30 minutes ago and rotating to a fresh id
// otherwise.
func (i *Identity) SessionID() (string, error) {
	now := i.now()
	rec := storage.LoadJSON(i.store, storage.BucketSession, sessionRecord{})

	if rec.ID != "" && now.UnixMilli()-rec.Ts < sessionTTL.Milliseconds() {
		rec.Ts = now.UnixMilli()
		if err := i.store.Save(storage.BucketSession, rec); err != nil {
			return "", fmt.Errorf("failed to refresh session: %w", err)
		}
		return rec.ID, nil
	}

	rec = sessionRecord{ID: utils.NewSessionID(now), Ts: now.UnixMilli()}
	if err := i.store.Save(storage.BucketSession, rec); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	return rec.ID, nil
}
