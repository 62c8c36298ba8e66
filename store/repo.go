package store

import (
	"encoding/json"
	"fmt"

	"lpstudio/api/storage"
	"lpstudio/api/utils"
)

// Record is a schemaless entity row. Local buckets and remote JSONB
// tables share this shape so the fallback path needs no translation.
type Record = map[string]any

// Repo is generic CRUD over one named bucket. Records are matched by
// string-coerced id equality and returned as deep copies so callers can
// never mutate stored state. Every operation is read-modify-write with
// last write wins; the service has a single interactive user.
type Repo struct {
	store  storage.Store
	bucket string
}

func NewRepo(st storage.Store, bucket string) *Repo {
	return &Repo{store: st, bucket: bucket}
}

func (r *Repo) readAll() []Record {
	return storage.LoadJSON(r.store, r.bucket, []Record{})
}

// List returns all records, most recent first.
func (r *Repo) List() []Record {
	return cloneRecords(r.readAll())
}

// Get returns the record whose id matches, or nil.
func (r *Repo) Get(id any) Record {
	want := fmt.Sprint(id)
	for _, rec := range r.readAll() {
		if fmt.Sprint(rec["id"]) == want {
			return cloneRecord(rec)
		}
	}
	return nil
}

// Add prepends the record (most-recent-first ordering), assigning an id
// when the caller did not provide one, and returns the stored copy.
func (r *Repo) Add(rec Record) (Record, error) {
	rec = cloneRecord(rec)
	if rec["id"] == nil || rec["id"] == "" {
		rec["id"] = utils.NewEventID()
	}

	records := append([]Record{rec}, r.readAll()...)
	if err := r.store.Save(r.bucket, records); err != nil {
		return nil, fmt.Errorf("failed to persist bucket %q: %w", r.bucket, err)
	}
	return cloneRecord(rec), nil
}

// Update shallow-merges patch into the matching record; records that do
// not match pass through unchanged. Returns the updated copy, or nil when
// no record matches.
func (r *Repo) Update(id any, patch Record) (Record, error) {
	want := fmt.Sprint(id)
	records := r.readAll()

	var updated Record
	for i, rec := range records {
		if fmt.Sprint(rec["id"]) != want {
			continue
		}
		merged := cloneRecord(rec)
		for k, v := range patch {
			if k == "id" {
				continue
			}
			merged[k] = v
		}
		records[i] = merged
		updated = merged
		break
	}
	if updated == nil {
		return nil, nil
	}

	if err := r.store.Save(r.bucket, records); err != nil {
		return nil, fmt.Errorf("failed to persist bucket %q: %w", r.bucket, err)
	}
	return cloneRecord(updated), nil
}

// Remove drops the matching record. Removing an absent id is a no-op.
func (r *Repo) Remove(id any) error {
	want := fmt.Sprint(id)
	records := r.readAll()

	kept := records[:0]
	for _, rec := range records {
		if fmt.Sprint(rec["id"]) != want {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}

	if err := r.store.Save(r.bucket, kept); err != nil {
		return fmt.Errorf("failed to persist bucket %q: %w", r.bucket, err)
	}
	return nil
}

// cloneRecord deep-copies via a JSON round trip, which is also how
// records travel to and from storage, so copies match stored shape.
func cloneRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		// Records come from JSON in the first place; a marshal failure
		// means a handler put something non-serializable in a map.
		panic(fmt.Sprintf("record not JSON-serializable: %v", err))
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("record round-trip failed: %v", err))
	}
	return out
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = cloneRecord(rec)
	}
	return out
}
