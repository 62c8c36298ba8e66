package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Bucket names. Keep every call site on these constants so the set of
// buckets stays enumerable.
const (
	BucketEvents   = "events"
	BucketVisitor  = "visitor"
	BucketSession  = "session"
	BucketClients  = "clients"
	BucketPages    = "lps"
	BucketLeads    = "lp_leads"
	BucketOrders   = "orders"
	BucketCoupons  = "coupons"
)

// namespace prefixes every bucket key inside the backing document so the
// file can be shared with other tools without key collisions.
const namespace = "lpstudio_"

// Store is the local key-value collaborator. Load returns the raw stored
// value or nil when the bucket is absent; Save replaces the whole bucket
// value; Delete drops the bucket entirely.
type Store interface {
	Load(bucket string) json.RawMessage
	Save(bucket string, v any) error
	Delete(bucket string) error
}

// LoadJSON decodes a bucket into T, substituting fallback when the bucket
// is missing or holds malformed data. Deserialization failures are logged
// and absorbed; they never abort the calling operation.
func LoadJSON[T any](s Store, bucket string, fallback T) T {
	raw := s.Load(bucket)
	if raw == nil {
		return fallback
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("WARN: bucket %q holds malformed data, using fallback: %v", bucket, err)
		return fallback
	}
	return v
}

// FileStore persists all buckets as a single JSON document on disk.
// Every save rewrites the whole document (last write wins); the service
// is exercised by one interactive user, so there is no cross-process
// coordination.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// NewFileStore opens (or creates) the backing document at path.
// A corrupt document is replaced by an empty one with a logged warning
// rather than failing startup.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: map[string]json.RawMessage{}}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open local store %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		log.Printf("WARN: local store %s is corrupt, starting empty: %v", path, err)
		s.data = map[string]json.RawMessage{}
	}
	return s, nil
}

func (s *FileStore) Load(bucket string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[namespace+bucket]
}

func (s *FileStore) Save(bucket string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode bucket %q: %w", bucket, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[namespace+bucket] = b
	return s.flushLocked()
}

func (s *FileStore) Delete(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace+bucket)
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	b, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	return nil
}

// MemoryStore is a Store kept entirely in memory. Tests use it; it also
// backs ephemeral runs where no STORE_PATH is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]json.RawMessage{}}
}

func (s *MemoryStore) Load(bucket string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[namespace+bucket]
}

func (s *MemoryStore) Save(bucket string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode bucket %q: %w", bucket, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[namespace+bucket] = b
	return nil
}

func (s *MemoryStore) Delete(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace+bucket)
	return nil
}
