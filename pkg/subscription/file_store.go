package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists subscriber records as a single JSON object file mapping
// user ID to record. All access goes through one mutex; writes go to a temp
// file followed by a rename so a crash mid-write never leaves a torn file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the JSON file at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(ctx context.Context, userID string) (*Record, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	rec, ok := records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	rec.UserID = userID
	return &rec, nil
}

func (s *FileStore) MarkPaid(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	records := s.load()
	rec, ok := records[userID]
	if !ok {
		rec = newRecord(userID, now)
	}
	if !rec.Paid {
		rec.Paid = true
		rec.PaidAt = &now
	}
	records[userID] = rec

	return s.save(records)
}

func (s *FileStore) IncrementMessageCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrMissingUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	records := s.load()
	rec, ok := records[userID]
	if !ok {
		rec = newRecord(userID, now)
	}
	rec.MessageCount++
	records[userID] = rec

	if err := s.save(records); err != nil {
		return 0, err
	}
	return rec.MessageCount, nil
}

// load reads the backing file. A missing, unreadable or corrupt file
// degrades to an empty map so a bad deploy never takes the webhook down.
func (s *FileStore) load() map[string]Record {
	records := make(map[string]Record)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return make(map[string]Record)
	}
	return records
}

func (s *FileStore) save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode subscriber records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".subscribers-*")
	if err != nil {
		return fmt.Errorf("create temp subscriber file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write subscriber file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close subscriber file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace subscriber file: %w", err)
	}
	return nil
}
