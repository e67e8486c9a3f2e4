package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/mnemo/internal/model"
)

// Record is the persisted state of one digested thread: the raw turn
// history (needed for incremental updates) plus the latest snapshot.
type Record struct {
	ThreadID  string         `json:"thread_id"`
	Title     string         `json:"title,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
	Turns     []model.Turn   `json:"turns"`
	Snapshot  model.Snapshot `json:"snapshot"`
}

// Summary is a Record without the bulk, for listings
type Summary struct {
	ThreadID  string    `json:"thread_id"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

// Store keeps thread records as JSON files with a memory layer on
// reads. History never expires on disk; the memory layer only dampens
// repeated loads within one long-running process.
type Store struct {
	dir    string
	memory *gocache.Cache
}

// NewStore creates a store rooted at cfg.Dir (default ~/.mnemo/threads)
func NewStore(cfg model.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".mnemo", "threads")
	}

	ttl := cfg.MemoryTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Store{
		dir:    dir,
		memory: gocache.New(ttl, 10*time.Minute),
	}, nil
}

// Save persists a record, replacing any previous state of the thread
func (s *Store) Save(rec *Record) error {
	if rec.ThreadID == "" {
		return fmt.Errorf("record has no thread ID")
	}
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(s.path(rec.ThreadID), data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	s.memory.Set(threadKey(rec.ThreadID), data, gocache.DefaultExpiration)
	return nil
}

// Load reads a thread record, memory layer first
func (s *Store) Load(threadID string) (*Record, error) {
	if cached, found := s.memory.Get(threadKey(threadID)); found {
		return decode(cached.([]byte))
	}

	data, err := os.ReadFile(s.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("thread %s: not found", threadID)
		}
		return nil, fmt.Errorf("read record: %w", err)
	}

	rec, err := decode(data)
	if err != nil {
		return nil, err
	}
	s.memory.Set(threadKey(threadID), data, gocache.DefaultExpiration)
	return rec, nil
}

// List returns summaries of all stored threads, most recent first
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		rec, err := decode(data)
		if err != nil {
			continue // unreadable record, skip rather than fail the listing
		}
		summaries = append(summaries, Summary{
			ThreadID:  rec.ThreadID,
			Title:     rec.Title,
			UpdatedAt: rec.UpdatedAt,
			TurnCount: len(rec.Turns),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Delete removes a thread record
func (s *Store) Delete(threadID string) error {
	s.memory.Delete(threadKey(threadID))
	if err := os.Remove(s.path(threadID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (s *Store) path(threadID string) string {
	hash := sha256.Sum256([]byte(threadID))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:8])+".json")
}

// threadKey namespaces memory cache keys
func threadKey(threadID string) string {
	return "mnemo:v1:" + threadID
}
