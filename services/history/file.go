package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/gpuwatcher/internal/scraper"
)

// record is one line of the JSONL append log
type record struct {
	Fingerprint string    `json:"fingerprint"`
	SKU         string    `json:"sku"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Link        string    `json:"link"`
	ObservedAt  time.Time `json:"observed_at"`
}

// FileStore is the default backend: a JSONL append log whose fingerprints
// are loaded into memory at open. Records are flushed individually, so prior
// entries survive a crash mid-write.
type FileStore struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	seen map[string]struct{}
}

// NewFileStore opens (or creates) the append log at path and loads the
// existing fingerprint set.
func NewFileStore(path string) (*FileStore, error) {
	seen := make(map[string]struct{})

	if existing, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(existing)
		for sc.Scan() {
			var rec record
			if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
				// A torn final line from a crashed run is expected; anything
				// unparseable is skipped rather than fatal.
				continue
			}
			if rec.Fingerprint != "" {
				seen[rec.Fingerprint] = struct{}{}
			}
		}
		existing.Close()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("history: read %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("history: open %s for append: %w", path, err)
	}

	return &FileStore{
		f:    f,
		w:    bufio.NewWriter(f),
		seen: seen,
	}, nil
}

// Contains reports whether the fingerprint was recorded on any run
func (s *FileStore) Contains(_ context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[fingerprint]
	return ok, nil
}

// Append writes one record and flushes it
func (s *FileStore) Append(_ context.Context, offer scraper.Offer) error {
	rec := record{
		Fingerprint: offer.Fingerprint(),
		SKU:         offer.SKU,
		Title:       offer.Title,
		Price:       offer.Price,
		Link:        offer.Link,
		ObservedAt:  offer.ObservedAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("history: append record: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("history: flush record: %w", err)
	}
	s.seen[rec.Fingerprint] = struct{}{}
	return nil
}

// Close flushes and closes the log
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
