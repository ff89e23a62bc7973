package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionStats tracks statistics about one ingestion run
type IngestionStats struct {
	mu         sync.RWMutex
	StartTime  time.Time
	Duration   time.Duration
	Events     int
	Snapshots  int
	Duplicates int
	Invalid    int
	Errors     int
}

// NewIngestionStats creates a new stats tracker
func NewIngestionStats() *IngestionStats {
	return &IngestionStats{StartTime: time.Now()}
}

// Reset resets all counters
func (s *IngestionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartTime = time.Now()
	s.Duration = 0
	s.Events = 0
	s.Snapshots = 0
	s.Duplicates = 0
	s.Invalid = 0
	s.Errors = 0
}

// RecordEvent increments the upserted event count
func (s *IngestionStats) RecordEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events++
}

// RecordSnapshots adds to the stored snapshot count
func (s *IngestionStats) RecordSnapshots(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Snapshots += n
}

// RecordDuplicate increments the deduped snapshot count
func (s *IngestionStats) RecordDuplicate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duplicates++
}

// RecordInvalid increments the invalid observation count
func (s *IngestionStats) RecordInvalid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Invalid++
}

// RecordError increments the error count
func (s *IngestionStats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors++
}

// Finish records the run duration
func (s *IngestionStats) Finish(start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duration = time.Since(start)
}

// String renders the stats for logging
func (s *IngestionStats) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("events=%d snapshots=%d duplicates=%d invalid=%d errors=%d duration=%v",
		s.Events, s.Snapshots, s.Duplicates, s.Invalid, s.Errors, s.Duration)
}
