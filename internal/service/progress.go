package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type BatchState string

const (
	BatchStateRunning  BatchState = "running"
	BatchStateFinished BatchState = "finished"
)

// ProgressEvent marks one step of a batch: a file starting, finishing or
// failing. Events accumulate in order so a client can replay the whole run.
type ProgressEvent struct {
	FileName  string    `json:"file_name"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type BatchProgress struct {
	SessionID      uuid.UUID       `json:"session_id"`
	State          BatchState      `json:"state"`
	TotalFiles     int             `json:"total_files"`
	ProcessedFiles int             `json:"processed_files"`
	Events         []ProgressEvent `json:"events"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
}

// ProgressService keeps batch progress in memory, keyed by session ID, so
// clients can poll while a long upload is being processed. Finished sessions
// stay pollable for the configured TTL and are then dropped by the janitor.
type ProgressService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*BatchProgress
	expiry   map[uuid.UUID]time.Time
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

func NewProgressService(ttl time.Duration) *ProgressService {
	s := &ProgressService{
		sessions: make(map[uuid.UUID]*BatchProgress),
		expiry:   make(map[uuid.UUID]time.Time),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Start registers a new session and returns its ID.
func (s *ProgressService) Start(totalFiles int) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &BatchProgress{
		SessionID:  id,
		State:      BatchStateRunning,
		TotalFiles: totalFiles,
		StartedAt:  time.Now(),
	}
	return id
}

func (s *ProgressService) Event(id uuid.UUID, fileName, stage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.sessions[id]
	if !ok {
		return
	}
	p.Events = append(p.Events, ProgressEvent{
		FileName:  fileName,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// FileDone bumps the processed counter after a file finishes, successfully
// or not.
func (s *ProgressService) FileDone(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.sessions[id]; ok {
		p.ProcessedFiles++
	}
}

func (s *ProgressService) Finish(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.sessions[id]
	if !ok {
		return
	}
	now := time.Now()
	p.State = BatchStateFinished
	p.FinishedAt = &now
	s.expiry[id] = now.Add(s.ttl)
}

// Get returns a copy of the session's progress, or false if the session is
// unknown or already expired.
func (s *ProgressService) Get(id uuid.UUID) (BatchProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sessions[id]
	if !ok {
		return BatchProgress{}, false
	}
	snapshot := *p
	snapshot.Events = append([]ProgressEvent(nil), p.Events...)
	return snapshot, true
}

func (s *ProgressService) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *ProgressService) janitor() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, deadline := range s.expiry {
				if now.After(deadline) {
					delete(s.sessions, id)
					delete(s.expiry, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
