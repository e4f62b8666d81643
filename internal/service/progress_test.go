package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressService_Lifecycle(t *testing.T) {
	s := NewProgressService(time.Minute)
	defer s.Close()

	id := s.Start(2)
	s.Event(id, "a.xlsx", "started", "")
	s.Event(id, "a.xlsx", "finished", "")
	s.FileDone(id)

	p, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, BatchStateRunning, p.State)
	assert.Equal(t, 2, p.TotalFiles)
	assert.Equal(t, 1, p.ProcessedFiles)
	require.Len(t, p.Events, 2)
	assert.Equal(t, "started", p.Events[0].Stage)

	s.FileDone(id)
	s.Finish(id)
	p, ok = s.Get(id)
	require.True(t, ok)
	assert.Equal(t, BatchStateFinished, p.State)
	require.NotNil(t, p.FinishedAt)
}

func TestProgressService_UnknownSession(t *testing.T) {
	s := NewProgressService(time.Minute)
	defer s.Close()

	_, ok := s.Get(uuid.New())
	assert.False(t, ok)

	// Events for unknown sessions are dropped, not panics.
	s.Event(uuid.New(), "x", "started", "")
	s.FileDone(uuid.New())
	s.Finish(uuid.New())
}

func TestProgressService_SnapshotIsACopy(t *testing.T) {
	s := NewProgressService(time.Minute)
	defer s.Close()

	id := s.Start(1)
	s.Event(id, "a.xlsx", "started", "")

	p1, _ := s.Get(id)
	s.Event(id, "a.xlsx", "finished", "")
	p2, _ := s.Get(id)

	assert.Len(t, p1.Events, 1)
	assert.Len(t, p2.Events, 2)
}
