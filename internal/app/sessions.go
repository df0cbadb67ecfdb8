package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"resumeview/internal/uploader"
)

// Sessions maps browser-session ids to shells. Entries idle for longer than the configured
// duration are dropped the next time the registry is used; a zero duration keeps them forever.
type Sessions struct {
	idle     time.Duration
	newShell func() *Shell
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*session
}

type session struct {
	shell    *Shell
	lastSeen time.Time
}

func NewSessions(idle time.Duration, newShell func() *Shell) *Sessions {
	return &Sessions{
		idle:     idle,
		newShell: newShell,
		now:      time.Now,
		entries:  make(map[string]*session),
	}
}

// Get returns the shell for id and the id to keep using. An empty, malformed or unknown id
// gets a fresh shell under a new random id.
func (s *Sessions) Get(id string) (*Shell, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	if _, err := uuid.Parse(id); err == nil {
		if e, ok := s.entries[id]; ok {
			e.lastSeen = now
			return e.shell, id
		}
	}

	id = uuid.NewString()
	sh := s.newShell()
	s.entries[id] = &session{shell: sh, lastSeen: now}
	return sh, id
}

// Len reports the live session count.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(s.now())
	return len(s.entries)
}

func (s *Sessions) evictLocked(now time.Time) {
	if s.idle <= 0 {
		return
	}
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) <= s.idle {
			continue
		}
		// an upload still running keeps its session alive
		if e.shell.Upload().Phase == uploader.Submitting {
			continue
		}
		delete(s.entries, id)
	}
}
