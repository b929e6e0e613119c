// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory keeps the bounded per-session conversation windows.
//
// The window is process-local and deliberately ephemeral: restarts drop it,
// and the durable session marker in storage is what survives. Keeping the
// hot path in RAM means a chat turn never waits on disk for history replay.
package memory

import (
	"sync"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

// DefaultMaxHistory is the default rolling window size per session,
// counted in messages (not turns).
const DefaultMaxHistory = 20

// Store holds rolling conversation windows keyed by user and session.
//
// # Description
//
// Each (user, session) bucket has its own mutex so concurrent turns on
// different sessions never contend. Within one bucket, Append is atomic:
// the incoming messages and the reply land together and the window is
// truncated to the cap before anything becomes visible to readers.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	buckets    map[string]map[string]*bucket
	maxHistory int
}

type bucket struct {
	mu       sync.Mutex
	messages []datatypes.Message
}

// NewStore creates a Store with the given window cap. A cap of zero or
// less falls back to DefaultMaxHistory.
func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		buckets:    make(map[string]map[string]*bucket),
		maxHistory: maxHistory,
	}
}

// MaxHistory returns the configured window cap.
func (s *Store) MaxHistory() int {
	return s.maxHistory
}

// Read returns a copy of the session's current window, oldest first.
// A session with no history returns an empty slice.
func (s *Store) Read(userID, sessionID string) []datatypes.Message {
	b := s.getBucket(userID, sessionID, false)
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]datatypes.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Append adds messages to the session window, truncates to the cap, and
// returns a copy of the post-truncation window.
func (s *Store) Append(userID, sessionID string, messages ...datatypes.Message) []datatypes.Message {
	b := s.getBucket(userID, sessionID, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, messages...)
	if len(b.messages) > s.maxHistory {
		// Copy instead of reslicing so the dropped prefix can be collected.
		trimmed := make([]datatypes.Message, s.maxHistory)
		copy(trimmed, b.messages[len(b.messages)-s.maxHistory:])
		b.messages = trimmed
	}
	out := make([]datatypes.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Clear drops the session's window. Clearing a missing session is a no-op.
func (s *Store) Clear(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessions, ok := s.buckets[userID]; ok {
		delete(sessions, sessionID)
	}
}

// Len returns the number of messages currently held for the session.
func (s *Store) Len(userID, sessionID string) int {
	b := s.getBucket(userID, sessionID, false)
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// getBucket finds the bucket for (userID, sessionID), creating it when
// create is set. Returns nil when absent and create is false.
func (s *Store) getBucket(userID, sessionID string, create bool) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, ok := s.buckets[userID]
	if !ok {
		if !create {
			return nil
		}
		sessions = make(map[string]*bucket)
		s.buckets[userID] = sessions
	}
	b, ok := sessions[sessionID]
	if !ok {
		if !create {
			return nil
		}
		b = &bucket{}
		sessions[sessionID] = b
	}
	return b
}
