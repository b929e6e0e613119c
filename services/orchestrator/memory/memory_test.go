// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

func msg(role, content string) datatypes.Message {
	return datatypes.Message{Role: role, Content: content}
}

func TestStore(t *testing.T) {
	t.Run("empty session reads empty", func(t *testing.T) {
		s := NewStore(0)
		if got := s.Read("alice", "s1"); len(got) != 0 {
			t.Errorf("expected empty window, got %d messages", len(got))
		}
	})

	t.Run("zero cap falls back to default", func(t *testing.T) {
		s := NewStore(0)
		if s.MaxHistory() != DefaultMaxHistory {
			t.Errorf("expected default cap %d, got %d", DefaultMaxHistory, s.MaxHistory())
		}
	})

	t.Run("append preserves order", func(t *testing.T) {
		s := NewStore(10)
		s.Append("alice", "s1", msg("user", "one"))
		window := s.Append("alice", "s1", msg("assistant", "two"))
		if len(window) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(window))
		}
		if window[0].Content != "one" || window[1].Content != "two" {
			t.Errorf("order broken: %v", window)
		}
	})

	t.Run("window truncates oldest first", func(t *testing.T) {
		s := NewStore(4)
		for i := 0; i < 10; i++ {
			s.Append("alice", "s1", msg("user", fmt.Sprintf("m%d", i)))
		}
		window := s.Read("alice", "s1")
		if len(window) != 4 {
			t.Fatalf("expected window of 4, got %d", len(window))
		}
		if window[0].Content != "m6" || window[3].Content != "m9" {
			t.Errorf("expected newest 4 messages, got %v", window)
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		s := NewStore(10)
		s.Append("alice", "s1", msg("user", "for s1"))
		s.Append("alice", "s2", msg("user", "for s2"))
		s.Append("bob", "s1", msg("user", "bob's s1"))
		if got := s.Read("alice", "s1"); len(got) != 1 || got[0].Content != "for s1" {
			t.Errorf("alice/s1 polluted: %v", got)
		}
		if got := s.Read("bob", "s1"); len(got) != 1 || got[0].Content != "bob's s1" {
			t.Errorf("bob/s1 polluted: %v", got)
		}
	})

	t.Run("read returns a copy", func(t *testing.T) {
		s := NewStore(10)
		s.Append("alice", "s1", msg("user", "original"))
		window := s.Read("alice", "s1")
		window[0].Content = "mutated"
		if got := s.Read("alice", "s1"); got[0].Content != "original" {
			t.Error("caller mutation leaked into the store")
		}
	})

	t.Run("clear drops the window", func(t *testing.T) {
		s := NewStore(10)
		s.Append("alice", "s1", msg("user", "x"))
		s.Clear("alice", "s1")
		if s.Len("alice", "s1") != 0 {
			t.Error("expected cleared session to be empty")
		}
		// Clearing again is a no-op.
		s.Clear("alice", "s1")
	})

	t.Run("concurrent appends never exceed the cap", func(t *testing.T) {
		const windowCap = 8
		s := NewStore(windowCap)
		var wg sync.WaitGroup
		for g := 0; g < 16; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					window := s.Append("alice", "shared", msg("user", fmt.Sprintf("g%d-%d", g, i)))
					if len(window) > windowCap {
						t.Errorf("window exceeded cap: %d", len(window))
						return
					}
				}
			}(g)
		}
		wg.Wait()
		if got := s.Len("alice", "shared"); got != windowCap {
			t.Errorf("expected saturated window of %d, got %d", windowCap, got)
		}
	})

	t.Run("concurrent turn pairs stay adjacent", func(t *testing.T) {
		// A chat turn appends the user message and the reply in one call,
		// so a racing reader must never see the pair split or interleaved
		// with another goroutine's turn.
		s := NewStore(8)
		var wg sync.WaitGroup
		for g := 0; g < 16; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					tag := fmt.Sprintf("g%d-%d", g, i)
					s.Append("alice", "shared",
						msg("user", tag),
						msg("assistant", tag),
					)
				}
			}(g)
		}
		wg.Wait()

		window := s.Read("alice", "shared")
		for i, m := range window {
			if m.Role != "user" {
				continue
			}
			if i+1 >= len(window) {
				t.Fatalf("user message %q at end of window with no reply", m.Content)
			}
			next := window[i+1]
			if next.Role != "assistant" || next.Content != m.Content {
				t.Fatalf("turn split: user %q followed by %s %q", m.Content, next.Role, next.Content)
			}
		}
	})
}
