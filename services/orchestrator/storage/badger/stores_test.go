// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStores(db)
}

func TestPersonaStore(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	t.Run("put and get by ID", func(t *testing.T) {
		p := &datatypes.Persona{
			ID:           "p-1",
			Name:         "Reviewer",
			Instructions: "Review prompts for clarity.",
			CreatedAt:    time.Now().UTC(),
		}
		if err := stores.Personas.Put(ctx, p); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := stores.Personas.Get(ctx, "p-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != "Reviewer" {
			t.Errorf("expected name Reviewer, got %s", got.Name)
		}
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		_, err := stores.Personas.Get(ctx, "nope")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("slug index round trip", func(t *testing.T) {
		p := &datatypes.Persona{
			ID:        "p-2",
			Slug:      "data-scientist",
			Name:      "Data Scientist",
			IsDefault: true,
		}
		if err := stores.Personas.Put(ctx, p); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := stores.Personas.GetBySlug(ctx, "data-scientist")
		if err != nil {
			t.Fatalf("get by slug: %v", err)
		}
		if got.ID != "p-2" {
			t.Errorf("expected p-2, got %s", got.ID)
		}
	})

	t.Run("list scopes to defaults plus owner", func(t *testing.T) {
		mine := &datatypes.Persona{ID: "p-3", Name: "Mine", UserID: "alice"}
		theirs := &datatypes.Persona{ID: "p-4", Name: "Theirs", UserID: "bob"}
		if err := stores.Personas.Put(ctx, mine); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := stores.Personas.Put(ctx, theirs); err != nil {
			t.Fatalf("put: %v", err)
		}
		list, err := stores.Personas.List(ctx, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, p := range list {
			if p.UserID != "" && p.UserID != "alice" {
				t.Errorf("list leaked persona owned by %s", p.UserID)
			}
		}
	})

	t.Run("delete removes record and slug index", func(t *testing.T) {
		p := &datatypes.Persona{ID: "p-5", Slug: "temp-slug", Name: "Temp"}
		if err := stores.Personas.Put(ctx, p); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := stores.Personas.Delete(ctx, "p-5"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := stores.Personas.Get(ctx, "p-5"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if _, err := stores.Personas.GetBySlug(ctx, "temp-slug"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected slug index removed, got %v", err)
		}
	})

	t.Run("delete missing returns ErrNotFound", func(t *testing.T) {
		err := stores.Personas.Delete(ctx, "never-existed")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestProfileStore(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	t.Run("missing profile returns ErrNotFound", func(t *testing.T) {
		_, err := stores.Profiles.Get(ctx, "nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		p := &datatypes.Profile{
			UserID:          "alice",
			DefaultGoal:     "clarity",
			ActivePersonaID: "p-1",
			UpdatedAt:       time.Now().UTC(),
		}
		if err := stores.Profiles.Put(ctx, p); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := stores.Profiles.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.ActivePersonaID != "p-1" {
			t.Errorf("expected active persona p-1, got %s", got.ActivePersonaID)
		}
	})

	t.Run("put rejects empty user ID", func(t *testing.T) {
		if err := stores.Profiles.Put(ctx, &datatypes.Profile{}); err == nil {
			t.Error("expected error for empty user ID")
		}
	})
}

func TestPromptStore(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	t.Run("prompts are scoped per user", func(t *testing.T) {
		p := &datatypes.SavedPrompt{
			ID:              "sp-1",
			UserID:          "alice",
			Title:           "Release notes",
			OptimizedPrompt: "Write release notes for...",
			CreatedAt:       time.Now().UTC(),
		}
		if err := stores.Prompts.Put(ctx, p); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, err := stores.Prompts.Get(ctx, "bob", "sp-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected cross-user lookup to miss, got %v", err)
		}
		got, err := stores.Prompts.Get(ctx, "alice", "sp-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Release notes" {
			t.Errorf("expected title round trip, got %s", got.Title)
		}
	})

	t.Run("list returns newest first", func(t *testing.T) {
		older := &datatypes.SavedPrompt{
			ID: "sp-old", UserID: "carol", Title: "old",
			OptimizedPrompt: "x", CreatedAt: time.Now().UTC().Add(-time.Hour),
		}
		newer := &datatypes.SavedPrompt{
			ID: "sp-new", UserID: "carol", Title: "new",
			OptimizedPrompt: "y", CreatedAt: time.Now().UTC(),
		}
		if err := stores.Prompts.Put(ctx, older); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := stores.Prompts.Put(ctx, newer); err != nil {
			t.Fatalf("put: %v", err)
		}
		list, err := stores.Prompts.List(ctx, "carol")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 prompts, got %d", len(list))
		}
		if list[0].ID != "sp-new" {
			t.Errorf("expected newest first, got %s", list[0].ID)
		}
	})

	t.Run("delete missing returns ErrNotFound", func(t *testing.T) {
		err := stores.Prompts.Delete(ctx, "alice", "no-such")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionMarkerStore(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	t.Run("ensure creates once then refreshes", func(t *testing.T) {
		first, created, err := stores.Sessions.Ensure(ctx, "sess-1", "alice")
		if err != nil {
			t.Fatalf("ensure: %v", err)
		}
		if !created {
			t.Error("expected first ensure to create the marker")
		}
		second, created, err := stores.Sessions.Ensure(ctx, "sess-1", "alice")
		if err != nil {
			t.Fatalf("ensure: %v", err)
		}
		if created {
			t.Error("expected second ensure to be idempotent")
		}
		if !second.CreatedAt.Equal(first.CreatedAt) {
			t.Error("CreatedAt changed on repeat ensure")
		}
		if second.LastActiveAt.Before(first.LastActiveAt) {
			t.Error("LastActiveAt went backwards")
		}
	})

	t.Run("list filters by owner", func(t *testing.T) {
		if _, _, err := stores.Sessions.Ensure(ctx, "sess-2", "bob"); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		list, err := stores.Sessions.List(ctx, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, m := range list {
			if m.UserID != "alice" {
				t.Errorf("list leaked session owned by %s", m.UserID)
			}
		}
	})

	t.Run("ensure rejects empty session ID", func(t *testing.T) {
		if _, _, err := stores.Sessions.Ensure(ctx, "", "alice"); err == nil {
			t.Error("expected error for empty session ID")
		}
	})

	t.Run("delete removes owned marker", func(t *testing.T) {
		if _, _, err := stores.Sessions.Ensure(ctx, "sess-3", "alice"); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		if err := stores.Sessions.Delete(ctx, "sess-3", "alice"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := stores.Sessions.Get(ctx, "sess-3"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("delete by non-owner misses and keeps the marker", func(t *testing.T) {
		if _, _, err := stores.Sessions.Ensure(ctx, "sess-4", "alice"); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		if err := stores.Sessions.Delete(ctx, "sess-4", "bob"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign delete, got %v", err)
		}
		if _, err := stores.Sessions.Get(ctx, "sess-4"); err != nil {
			t.Errorf("marker should survive a foreign delete attempt: %v", err)
		}
	})

	t.Run("delete missing returns ErrNotFound", func(t *testing.T) {
		if err := stores.Sessions.Delete(ctx, "no-such", "alice"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAnalyticsStore(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	t.Run("put then list newest first", func(t *testing.T) {
		rating := 5
		older := &datatypes.AnalyticsEvent{
			ID: "a-old", UserID: "alice", Note: "first run",
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}
		newer := &datatypes.AnalyticsEvent{
			ID: "a-new", UserID: "alice", Rating: &rating,
			Metrics:   map[string]any{"tokens": 42.0},
			CreatedAt: time.Now().UTC(),
		}
		if err := stores.Analytics.Put(ctx, older); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := stores.Analytics.Put(ctx, newer); err != nil {
			t.Fatalf("put: %v", err)
		}
		list, err := stores.Analytics.List(ctx, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 events, got %d", len(list))
		}
		if list[0].ID != "a-new" {
			t.Errorf("expected newest first, got %s", list[0].ID)
		}
		if list[0].Rating == nil || *list[0].Rating != 5 {
			t.Errorf("rating lost in round trip: %v", list[0].Rating)
		}
	})

	t.Run("events are scoped per user", func(t *testing.T) {
		e := &datatypes.AnalyticsEvent{ID: "a-bob", UserID: "bob", CreatedAt: time.Now().UTC()}
		if err := stores.Analytics.Put(ctx, e); err != nil {
			t.Fatalf("put: %v", err)
		}
		list, err := stores.Analytics.List(ctx, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, got := range list {
			if got.UserID != "alice" {
				t.Errorf("list leaked event owned by %s", got.UserID)
			}
		}
	})

	t.Run("put rejects missing IDs", func(t *testing.T) {
		if err := stores.Analytics.Put(ctx, &datatypes.AnalyticsEvent{UserID: "alice"}); err == nil {
			t.Error("expected error for empty event ID")
		}
	})
}
