// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage defines the persistence interfaces for the PromptTune
// orchestrator. The badger subpackage provides the embedded implementation;
// services depend only on these interfaces so the backing store can be
// swapped or faked in tests.
package storage

import (
	"context"
	"errors"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

// ErrNotFound is returned when a requested record does not exist.
// All store implementations must return this (or a wrapped form) for
// missing keys so callers can distinguish absence from failure.
var ErrNotFound = errors.New("record not found")

// PersonaStore persists personas: the seeded defaults and user-created ones.
//
// Implementations must be safe for concurrent use.
type PersonaStore interface {
	// Put inserts or replaces a persona. Personas with a Slug are also
	// indexed by slug for idempotent default seeding.
	Put(ctx context.Context, p *datatypes.Persona) error

	// Get returns the persona by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*datatypes.Persona, error)

	// GetBySlug returns the persona with the given slug, or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*datatypes.Persona, error)

	// List returns all default personas plus the personas owned by userID.
	List(ctx context.Context, userID string) ([]*datatypes.Persona, error)

	// Delete removes the persona by ID. Deleting a missing persona
	// returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// ProfileStore persists per-user optimization defaults.
type ProfileStore interface {
	// Get returns the profile for userID, or ErrNotFound if the user has
	// never written preferences.
	Get(ctx context.Context, userID string) (*datatypes.Profile, error)

	// Put inserts or replaces the profile.
	Put(ctx context.Context, p *datatypes.Profile) error
}

// PromptStore persists the saved prompt library, scoped per user.
type PromptStore interface {
	Put(ctx context.Context, p *datatypes.SavedPrompt) error
	Get(ctx context.Context, userID, id string) (*datatypes.SavedPrompt, error)
	List(ctx context.Context, userID string) ([]*datatypes.SavedPrompt, error)
	Delete(ctx context.Context, userID, id string) error
}

// SessionMarkerStore persists durable session markers.
type SessionMarkerStore interface {
	// Ensure creates the marker if absent and refreshes LastActiveAt if
	// present. The bool reports whether a new marker was created.
	Ensure(ctx context.Context, sessionID, userID string) (*datatypes.SessionMarker, bool, error)

	// Get returns the marker, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*datatypes.SessionMarker, error)

	// List returns all markers owned by userID.
	List(ctx context.Context, userID string) ([]*datatypes.SessionMarker, error)

	// Delete removes the marker if it exists and is owned by userID.
	// A missing marker and a marker owned by someone else both return
	// ErrNotFound, so ownership is not leaked.
	Delete(ctx context.Context, sessionID, userID string) error
}

// AnalyticsStore persists usage feedback events, scoped per user.
type AnalyticsStore interface {
	Put(ctx context.Context, e *datatypes.AnalyticsEvent) error

	// List returns all events recorded by userID, newest first.
	List(ctx context.Context, userID string) ([]*datatypes.AnalyticsEvent, error)
}
