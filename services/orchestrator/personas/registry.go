// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package personas seeds the default persona catalog and resolves which
// persona applies to a request.
package personas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

var tracer = otel.Tracer("prompttune.orchestrator.personas")

// ErrPersonaNotFound is returned when an explicit persona override does not
// resolve to a persona visible to the caller.
var ErrPersonaNotFound = errors.New("persona not found")

// Resolution is the outcome of persona resolution.
//
// Persona is nil when no persona applies (no active persona, or a dangling
// reference was healed). Healed is true when a dangling active persona
// reference was cleared from the profile during this resolution.
type Resolution struct {
	Persona *datatypes.Persona
	Healed  bool
}

// Registry seeds default personas and resolves persona references.
//
// Resolution is deliberately self-healing on the implicit path: a profile
// whose active persona was deleted degrades to "no persona" and the stale
// reference is cleared, instead of failing every subsequent request. An
// explicit override is different; the caller named a persona, so a miss is
// an error.
type Registry struct {
	personas storage.PersonaStore
	profiles storage.ProfileStore
	seedOnce sync.Once
	seedErr  error
}

// NewRegistry creates a Registry over the given stores.
func NewRegistry(personas storage.PersonaStore, profiles storage.ProfileStore) *Registry {
	return &Registry{
		personas: personas,
		profiles: profiles,
	}
}

// EnsureDefaults seeds any missing default personas, keyed by slug.
//
// # Description
//
// Idempotent: personas whose slug already exists are left untouched, so
// repeated startups (and operator edits to seeded personas) survive. Runs
// at most once per process; subsequent calls return the first outcome.
//
// # Outputs
//
//   - error: Non-nil if the store could not be read or written.
func (r *Registry) EnsureDefaults(ctx context.Context) error {
	r.seedOnce.Do(func() {
		ctx, span := tracer.Start(ctx, "Registry.EnsureDefaults")
		defer span.End()

		created := 0
		for _, p := range defaultCatalog {
			_, err := r.personas.GetBySlug(ctx, p.Slug)
			if err == nil {
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				r.seedErr = fmt.Errorf("check default persona %s: %w", p.Slug, err)
				span.RecordError(r.seedErr)
				span.SetStatus(codes.Error, r.seedErr.Error())
				return
			}
			seeded := p
			seeded.ID = uuid.New().String()
			seeded.IsDefault = true
			seeded.CreatedAt = time.Now().UTC()
			if err := r.personas.Put(ctx, &seeded); err != nil {
				r.seedErr = fmt.Errorf("seed default persona %s: %w", p.Slug, err)
				span.RecordError(r.seedErr)
				span.SetStatus(codes.Error, r.seedErr.Error())
				return
			}
			created++
		}
		span.SetAttributes(attribute.Int("personas.seeded", created))
		if created > 0 {
			slog.Info("Seeded default personas", "created", created)
		}
	})
	return r.seedErr
}

// Resolve determines which persona applies to a request.
//
// # Description
//
// The override ID, when non-empty, wins over the profile's active persona.
// A persona is visible to the caller if it is a default or owned by userID.
//
// # Inputs
//
//   - profile: The caller's profile. May be nil (no stored preferences).
//   - userID: The authenticated caller.
//   - overrideID: Explicit per-request persona ID, or empty.
//
// # Outputs
//
//   - Resolution: The applicable persona, or nil with Healed set if a
//     dangling implicit reference was cleared.
//   - error: ErrPersonaNotFound (wrapped) when an explicit override misses.
//     The profile is never modified on the override path.
func (r *Registry) Resolve(ctx context.Context, profile *datatypes.Profile, userID, overrideID string) (Resolution, error) {
	ctx, span := tracer.Start(ctx, "Registry.Resolve")
	defer span.End()

	targetID := overrideID
	if targetID == "" && profile != nil {
		targetID = profile.ActivePersonaID
	}
	if targetID == "" {
		return Resolution{}, nil
	}

	p, err := r.lookupVisible(ctx, targetID, userID)
	if err == nil {
		span.SetAttributes(attribute.String("persona.id", p.ID))
		return Resolution{Persona: p}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Resolution{}, err
	}

	if overrideID != "" {
		// Explicit override: the miss is the caller's error, leave the
		// profile alone.
		return Resolution{}, fmt.Errorf("persona %s: %w", overrideID, ErrPersonaNotFound)
	}

	// Implicit path: the stored reference dangles. Clear it so the next
	// request doesn't pay the lookup again.
	profile.ActivePersonaID = ""
	profile.UpdatedAt = time.Now().UTC()
	if err := r.profiles.Put(ctx, profile); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Resolution{}, fmt.Errorf("clear dangling persona reference: %w", err)
	}
	slog.Warn("Cleared dangling active persona reference", "user_id", userID, "persona_id", targetID)
	span.SetAttributes(attribute.Bool("persona.healed", true))
	return Resolution{Healed: true}, nil
}

// lookupVisible fetches the persona and enforces visibility: defaults are
// visible to everyone, user personas only to their owner.
func (r *Registry) lookupVisible(ctx context.Context, id, userID string) (*datatypes.Persona, error) {
	p, err := r.personas.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsDefault && p.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return p, nil
}
