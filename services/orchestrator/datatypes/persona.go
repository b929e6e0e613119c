// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the PromptTune orchestrator.
//
// This file contains the persona and profile records. Personas are named
// instruction blocks that bias the LLM's behavior; profiles hold per-user
// optimization defaults and the active persona reference.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// personaValidate is the validator instance for persona datatypes.
var personaValidate = validator.New()

// =============================================================================
// Persona
// =============================================================================

// Persona is a named instruction block applied to LLM calls.
//
// # Description
//
// A persona's Instructions are prepended to the base system prompt when the
// persona is resolved for a request. Personas come in two flavors:
//
//   - Default personas: seeded by the registry, identified by a globally
//     unique Slug, owned by nobody (UserID == "").
//   - User personas: created via the API, owned by exactly one user,
//     Slug empty.
//
// # Invariants
//
//   - Slug, when present, is globally unique.
//   - IsDefault implies UserID == "".
type Persona struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Instructions string    `json:"instructions"`
	Tags         []string  `json:"tags,omitempty"`
	IsDefault    bool      `json:"is_default"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PersonaCreateRequest is the body for POST /v1/personas.
type PersonaCreateRequest struct {
	Name         string   `json:"name" validate:"required,max=120"`
	Description  string   `json:"description" validate:"max=500"`
	Instructions string   `json:"instructions" validate:"required,max=4000"`
	Tags         []string `json:"tags" validate:"max=16,dive,max=40"`
}

// Validate validates the PersonaCreateRequest fields.
func (r *PersonaCreateRequest) Validate() error {
	return personaValidate.Struct(r)
}

// PersonaUpdateRequest is the body for PATCH /v1/personas/:id.
// Nil pointers mean "leave unchanged".
type PersonaUpdateRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,max=120"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Instructions *string   `json:"instructions,omitempty" validate:"omitempty,max=4000"`
	Tags         *[]string `json:"tags,omitempty" validate:"omitempty,max=16,dive,max=40"`
}

// Validate validates the PersonaUpdateRequest fields.
func (r *PersonaUpdateRequest) Validate() error {
	return personaValidate.Struct(r)
}

// Apply writes the non-nil fields onto the persona.
func (r *PersonaUpdateRequest) Apply(p *Persona) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Instructions != nil {
		p.Instructions = *r.Instructions
	}
	if r.Tags != nil {
		p.Tags = *r.Tags
	}
}

// NewPersona creates a user-owned persona with a fresh ID and timestamp.
func NewPersona(userID string, req *PersonaCreateRequest) *Persona {
	return &Persona{
		ID:           generateUUID(),
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Tags:         req.Tags,
		IsDefault:    false,
		UserID:       userID,
		CreatedAt:    time.Now().UTC(),
	}
}

// =============================================================================
// Profile
// =============================================================================

// Profile holds per-user optimization defaults and the active persona.
//
// # Description
//
// A profile is created lazily the first time a user touches preferences or
// the optimize endpoint. ActivePersonaID may reference a persona the user
// owns or a default persona; if the referenced persona is ever deleted, the
// registry clears the reference during resolution (never left dangling).
type Profile struct {
	UserID          string    `json:"user_id"`
	DefaultGoal     string    `json:"default_goal,omitempty"`
	DefaultAudience string    `json:"default_audience,omitempty"`
	DefaultStyle    string    `json:"default_style,omitempty"`
	ActivePersonaID string    `json:"active_persona_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PreferencesUpdateRequest is the body for PUT /v1/me/preferences.
//
// ActivePersonaID uses a pointer so clients can distinguish "leave unchanged"
// (field absent) from "clear the active persona" (explicit empty string).
type PreferencesUpdateRequest struct {
	DefaultGoal     *string `json:"default_goal,omitempty" validate:"omitempty,max=500"`
	DefaultAudience *string `json:"default_audience,omitempty" validate:"omitempty,max=500"`
	DefaultStyle    *string `json:"default_style,omitempty" validate:"omitempty,max=500"`
	ActivePersonaID *string `json:"active_persona_id,omitempty"`
}

// Validate validates the PreferencesUpdateRequest fields.
func (r *PreferencesUpdateRequest) Validate() error {
	return personaValidate.Struct(r)
}
