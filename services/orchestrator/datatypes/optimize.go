// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains request and response types for the optimize endpoint
// and the retrieved-pattern shape shared with the retrieval package.
package datatypes

import "time"

// =============================================================================
// Retrieved Patterns
// =============================================================================

// RetrievedPattern is one reference snippet returned by the pattern index.
//
// # Description
//
// Score is a normalized relevance in [0,1] when the retrieval backend ran a
// scored query, and nil when it fell back to an unscored similarity query.
// nil is deliberately distinguishable from a real low score of 0.
type RetrievedPattern struct {
	Source  string   `json:"source"`
	Snippet string   `json:"snippet"`
	Score   *float64 `json:"score,omitempty"`
}

// =============================================================================
// Optimize Request / Response
// =============================================================================

// OptimizeRequest represents the body of POST /v1/optimize.
//
// # Description
//
// Goal, Audience, and Style override the caller profile's stored defaults
// for this request only. PersonaID, when set, is an explicit persona
// override and must resolve; a miss is a 404, never a silent fallback.
// RequirePatterns makes retrieval mandatory: a retrieval failure then fails
// the request instead of degrading to an empty pattern list.
type OptimizeRequest struct {
	RawPrompt       string `json:"raw_prompt" validate:"required,maxbytes"`
	Goal            string `json:"goal,omitempty" validate:"omitempty,max=500"`
	Audience        string `json:"audience,omitempty" validate:"omitempty,max=500"`
	Style           string `json:"style,omitempty" validate:"omitempty,max=500"`
	PersonaID       string `json:"persona_id,omitempty"`
	RequirePatterns bool   `json:"require_patterns,omitempty"`
}

// Validate validates the OptimizeRequest fields.
func (r *OptimizeRequest) Validate() error {
	return chatValidate.Struct(r)
}

// Citation points at a retrieved pattern that informed the optimization.
type Citation struct {
	Source string   `json:"source"`
	Score  *float64 `json:"score,omitempty"`
}

// OptimizeResponse represents the structured result of an optimize call.
type OptimizeResponse struct {
	OptimizedPrompt string     `json:"optimized_prompt"`
	Rationale       string     `json:"rationale"`
	Checklist       []string   `json:"checklist"`
	Citations       []Citation `json:"citations,omitempty"`
}

// =============================================================================
// Saved Prompt Library
// =============================================================================

// SavedPrompt is a library entry a user keeps after an optimization run.
type SavedPrompt struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	OptimizedPrompt string    `json:"optimized_prompt"`
	Rationale       string    `json:"rationale,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// PromptCreateRequest is the body for POST /v1/prompts.
type PromptCreateRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	OptimizedPrompt string   `json:"optimized_prompt" validate:"required,maxbytes"`
	Rationale       string   `json:"rationale" validate:"omitempty,maxbytes"`
	Tags            []string `json:"tags" validate:"max=16,dive,max=40"`
}

// Validate validates the PromptCreateRequest fields.
func (r *PromptCreateRequest) Validate() error {
	return chatValidate.Struct(r)
}

// PromptUpdateRequest is the body for PATCH /v1/prompts/:id.
// Nil pointers mean "leave unchanged".
type PromptUpdateRequest struct {
	Title           *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	OptimizedPrompt *string   `json:"optimized_prompt,omitempty" validate:"omitempty,maxbytes"`
	Rationale       *string   `json:"rationale,omitempty" validate:"omitempty,maxbytes"`
	Tags            *[]string `json:"tags,omitempty" validate:"omitempty,max=16,dive,max=40"`
}

// Validate validates the PromptUpdateRequest fields.
func (r *PromptUpdateRequest) Validate() error {
	return chatValidate.Struct(r)
}

// Apply writes the non-nil fields onto the saved prompt.
func (r *PromptUpdateRequest) Apply(p *SavedPrompt) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.OptimizedPrompt != nil {
		p.OptimizedPrompt = *r.OptimizedPrompt
	}
	if r.Rationale != nil {
		p.Rationale = *r.Rationale
	}
	if r.Tags != nil {
		p.Tags = *r.Tags
	}
}

// NewSavedPrompt creates a SavedPrompt with a fresh ID and timestamp.
func NewSavedPrompt(userID string, req *PromptCreateRequest) *SavedPrompt {
	return &SavedPrompt{
		ID:              generateUUID(),
		UserID:          userID,
		Title:           req.Title,
		OptimizedPrompt: req.OptimizedPrompt,
		Rationale:       req.Rationale,
		Tags:            req.Tags,
		CreatedAt:       time.Now().UTC(),
	}
}
