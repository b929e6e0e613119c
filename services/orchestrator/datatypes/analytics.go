// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// AnalyticsEvent is a usage feedback record: a rating or free-form note a
// user attaches to an optimization run, optionally pointing at a saved
// prompt.
//
// Metrics is an open key-value bag so clients can report whatever they
// measure (token counts, latency, acceptance) without a schema change.
type AnalyticsEvent struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	PromptID  string         `json:"prompt_id,omitempty"`
	Rating    *int           `json:"rating,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AnalyticsCreateRequest is the body for POST /v1/analytics.
// All fields are optional; a rating, when present, is 1-5.
type AnalyticsCreateRequest struct {
	PromptID string         `json:"prompt_id,omitempty"`
	Rating   *int           `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Metrics  map[string]any `json:"metrics,omitempty"`
	Note     string         `json:"note,omitempty" validate:"omitempty,max=4000"`
}

// Validate validates the AnalyticsCreateRequest fields.
func (r *AnalyticsCreateRequest) Validate() error {
	return chatValidate.Struct(r)
}

// NewAnalyticsEvent creates an AnalyticsEvent with a fresh ID and timestamp.
func NewAnalyticsEvent(userID string, req *AnalyticsCreateRequest) *AnalyticsEvent {
	return &AnalyticsEvent{
		ID:        generateUUID(),
		UserID:    userID,
		PromptID:  req.PromptID,
		Rating:    req.Rating,
		Metrics:   req.Metrics,
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}
}
