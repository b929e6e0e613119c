// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains request and response types for the chat endpoint.
// For optimize types, see optimize.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// RoleSystem, RoleUser, and RoleAssistant are the only message roles the
	// gateway accepts. They match the OpenAI-style chat completion contract.
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// MaxMessageContentBytes is the maximum size of a single message content.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxMessagesPerRequest is the maximum number of incoming messages in a
	// single chat request. History replay happens server-side, so clients
	// normally send one or two.
	MaxMessagesPerRequest = 50
)

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) to bound memory use.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Messages
// =============================================================================

// Message is a single chat turn with an OpenAI-style role.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// =============================================================================
// Chat Request / Response
// =============================================================================

// ChatRequest represents the body of POST /v1/chat.
//
// # Description
//
// A chat turn for the prompt simulation assistant. SessionID binds the turn
// to a bounded rolling history kept in process memory; Messages carries the
// new incoming messages only (history is replayed server-side). PersonaID
// optionally overrides the profile's active persona for this turn, and
// SystemPrompt optionally replaces the default base system prompt.
//
// # Validation
//
//   - SessionID: required
//   - Messages: required, 1-50 elements, each with valid role and <=32KB content
type ChatRequest struct {
	SessionID    string    `json:"session_id" validate:"required,max=128"`
	Messages     []Message `json:"messages" validate:"required,min=1,max=50,dive"`
	PersonaID    string    `json:"persona_id,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty" validate:"omitempty,maxbytes"`
}

// Validate validates the ChatRequest fields.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ChatResponse represents the response from a chat turn.
//
// Messages echoes the incoming messages plus the single assistant reply, in
// order. It is not the full session history; clients that want the rolling
// window back must track it themselves or start a new session.
type ChatResponse struct {
	Reply     string    `json:"reply"`
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// =============================================================================
// Helpers
// =============================================================================

// generateUUID returns a new UUID v4 string.
func generateUUID() string {
	return uuid.New().String()
}
