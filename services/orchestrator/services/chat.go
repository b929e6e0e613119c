// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/PromptTune/services/llm"
	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/memory"
	"github.com/AleutianAI/PromptTune/services/orchestrator/observability"
	"github.com/AleutianAI/PromptTune/services/orchestrator/personas"
	"github.com/AleutianAI/PromptTune/services/orchestrator/prompt"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// ChatConfig holds tunables for the chat flow.
type ChatConfig struct {
	// LLMTimeout bounds the completion call.
	LLMTimeout time.Duration
}

func applyChatDefaults(cfg ChatConfig) ChatConfig {
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	return cfg
}

// ChatService runs the prompt simulation chat flow: replay the bounded
// session window, layer persona guidance onto the system prompt, call the
// LLM, and record the turn.
type ChatService struct {
	registry  *personas.Registry
	profiles  storage.ProfileStore
	sessions  storage.SessionMarkerStore
	memory    *memory.Store
	llmClient llm.LLMClient
	metrics   *observability.EngineMetrics
	cfg       ChatConfig
}

// NewChatService creates a ChatService. The metrics instance may be nil.
func NewChatService(
	registry *personas.Registry,
	profiles storage.ProfileStore,
	sessions storage.SessionMarkerStore,
	mem *memory.Store,
	llmClient llm.LLMClient,
	metrics *observability.EngineMetrics,
	cfg ChatConfig,
) *ChatService {
	return &ChatService{
		registry:  registry,
		profiles:  profiles,
		sessions:  sessions,
		memory:    mem,
		llmClient: llmClient,
		metrics:   metrics,
		cfg:       applyChatDefaults(cfg),
	}
}

// Chat runs one conversational turn for the given user.
//
// # Description
//
// The LLM payload is system prompt, then the session's rolling window,
// then the request's new messages. Memory is only written after a
// successful completion; a failed turn leaves the window untouched so the
// client can retry without duplicating history. The durable session marker
// is ensured idempotently on every successful turn.
//
// # Outputs
//
//   - *datatypes.ChatResponse: Reply plus the echoed request messages and
//     the assistant message, in order. Not the full window.
//   - error: InvalidRequestError, NotFoundError, GatewayTimeoutError,
//     MalformedUpstreamError, or GatewayError.
func (s *ChatService) Chat(ctx context.Context, userID string, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "ChatService.Chat")
	defer span.End()
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.metrics.RecordError(observability.EndpointChat, observability.ErrorCodeValidation)
		return nil, &InvalidRequestError{Message: err.Error()}
	}
	span.SetAttributes(attribute.String("chat.session_id", req.SessionID))

	profile, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := s.registry.Resolve(ctx, profile, userID, req.PersonaID)
	if err != nil {
		if errors.Is(err, personas.ErrPersonaNotFound) {
			s.metrics.RecordError(observability.EndpointChat, observability.ErrorCodeNotFound)
			return nil, &NotFoundError{Resource: "persona", ID: req.PersonaID}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.Healed {
		s.metrics.RecordPersonaHeal()
	}

	baseSystem := req.SystemPrompt
	if baseSystem == "" {
		baseSystem = prompt.BaseChatSystemPrompt
	}
	systemPrompt := prompt.ComposeSystemPrompt(res.Persona, baseSystem)

	history := s.memory.Read(userID, req.SessionID)
	payload := make([]datatypes.Message, 0, len(history)+len(req.Messages)+1)
	payload = append(payload, datatypes.Message{Role: datatypes.RoleSystem, Content: systemPrompt})
	payload = append(payload, history...)
	payload = append(payload, req.Messages...)
	span.SetAttributes(attribute.Int("chat.payload_messages", len(payload)))

	lctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()
	temp := llmTemperature
	reply, err := s.llmClient.Complete(lctx, payload, llm.GenerationParams{Temperature: &temp})
	if err != nil {
		mapped := mapLLMError(err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, mapped.Error())
		s.metrics.RecordRequest(observability.EndpointChat, false)
		return nil, mapped
	}

	assistant := datatypes.Message{Role: datatypes.RoleAssistant, Content: reply}
	turn := append(append([]datatypes.Message{}, req.Messages...), assistant)
	s.memory.Append(userID, req.SessionID, turn...)

	if _, created, err := s.sessions.Ensure(ctx, req.SessionID, userID); err != nil {
		// The reply already exists; losing the marker is not worth failing
		// the turn over. The next turn retries the ensure.
		slog.Warn("Failed to ensure session marker", "session_id", req.SessionID, "error", err)
	} else if created {
		slog.Info("Created session marker", "session_id", req.SessionID, "user_id", userID)
	}

	s.metrics.RecordRequest(observability.EndpointChat, true)
	s.metrics.RecordDuration(observability.EndpointChat, time.Since(start).Seconds())
	return &datatypes.ChatResponse{
		Reply:     reply,
		SessionID: req.SessionID,
		Messages:  turn,
	}, nil
}
