// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services contains the optimize and chat orchestration flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/PromptTune/services/llm"
	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/observability"
	"github.com/AleutianAI/PromptTune/services/orchestrator/personas"
	"github.com/AleutianAI/PromptTune/services/orchestrator/prompt"
	"github.com/AleutianAI/PromptTune/services/orchestrator/retrieval"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

var tracer = otel.Tracer("prompttune.orchestrator.services")

// llmTemperature is the sampling temperature for both flows. Optimization
// and simulation both want determinism over creativity.
const llmTemperature = float32(0.2)

// OptimizeConfig holds tunables for the optimize flow.
type OptimizeConfig struct {
	// RetrievalTopK is the number of patterns requested per optimization.
	RetrievalTopK int

	// RetrievalNamespace scopes pattern search. Empty searches everything.
	RetrievalNamespace string

	// RetrievalTimeout bounds the pattern index query.
	RetrievalTimeout time.Duration

	// LLMTimeout bounds the completion call.
	LLMTimeout time.Duration
}

// applyOptimizeDefaults fills zero values with production defaults.
func applyOptimizeDefaults(cfg OptimizeConfig) OptimizeConfig {
	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = 4
	}
	if cfg.RetrievalTimeout <= 0 {
		cfg.RetrievalTimeout = 5 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	return cfg
}

// OptimizeService runs the prompt optimization flow: resolve persona, merge
// intent defaults, retrieve patterns, assemble the meta-prompt, call the
// LLM, and parse the structured result.
type OptimizeService struct {
	registry  *personas.Registry
	profiles  storage.ProfileStore
	searcher  retrieval.PatternSearcher
	llmClient llm.LLMClient
	metrics   *observability.EngineMetrics
	cfg       OptimizeConfig
}

// NewOptimizeService creates an OptimizeService. The metrics instance may
// be nil (recording becomes a no-op).
func NewOptimizeService(
	registry *personas.Registry,
	profiles storage.ProfileStore,
	searcher retrieval.PatternSearcher,
	llmClient llm.LLMClient,
	metrics *observability.EngineMetrics,
	cfg OptimizeConfig,
) *OptimizeService {
	return &OptimizeService{
		registry:  registry,
		profiles:  profiles,
		searcher:  searcher,
		llmClient: llmClient,
		metrics:   metrics,
		cfg:       applyOptimizeDefaults(cfg),
	}
}

// Optimize runs one optimization request for the given user.
//
// # Description
//
// Request-level goal, audience, and style override the profile defaults
// field by field. Pattern retrieval degrades to an empty pattern list on
// failure unless the request set RequirePatterns; the LLM call never
// degrades. The parsed response always carries a non-empty optimized
// prompt because the parser falls back to the raw completion text.
//
// # Outputs
//
//   - *datatypes.OptimizeResponse: The structured optimization result.
//   - error: InvalidRequestError, NotFoundError, GatewayTimeoutError,
//     MalformedUpstreamError, or GatewayError.
func (s *OptimizeService) Optimize(ctx context.Context, userID string, req *datatypes.OptimizeRequest) (*datatypes.OptimizeResponse, error) {
	ctx, span := tracer.Start(ctx, "OptimizeService.Optimize")
	defer span.End()
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.metrics.RecordError(observability.EndpointOptimize, observability.ErrorCodeValidation)
		return nil, &InvalidRequestError{Message: err.Error()}
	}

	profile, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := s.registry.Resolve(ctx, profile, userID, req.PersonaID)
	if err != nil {
		if errors.Is(err, personas.ErrPersonaNotFound) {
			s.metrics.RecordError(observability.EndpointOptimize, observability.ErrorCodeNotFound)
			return nil, &NotFoundError{Resource: "persona", ID: req.PersonaID}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.Healed {
		s.metrics.RecordPersonaHeal()
	}

	effectiveGoal := firstNonEmpty(req.Goal, profile.DefaultGoal)
	effectiveAudience := firstNonEmpty(req.Audience, profile.DefaultAudience)
	effectiveStyle := firstNonEmpty(req.Style, profile.DefaultStyle)

	patterns, err := s.retrievePatterns(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("optimize.patterns", len(patterns)))

	metaPrompt := prompt.BuildMetaPrompt(prompt.MetaPromptInput{
		RawPrompt: req.RawPrompt,
		Goal:      effectiveGoal,
		Audience:  effectiveAudience,
		Style:     effectiveStyle,
		Patterns:  patterns,
		Persona:   res.Persona,
	})
	systemPrompt := prompt.ComposeSystemPrompt(res.Persona, prompt.BaseOptimizeSystemPrompt)

	messages := []datatypes.Message{
		{Role: datatypes.RoleSystem, Content: systemPrompt},
		{Role: datatypes.RoleUser, Content: metaPrompt},
	}
	completion, err := s.complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordRequest(observability.EndpointOptimize, false)
		return nil, err
	}

	parsed := prompt.ParseStructuredResponse(completion)
	resp := &datatypes.OptimizeResponse{
		OptimizedPrompt: parsed.OptimizedPrompt,
		Rationale:       parsed.Rationale,
		Checklist:       parsed.Checklist,
		Citations:       toCitations(patterns),
	}

	s.metrics.RecordRequest(observability.EndpointOptimize, true)
	s.metrics.RecordDuration(observability.EndpointOptimize, time.Since(start).Seconds())
	return resp, nil
}

// retrievePatterns queries the pattern index with its own deadline.
// Failures degrade to an empty result unless the request demands patterns.
func (s *OptimizeService) retrievePatterns(ctx context.Context, req *datatypes.OptimizeRequest) ([]datatypes.RetrievedPattern, error) {
	if s.searcher == nil {
		return nil, nil
	}
	rctx, cancel := context.WithTimeout(ctx, s.cfg.RetrievalTimeout)
	defer cancel()

	query := prompt.QueryExcerpt(req.RawPrompt)
	patterns, err := s.searcher.Search(rctx, query, s.cfg.RetrievalNamespace, s.cfg.RetrievalTopK)
	if err == nil {
		return patterns, nil
	}

	if req.RequirePatterns {
		s.metrics.RecordError(observability.EndpointOptimize, observability.ErrorCodeRetrievalError)
		if retrieval.IsRetrievalTimeout(err) {
			return nil, &GatewayTimeoutError{Upstream: "pattern index"}
		}
		return nil, &GatewayError{Upstream: "pattern index", Message: err.Error()}
	}

	slog.Warn("Pattern retrieval failed, continuing without patterns", "error", err)
	s.metrics.RecordRetrievalFallback()
	return nil, nil
}

// complete calls the LLM with the flow's deadline and temperature and maps
// backend failures onto the service error taxonomy.
func (s *OptimizeService) complete(ctx context.Context, messages []datatypes.Message) (string, error) {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	temp := llmTemperature
	completion, err := s.llmClient.Complete(lctx, messages, llm.GenerationParams{Temperature: &temp})
	if err != nil {
		return "", mapLLMError(err)
	}
	return completion, nil
}

// mapLLMError converts LLM client failures into the service error taxonomy.
func mapLLMError(err error) error {
	if llm.IsUpstreamError(err) {
		return &MalformedUpstreamError{Upstream: "llm", Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayTimeoutError{Upstream: "llm"}
	}
	return &GatewayError{Upstream: "llm", Message: err.Error()}
}

// loadProfile fetches the user's profile, substituting an empty in-memory
// profile when none has been stored yet. The empty profile is not persisted;
// it only exists once the user writes preferences.
func loadProfile(ctx context.Context, profiles storage.ProfileStore, userID string) (*datatypes.Profile, error) {
	p, err := profiles.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return &datatypes.Profile{UserID: userID}, nil
	}
	return nil, fmt.Errorf("load profile: %w", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func toCitations(patterns []datatypes.RetrievedPattern) []datatypes.Citation {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]datatypes.Citation, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, datatypes.Citation{Source: p.Source, Score: p.Score})
	}
	return out
}
