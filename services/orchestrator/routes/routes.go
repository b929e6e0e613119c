// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/PromptTune/pkg/extensions"
	"github.com/AleutianAI/PromptTune/services/orchestrator/handlers"
	"github.com/AleutianAI/PromptTune/services/orchestrator/memory"
	"github.com/AleutianAI/PromptTune/services/orchestrator/middleware"
	"github.com/AleutianAI/PromptTune/services/orchestrator/personas"
	"github.com/AleutianAI/PromptTune/services/orchestrator/services"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// Deps holds everything the route table needs.
//
// Memory must be the same store the chat service writes to, or session
// deletes would leave the conversation window behind.
type Deps struct {
	OptimizeService *services.OptimizeService
	ChatService     *services.ChatService
	Registry        *personas.Registry
	Personas        storage.PersonaStore
	Profiles        storage.ProfileStore
	Prompts         storage.PromptStore
	Sessions        storage.SessionMarkerStore
	Analytics       storage.AnalyticsStore
	Memory          *memory.Store
}

// SetupRoutes registers all HTTP routes on the router.
//
// /health and /metrics are unauthenticated; everything under /v1 goes
// through the auth middleware from opts.
func SetupRoutes(router *gin.Engine, deps Deps, opts extensions.ServiceOptions) {
	if opts.AuthProvider == nil {
		opts.AuthProvider = &extensions.NopAuthProvider{}
	}

	router.Use(otelgin.Middleware("prompttune-orchestrator"))

	router.GET("/health", handlers.Health())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	personaDeps := handlers.PersonaDeps{
		Registry: deps.Registry,
		Personas: deps.Personas,
		Profiles: deps.Profiles,
	}

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(opts.AuthProvider))
	{
		v1.POST("/optimize", handlers.Optimize(deps.OptimizeService))
		v1.POST("/chat", handlers.Chat(deps.ChatService))

		v1.GET("/personas", handlers.ListPersonas(personaDeps))
		v1.POST("/personas", handlers.CreatePersona(personaDeps))
		v1.PATCH("/personas/:id", handlers.UpdatePersona(personaDeps))
		v1.DELETE("/personas/:id", handlers.DeletePersona(personaDeps))

		v1.GET("/me/preferences", handlers.GetPreferences(personaDeps))
		v1.PUT("/me/preferences", handlers.UpdatePreferences(personaDeps))

		prompts := v1.Group("/prompts")
		{
			prompts.GET("", handlers.ListPrompts(deps.Prompts))
			prompts.POST("", handlers.CreatePrompt(deps.Prompts))
			prompts.GET("/:id", handlers.GetPrompt(deps.Prompts))
			prompts.PATCH("/:id", handlers.UpdatePrompt(deps.Prompts))
			prompts.DELETE("/:id", handlers.DeletePrompt(deps.Prompts))
		}

		v1.GET("/sessions", handlers.ListSessions(deps.Sessions))
		v1.DELETE("/sessions/:sessionId", handlers.DeleteSession(deps.Sessions, deps.Memory))

		v1.POST("/analytics", handlers.RecordAnalytics(deps.Analytics))
	}
}
