// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/personas"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// PersonaDeps bundles the stores the persona handlers need.
type PersonaDeps struct {
	Registry *personas.Registry
	Personas storage.PersonaStore
	Profiles storage.ProfileStore
}

// ListPersonas handles GET /v1/personas.
//
// Returns the seeded defaults plus the caller's own personas. EnsureDefaults
// covers routers wired up without the startup seed; the registry runs the
// seeding at most once per process, so the call is free afterwards.
//
// Query parameters: "search" keeps personas whose name contains the term
// (case-insensitive); "include_defaults=false" restricts the listing to the
// caller's own personas.
func ListPersonas(deps PersonaDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.ListPersonas")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		if err := deps.Registry.EnsureDefaults(ctx); err != nil {
			slog.Error("Failed to ensure default personas", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		includeDefaults := true
		if v := c.Query("include_defaults"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid include_defaults value"})
				return
			}
			includeDefaults = parsed
		}

		list, err := deps.Personas.List(ctx, userID)
		if err != nil {
			slog.Error("Failed to list personas", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		list = filterPersonas(list, c.Query("search"), includeDefaults)
		c.JSON(http.StatusOK, gin.H{"personas": list})
	}
}

// filterPersonas applies the listing query parameters. The search term
// matches against the persona name only, case-insensitively.
func filterPersonas(list []*datatypes.Persona, search string, includeDefaults bool) []*datatypes.Persona {
	if search == "" && includeDefaults {
		return list
	}
	search = strings.ToLower(search)
	out := make([]*datatypes.Persona, 0, len(list))
	for _, p := range list {
		if !includeDefaults && p.IsDefault {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CreatePersona handles POST /v1/personas.
func CreatePersona(deps PersonaDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.CreatePersona")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.PersonaCreateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p := datatypes.NewPersona(userID, &req)
		if err := deps.Personas.Put(ctx, p); err != nil {
			slog.Error("Failed to store persona", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusCreated, p)
	}
}

// UpdatePersona handles PATCH /v1/personas/:id.
//
// Only personas owned by the caller can be updated. Defaults and other
// users' personas both read as "not found" so ownership is not leaked.
func UpdatePersona(deps PersonaDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.UpdatePersona")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.PersonaUpdateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p, ok := getOwnedPersona(c, deps, userID)
		if !ok {
			return
		}

		req.Apply(p)
		if err := deps.Personas.Put(ctx, p); err != nil {
			slog.Error("Failed to update persona", "persona_id", p.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, p)
	}
}

// DeletePersona handles DELETE /v1/personas/:id.
//
// Besides removing the record, a profile still pointing at the persona has
// its active reference cleared so it never dangles past the delete.
func DeletePersona(deps PersonaDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.DeletePersona")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		p, ok := getOwnedPersona(c, deps, userID)
		if !ok {
			return
		}

		if err := deps.Personas.Delete(ctx, p.ID); err != nil {
			slog.Error("Failed to delete persona", "persona_id", p.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if profile, err := deps.Profiles.Get(ctx, userID); err == nil && profile.ActivePersonaID == p.ID {
			profile.ActivePersonaID = ""
			profile.UpdatedAt = time.Now().UTC()
			if err := deps.Profiles.Put(ctx, profile); err != nil {
				slog.Warn("Failed to clear active persona after delete", "persona_id", p.ID, "error", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"deleted": p.ID})
	}
}

// getOwnedPersona fetches the :id persona and enforces that the caller owns
// it. Writes the 404 response itself on a miss.
func getOwnedPersona(c *gin.Context, deps PersonaDeps, userID string) (*datatypes.Persona, bool) {
	id := c.Param("id")
	p, err := deps.Personas.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
			return nil, false
		}
		slog.Error("Failed to load persona", "persona_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	if p.IsDefault || p.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
		return nil, false
	}
	return p, true
}
