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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// GetPreferences handles GET /v1/me/preferences.
//
// A user who never wrote preferences gets an empty profile back rather than
// a 404; the profile is created lazily on first write.
func GetPreferences(deps PersonaDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.GetPreferences")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		profile, err := deps.Profiles.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusOK, &datatypes.Profile{UserID: userID})
				return
			}
			slog.Error("Failed to load profile", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

// UpdatePreferences handles PUT /v1/me/preferences.
//
// # Description
//
// Fields absent from the body are left unchanged. ActivePersonaID is
// special-cased: an explicit empty string clears the active persona, and a
// non-empty value must resolve to a persona visible to the caller (a
// default or one they own) or the update is rejected with 404 and nothing
// is persisted.
func UpdatePreferences(deps PersonaDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.UpdatePreferences")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.PreferencesUpdateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		profile, err := deps.Profiles.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				slog.Error("Failed to load profile", "user_id", userID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			profile = &datatypes.Profile{UserID: userID}
		}

		if req.DefaultGoal != nil {
			profile.DefaultGoal = *req.DefaultGoal
		}
		if req.DefaultAudience != nil {
			profile.DefaultAudience = *req.DefaultAudience
		}
		if req.DefaultStyle != nil {
			profile.DefaultStyle = *req.DefaultStyle
		}
		if req.ActivePersonaID != nil {
			if *req.ActivePersonaID == "" {
				profile.ActivePersonaID = ""
			} else {
				p, err := deps.Personas.Get(ctx, *req.ActivePersonaID)
				if err != nil || (!p.IsDefault && p.UserID != userID) {
					if err != nil && !errors.Is(err, storage.ErrNotFound) {
						slog.Error("Failed to load persona", "persona_id", *req.ActivePersonaID, "error", err)
						c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
						return
					}
					c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
					return
				}
				profile.ActivePersonaID = p.ID
			}
		}

		profile.UpdatedAt = time.Now().UTC()
		if err := deps.Profiles.Put(ctx, profile); err != nil {
			slog.Error("Failed to store profile", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}
