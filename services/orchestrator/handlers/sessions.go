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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/memory"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// ListSessions handles GET /v1/sessions. Returns the caller's session
// markers, most recently active first.
func ListSessions(store storage.SessionMarkerStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.ListSessions")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		markers, err := store.List(ctx, userID)
		if err != nil {
			slog.Error("Failed to list sessions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		resp := datatypes.SessionListResponse{
			Sessions: make([]datatypes.SessionMarker, 0, len(markers)),
			Count:    len(markers),
		}
		for _, m := range markers {
			resp.Sessions = append(resp.Sessions, *m)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// DeleteSession handles DELETE /v1/sessions/:sessionId.
//
// Drops both halves of a session: the durable marker and the in-memory
// conversation window. The marker delete is the ownership gate; the window
// is only cleared once the caller is known to own the session. Missing and
// foreign sessions both read as 404.
func DeleteSession(store storage.SessionMarkerStore, mem *memory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.DeleteSession")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		sessionID := c.Param("sessionId")
		if err := store.Delete(ctx, sessionID, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("Failed to delete session", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		mem.Clear(userID, sessionID)
		c.JSON(http.StatusOK, gin.H{"deleted": sessionID})
	}
}
