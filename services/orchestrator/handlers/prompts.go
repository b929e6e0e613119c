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
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// ListPrompts handles GET /v1/prompts. Returns the caller's saved prompt
// library, newest first.
//
// Query parameters: "q" keeps entries whose title or optimized prompt
// contains the term (case-insensitive); "tags" may repeat and an entry must
// carry every requested tag to survive.
func ListPrompts(store storage.PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.ListPrompts")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		list, err := store.List(ctx, userID)
		if err != nil {
			slog.Error("Failed to list prompts", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		list = filterPrompts(list, c.Query("q"), c.QueryArray("tags"))
		c.JSON(http.StatusOK, gin.H{"prompts": list})
	}
}

// filterPrompts applies the library listing query parameters.
func filterPrompts(list []*datatypes.SavedPrompt, q string, tags []string) []*datatypes.SavedPrompt {
	if q == "" && len(tags) == 0 {
		return list
	}
	q = strings.ToLower(q)
	out := make([]*datatypes.SavedPrompt, 0, len(list))
	for _, p := range list {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.OptimizedPrompt), q) {
			continue
		}
		if !hasAllTags(p.Tags, tags) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// hasAllTags reports whether have contains every tag in want.
func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CreatePrompt handles POST /v1/prompts.
func CreatePrompt(store storage.PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.CreatePrompt")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.PromptCreateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p := datatypes.NewSavedPrompt(userID, &req)
		if err := store.Put(ctx, p); err != nil {
			slog.Error("Failed to store prompt", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusCreated, p)
	}
}

// GetPrompt handles GET /v1/prompts/:id.
func GetPrompt(store storage.PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.GetPrompt")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		p, err := store.Get(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
				return
			}
			slog.Error("Failed to load prompt", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, p)
	}
}

// UpdatePrompt handles PATCH /v1/prompts/:id.
func UpdatePrompt(store storage.PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.UpdatePrompt")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.PromptUpdateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p, err := store.Get(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
				return
			}
			slog.Error("Failed to load prompt", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		req.Apply(p)
		if err := store.Put(ctx, p); err != nil {
			slog.Error("Failed to update prompt", "prompt_id", p.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, p)
	}
}

// DeletePrompt handles DELETE /v1/prompts/:id.
func DeletePrompt(store storage.PromptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.DeletePrompt")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		id := c.Param("id")
		if err := store.Delete(ctx, userID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
				return
			}
			slog.Error("Failed to delete prompt", "prompt_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}
