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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// RecordAnalytics handles POST /v1/analytics. Stores a usage feedback
// event (rating, metrics, note) scoped to the caller.
func RecordAnalytics(store storage.AnalyticsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.RecordAnalytics")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.AnalyticsCreateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		e := datatypes.NewAnalyticsEvent(userID, &req)
		if err := store.Put(ctx, e); err != nil {
			slog.Error("Failed to store analytics event", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusCreated, e)
	}
}
