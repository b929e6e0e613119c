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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/services"
)

// Chat handles POST /v1/chat.
//
// Runs one simulation turn against the caller's session window and returns
// the assistant reply plus the echoed turn messages.
func Chat(svc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.Chat")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		resp, err := svc.Chat(ctx, userID, &req)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
