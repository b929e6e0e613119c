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
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/services"
)

var tracer = otel.Tracer("prompttune.orchestrator.handlers")

// Optimize handles POST /v1/optimize.
//
// # Description
//
// Binds the request body, runs the optimization flow for the authenticated
// user, and returns the structured result. Service errors map onto HTTP
// statuses via writeServiceError.
func Optimize(svc *services.OptimizeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "handlers.Optimize")
		defer span.End()

		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req datatypes.OptimizeRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		resp, err := svc.Optimize(ctx, userID, &req)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
