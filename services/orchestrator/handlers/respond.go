// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the Gin HTTP handlers for the PromptTune
// orchestrator API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/services/orchestrator/services"
)

// writeServiceError maps a service-layer error onto an HTTP response.
//
// Taxonomy:
//
//	InvalidRequestError    -> 400
//	NotFoundError          -> 404
//	MalformedUpstreamError -> 502
//	GatewayError           -> 502
//	GatewayTimeoutError    -> 504
//	anything else          -> 500
func writeServiceError(c *gin.Context, err error) {
	switch {
	case services.IsInvalidRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.IsMalformedUpstream(err), services.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case services.IsGatewayTimeout(err):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		slog.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
