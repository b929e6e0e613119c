// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval fetches reference prompt patterns from the vector
// database for meta-prompt assembly.
package retrieval

import (
	"context"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

// PatternSearcher retrieves reference prompt patterns for a query.
//
// Implementations must be safe for concurrent use.
type PatternSearcher interface {
	// Search returns up to topK patterns relevant to the query. Namespace
	// scopes the search; empty namespace searches everything.
	Search(ctx context.Context, query, namespace string, topK int) ([]datatypes.RetrievedPattern, error)
}

// RetrievalError is returned when the pattern index cannot be queried.
// Timeout distinguishes deadline expiry (HTTP 504) from other failures.
type RetrievalError struct {
	Message string
	Timeout bool
}

func (e *RetrievalError) Error() string {
	return "retrieval error: " + e.Message
}

// IsRetrievalError checks if an error is a RetrievalError.
func IsRetrievalError(err error) bool {
	_, ok := err.(*RetrievalError)
	return ok
}

// IsRetrievalTimeout checks if an error is a RetrievalError caused by a
// deadline expiry.
func IsRetrievalTimeout(err error) bool {
	re, ok := err.(*RetrievalError)
	return ok && re.Timeout
}
