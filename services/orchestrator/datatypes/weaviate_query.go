// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// =============================================================================
// Generic GraphQL Response Parser
// =============================================================================

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target type.
//
// # Description
//
// This generic function encapsulates the marshal/unmarshal pattern required to
// convert Weaviate's dynamic response (map[string]models.JSONObject) into a
// strongly-typed Go struct. The target type T must have json tags matching
// the expected response shape.
//
// # Limitations
//
//   - Type mismatches result in zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Pattern Query Response Types
// =============================================================================

// PatternQueryResponse represents the response from querying the
// PromptPattern class.
type PatternQueryResponse struct {
	Get struct {
		PromptPattern []PatternResult `json:"PromptPattern"`
	} `json:"Get"`
}

// PatternResult represents a single prompt pattern from a query.
//
// Weaviate returns hybrid scores as strings in _additional, so Score stays
// a *string here; the retrieval layer converts it to a float and drops
// unparseable values.
type PatternResult struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	Namespace  string `json:"namespace"`
	Additional struct {
		ID    string  `json:"id"`
		Score *string `json:"score"`
	} `json:"_additional"`
}

// PatternProperties represents the properties for creating a PromptPattern
// object.
type PatternProperties struct {
	Content   string `json:"content"`
	Source    string `json:"source"`
	Namespace string `json:"namespace"`
}

// ToMap converts PatternProperties to the map format required by Weaviate's
// WithProperties() method.
func (p *PatternProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"content":   p.Content,
		"source":    p.Source,
		"namespace": p.Namespace,
	}
}
