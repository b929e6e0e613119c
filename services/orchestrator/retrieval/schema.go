// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// GetPatternSchema returns the Weaviate class for reference prompt patterns.
func GetPatternSchema() *models.Class {
	return &models.Class{
		Class:       patternClassName,
		Description: "Reference prompt patterns and worked examples for optimization guidance.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The pattern text or worked example",
			},
			{
				Name:        "source",
				DataType:    []string{"text"},
				Description: "Where the pattern came from (document name, URL, curated set)",
			},
			{
				Name:        "namespace",
				DataType:    []string{"text"},
				Description: "Logical corpus partition for scoped retrieval",
			},
		},
	}
}

// EnsurePatternSchema creates the PromptPattern class if it does not exist.
//
// Existing classes are left untouched so operator tweaks to the index
// configuration survive restarts.
func EnsurePatternSchema(ctx context.Context, client *weaviate.Client) error {
	class := GetPatternSchema()

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it...", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}
