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
	"errors"
	"log/slog"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

var tracer = otel.Tracer("prompttune.orchestrator.retrieval")

const (
	// patternClassName is the Weaviate class holding reference prompt patterns.
	patternClassName = "PromptPattern"

	// maxSnippetLength bounds each snippet carried into the meta-prompt so a
	// handful of patterns cannot crowd out the user's own prompt.
	maxSnippetLength = 500
)

// WeaviatePatternSearcher retrieves prompt patterns via hybrid search.
//
// # Description
//
// The primary query is a hybrid (BM25 + vector) search which yields a
// relevance score per result. If the hybrid query fails, for example when
// the class has no vectorizer configured, the searcher degrades to a plain
// BM25 query and returns the results unscored (nil Score) rather than
// inventing a fake relevance of zero.
type WeaviatePatternSearcher struct {
	client *weaviate.Client
}

var _ PatternSearcher = (*WeaviatePatternSearcher)(nil)

// NewWeaviatePatternSearcher creates a searcher over the given client.
func NewWeaviatePatternSearcher(client *weaviate.Client) *WeaviatePatternSearcher {
	return &WeaviatePatternSearcher{client: client}
}

// Search implements the PatternSearcher interface.
func (s *WeaviatePatternSearcher) Search(ctx context.Context, query, namespace string, topK int) ([]datatypes.RetrievedPattern, error) {
	ctx, span := tracer.Start(ctx, "WeaviatePatternSearcher.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.top_k", topK))

	patterns, err := s.searchHybrid(ctx, query, namespace, topK)
	if err == nil {
		span.SetAttributes(attribute.Int("retrieval.results", len(patterns)))
		return patterns, nil
	}
	if timeoutErr(ctx, err) {
		retErr := &RetrievalError{Message: err.Error(), Timeout: true}
		span.RecordError(retErr)
		span.SetStatus(codes.Error, retErr.Error())
		return nil, retErr
	}

	slog.Warn("Hybrid pattern search failed, falling back to BM25", "error", err)
	patterns, err = s.searchBM25(ctx, query, namespace, topK)
	if err != nil {
		retErr := &RetrievalError{Message: err.Error(), Timeout: timeoutErr(ctx, err)}
		span.RecordError(retErr)
		span.SetStatus(codes.Error, retErr.Error())
		return nil, retErr
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(patterns)))
	span.SetAttributes(attribute.Bool("retrieval.bm25_fallback", true))
	return patterns, nil
}

func (s *WeaviatePatternSearcher) searchHybrid(ctx context.Context, query, namespace string, topK int) ([]datatypes.RetrievedPattern, error) {
	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithQuery(query)

	builder := s.client.GraphQL().Get().
		WithClassName(patternClassName).
		WithFields(patternFields()...).
		WithHybrid(hybrid).
		WithLimit(topK)
	if namespace != "" {
		builder = builder.WithWhere(namespaceFilter(namespace))
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := datatypes.ParseGraphQLResponse[datatypes.PatternQueryResponse](result)
	if err != nil {
		return nil, err
	}
	return toPatterns(parsed, true), nil
}

func (s *WeaviatePatternSearcher) searchBM25(ctx context.Context, query, namespace string, topK int) ([]datatypes.RetrievedPattern, error) {
	bm25 := s.client.GraphQL().Bm25ArgBuilder().
		WithQuery(query).
		WithProperties("content")

	builder := s.client.GraphQL().Get().
		WithClassName(patternClassName).
		WithFields(patternFields()...).
		WithBM25(bm25).
		WithLimit(topK)
	if namespace != "" {
		builder = builder.WithWhere(namespaceFilter(namespace))
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := datatypes.ParseGraphQLResponse[datatypes.PatternQueryResponse](result)
	if err != nil {
		return nil, err
	}
	return toPatterns(parsed, false), nil
}

func patternFields() []graphql.Field {
	return []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "namespace"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "score"},
		}},
	}
}

func namespaceFilter(namespace string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"namespace"}).
		WithOperator(filters.Equal).
		WithValueString(namespace)
}

// toPatterns converts parsed query results into retrieved patterns,
// truncating snippets and converting the string score when scored.
func toPatterns(parsed *datatypes.PatternQueryResponse, scored bool) []datatypes.RetrievedPattern {
	out := make([]datatypes.RetrievedPattern, 0, len(parsed.Get.PromptPattern))
	for _, r := range parsed.Get.PromptPattern {
		snippet := r.Content
		if len(snippet) > maxSnippetLength {
			snippet = snippet[:maxSnippetLength]
		}
		p := datatypes.RetrievedPattern{
			Source:  r.Source,
			Snippet: snippet,
		}
		if scored && r.Additional.Score != nil {
			if v, err := strconv.ParseFloat(*r.Additional.Score, 64); err == nil {
				p.Score = &v
			}
		}
		out = append(out, p)
	}
	return out
}

func timeoutErr(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
