// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command prompttune starts the PromptTune engine HTTP server.
//
// This is the main entry point for the containerized service. It reads
// configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - PROMPTTUNE_PORT: HTTP server port (default: 12310)
//   - LLM_BACKEND_TYPE: LLM provider - openai, ollama (default: ollama)
//   - WEAVIATE_SERVICE_URL: Weaviate pattern index URL (optional)
//   - PROMPTTUNE_DATA_DIR: BadgerDB directory (default: ./data/prompttune)
//   - PROMPTTUNE_MAX_HISTORY: per-session window size (default: 20)
//   - PROMPTTUNE_RETRIEVAL_TOP_K: patterns per optimization (default: 4)
//   - PROMPTTUNE_RETRIEVAL_NAMESPACE: pattern corpus partition (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: prompttune-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o prompttune ./cmd/prompttune
//
//	# Run
//	./prompttune
//
//	# Or via container
//	podman-compose up prompttune
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/PromptTune/services/orchestrator"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:               getEnvInt("PROMPTTUNE_PORT", 12310),
		LLMBackend:         getEnvString("LLM_BACKEND_TYPE", "ollama"),
		WeaviateURL:        os.Getenv("WEAVIATE_SERVICE_URL"),
		DataDir:            getEnvString("PROMPTTUNE_DATA_DIR", "./data/prompttune"),
		MaxHistory:         getEnvInt("PROMPTTUNE_MAX_HISTORY", 20),
		RetrievalTopK:      getEnvInt("PROMPTTUNE_RETRIEVAL_TOP_K", 4),
		RetrievalNamespace: os.Getenv("PROMPTTUNE_RETRIEVAL_NAMESPACE"),
		OTelEndpoint:       getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "prompttune-otel-collector:4317"),
	}

	slog.Info("Starting PromptTune engine",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"weaviate_url", cfg.WeaviateURL,
		"data_dir", cfg.DataDir,
	)

	// Create the service with default (no-op) extension options.
	// Enterprise builds pass custom ServiceOptions here.
	svc, err := orchestrator.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Engine error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
