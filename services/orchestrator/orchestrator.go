// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the core engine service for PromptTune.
//
// This package contains the main service type that coordinates all
// components: HTTP routing, persona registry, pattern retrieval, LLM
// clients, embedded storage, and observability infrastructure.
//
// # Enterprise Integration
//
// The orchestrator supports dependency injection via extensions.ServiceOptions,
// enabling an enterprise build to provide a custom AuthProvider (JWT, API
// keys) without modifying the open-source core.
//
// # Usage
//
// Open source (uses no-op defaults):
//
//	cfg := orchestrator.Config{Port: 12310}
//	svc, err := orchestrator.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/PromptTune/pkg/extensions"
	"github.com/AleutianAI/PromptTune/services/llm"
	"github.com/AleutianAI/PromptTune/services/orchestrator/memory"
	"github.com/AleutianAI/PromptTune/services/orchestrator/observability"
	"github.com/AleutianAI/PromptTune/services/orchestrator/personas"
	"github.com/AleutianAI/PromptTune/services/orchestrator/retrieval"
	"github.com/AleutianAI/PromptTune/services/orchestrator/routes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/services"
	badgerstore "github.com/AleutianAI/PromptTune/services/orchestrator/storage/badger"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the engine service.
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	// Callers must not modify the router after construction.
	Router() *gin.Engine

	// Close releases the embedded database and tracer resources.
	// Safe to call after Run() returns.
	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds engine configuration options.
//
// All fields are optional; New() applies production defaults for zero
// values. Values are typically populated from environment variables by
// cmd/prompttune.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// LLMBackend specifies the LLM provider.
	// Valid values: "openai", "ollama"
	// Default: "ollama"
	LLMBackend string

	// WeaviateURL is the Weaviate pattern index URL.
	// If empty, retrieval is disabled and optimization runs pattern-free.
	// Example: "http://localhost:8080"
	WeaviateURL string

	// DataDir is the directory for the embedded BadgerDB files.
	// Default: "./data/prompttune"
	DataDir string

	// MaxHistory is the per-session rolling window size in messages.
	// Default: 20
	MaxHistory int

	// RetrievalTopK is the number of patterns fetched per optimization.
	// Default: 4
	RetrievalTopK int

	// RetrievalNamespace scopes pattern search. Empty searches everything.
	RetrievalNamespace string

	// RetrievalTimeout bounds the pattern index query. Default: 5s
	RetrievalTimeout time.Duration

	// LLMTimeout bounds each completion call. Default: 60s
	LLMTimeout time.Duration

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "prompttune-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics registry.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config         Config
	opts           extensions.ServiceOptions
	router         *gin.Engine
	db             *badger.DB
	llmClient      llm.LLMClient
	weaviateClient *weaviate.Client
	tracerCleanup  func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new engine Service with the given configuration.
//
// # Description
//
// New initializes all components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Opens the embedded BadgerDB and seeds default personas
//  5. Creates the Weaviate pattern searcher if a URL is configured
//  6. Creates the LLM client for the configured backend
//  7. Sets up HTTP routes with extension options
//
// If opts is nil, DefaultOptions() is used (no-op auth, local user).
//
// # Outputs
//
//   - Service: Ready-to-run engine service
//   - error: Non-nil if initialization fails
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	var metrics *observability.EngineMetrics
	if s.config.EnableMetrics {
		metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	s.db, err = badgerstore.Open(badgerstore.DefaultConfig(s.config.DataDir))
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	stores := badgerstore.NewStores(s.db)

	registry := personas.NewRegistry(stores.Personas, stores.Profiles)
	if err := registry.EnsureDefaults(context.Background()); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to seed default personas: %w", err)
	}

	// Weaviate is optional; without it optimization runs pattern-free.
	var searcher retrieval.PatternSearcher
	if err := s.initWeaviate(); err != nil {
		slog.Warn("Weaviate initialization failed, running without pattern retrieval",
			"error", err)
	}
	if s.weaviateClient != nil {
		searcher = retrieval.NewWeaviatePatternSearcher(s.weaviateClient)
	}

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	optimizeSvc := services.NewOptimizeService(registry, stores.Profiles, searcher, s.llmClient, metrics, services.OptimizeConfig{
		RetrievalTopK:      s.config.RetrievalTopK,
		RetrievalNamespace: s.config.RetrievalNamespace,
		RetrievalTimeout:   s.config.RetrievalTimeout,
		LLMTimeout:         s.config.LLMTimeout,
	})
	// The chat service and the session routes share one memory store so a
	// session delete also drops the conversation window.
	mem := memory.NewStore(s.config.MaxHistory)
	chatSvc := services.NewChatService(registry, stores.Profiles, stores.Sessions, mem, s.llmClient, metrics, services.ChatConfig{
		LLMTimeout: s.config.LLMTimeout,
	})

	s.initRouter(routes.Deps{
		OptimizeService: optimizeSvc,
		ChatService:     chatSvc,
		Registry:        registry,
		Personas:        stores.Personas,
		Profiles:        stores.Profiles,
		Prompts:         stores.Prompts,
		Sessions:        stores.Sessions,
		Analytics:       stores.Analytics,
		Memory:          mem,
	})

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting engine server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Close releases storage and tracer resources.
func (s *service) Close() error {
	s.cleanup()
	return nil
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data/prompttune"
	}
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = memory.DefaultMaxHistory
	}
	if cfg.RetrievalTopK == 0 {
		cfg.RetrievalTopK = 4
	}
	if cfg.RetrievalTimeout == 0 {
		cfg.RetrievalTimeout = 5 * time.Second
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "prompttune-otel-collector:4317"
	}
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("prompttune-orchestrator")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initWeaviate initializes the Weaviate pattern index client.
//
// Returns nil error if WeaviateURL is empty (optional dependency).
func (s *service) initWeaviate() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, running without pattern retrieval")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	clientConf := weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	}

	s.weaviateClient, err = weaviate.NewClient(clientConf)
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	if err := retrieval.EnsurePatternSchema(context.Background(), s.weaviateClient); err != nil {
		return fmt.Errorf("failed to ensure pattern schema: %w", err)
	}
	slog.Info("Weaviate client initialized", "url", weaviateURL)

	return nil
}

// initLLMClient initializes the LLM provider client.
func (s *service) initLLMClient() error {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	default:
		slog.Warn("Unknown LLM backend, defaulting to ollama", "backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewOllamaClient()
	}

	return err
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter(deps routes.Deps) {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()

	routes.SetupRoutes(s.router, deps, s.opts)
}

// cleanup releases all resources held by the service.
//
// Called when Run() exits or on initialization failure.
func (s *service) cleanup() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Warn("Storage close error", "error", err)
		}
		s.db = nil
	}

	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
		s.tracerCleanup = nil
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
