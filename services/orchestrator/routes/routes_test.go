// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PromptTune/pkg/extensions"
	"github.com/AleutianAI/PromptTune/services/llm"
	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/memory"
	"github.com/AleutianAI/PromptTune/services/orchestrator/personas"
	"github.com/AleutianAI/PromptTune/services/orchestrator/services"
	badgerstore "github.com/AleutianAI/PromptTune/services/orchestrator/storage/badger"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// mockLLMClient is a minimal mock for llm.LLMClient.
type mockLLMClient struct{}

func (m *mockLLMClient) Complete(_ context.Context, _ []datatypes.Message, _ llm.GenerationParams) (string, error) {
	return "<optimized>mock prompt</optimized><rationale>mock rationale</rationale>", nil
}

// mockSearcher returns no patterns, like an empty index.
type mockSearcher struct{}

func (m *mockSearcher) Search(_ context.Context, _, _ string, _ int) ([]datatypes.RetrievedPattern, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router, _ := newTestEnv(t)
	return router
}

// newTestEnv builds the router plus the memory store behind it, for tests
// that need to observe the conversation window directly.
func newTestEnv(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	db, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	stores := badgerstore.NewStores(db)
	registry := personas.NewRegistry(stores.Personas, stores.Profiles)
	mockLLM := &mockLLMClient{}
	mem := memory.NewStore(20)

	optimizeSvc := services.NewOptimizeService(registry, stores.Profiles, &mockSearcher{}, mockLLM, nil, services.OptimizeConfig{
		RetrievalTimeout: time.Second,
		LLMTimeout:       time.Second,
	})
	chatSvc := services.NewChatService(registry, stores.Profiles, stores.Sessions, mem, mockLLM, nil, services.ChatConfig{
		LLMTimeout: time.Second,
	})

	router := gin.New()
	SetupRoutes(router, Deps{
		OptimizeService: optimizeSvc,
		ChatService:     chatSvc,
		Registry:        registry,
		Personas:        stores.Personas,
		Profiles:        stores.Profiles,
		Prompts:         stores.Prompts,
		Sessions:        stores.Sessions,
		Analytics:       stores.Analytics,
		Memory:          mem,
	}, extensions.DefaultOptions())
	return router, mem
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// ============================================================================
// Route Registration Tests
// ============================================================================

func TestSetupRoutes_CoreRoutesRegistered(t *testing.T) {
	router := newTestRouter(t)

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/optimize"},
		{"POST", "/v1/chat"},
		{"GET", "/v1/personas"},
		{"POST", "/v1/personas"},
		{"PATCH", "/v1/personas/:id"},
		{"DELETE", "/v1/personas/:id"},
		{"GET", "/v1/me/preferences"},
		{"PUT", "/v1/me/preferences"},
		{"GET", "/v1/prompts"},
		{"POST", "/v1/prompts"},
		{"GET", "/v1/prompts/:id"},
		{"PATCH", "/v1/prompts/:id"},
		{"DELETE", "/v1/prompts/:id"},
		{"GET", "/v1/sessions"},
		{"DELETE", "/v1/sessions/:sessionId"},
		{"POST", "/v1/analytics"},
	}

	routes := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", want.method, want.path)
		}
	}
}

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Health endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Metrics endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("Metrics endpoint should return Content-Type header")
	}
}

// ============================================================================
// API Flow Tests
// ============================================================================

func TestOptimizeEndpoint(t *testing.T) {
	router := newTestRouter(t)

	t.Run("structured response", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/optimize", gin.H{"raw_prompt": "make this better"})
		if w.Code != http.StatusOK {
			t.Fatalf("optimize returned %d: %s", w.Code, w.Body.String())
		}
		resp := decode[datatypes.OptimizeResponse](t, w)
		if resp.OptimizedPrompt != "mock prompt" {
			t.Errorf("optimized = %q", resp.OptimizedPrompt)
		}
		if resp.Rationale != "mock rationale" {
			t.Errorf("rationale = %q", resp.Rationale)
		}
	})

	t.Run("missing raw prompt is 400", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/optimize", gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/v1/optimize", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown persona override is 404", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/optimize", gin.H{
			"raw_prompt": "raw",
			"persona_id": "ghost",
		})
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestChatEndpoint(t *testing.T) {
	router := newTestRouter(t)

	t.Run("turn and session marker", func(t *testing.T) {
		body := gin.H{
			"session_id": "s1",
			"messages":   []gin.H{{"role": "user", "content": "hi"}},
		}
		w := doJSON(t, router, "POST", "/v1/chat", body)
		if w.Code != http.StatusOK {
			t.Fatalf("chat returned %d: %s", w.Code, w.Body.String())
		}
		resp := decode[datatypes.ChatResponse](t, w)
		if resp.SessionID != "s1" {
			t.Errorf("session id = %q", resp.SessionID)
		}
		if len(resp.Messages) != 2 {
			t.Errorf("expected echoed turn of 2 messages, got %d", len(resp.Messages))
		}

		lw := doJSON(t, router, "GET", "/v1/sessions", nil)
		if lw.Code != http.StatusOK {
			t.Fatalf("list sessions returned %d", lw.Code)
		}
		list := decode[datatypes.SessionListResponse](t, lw)
		if list.Count != 1 || len(list.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %+v", list)
		}
		if list.Sessions[0].SessionID != "s1" {
			t.Errorf("marker session id = %q", list.Sessions[0].SessionID)
		}
	})

	t.Run("empty messages is 400", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/chat", gin.H{"session_id": "s2"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestPersonaEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("list seeds defaults", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/v1/personas", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("list personas returned %d", w.Code)
		}
		resp := decode[struct {
			Personas []datatypes.Persona `json:"personas"`
		}](t, w)
		if len(resp.Personas) != len(personas.DefaultCatalog()) {
			t.Errorf("expected %d seeded personas, got %d", len(personas.DefaultCatalog()), len(resp.Personas))
		}
	})

	t.Run("create update delete round trip", func(t *testing.T) {
		cw := doJSON(t, router, "POST", "/v1/personas", gin.H{
			"name":         "Reviewer",
			"instructions": "Review prompts carefully.",
		})
		if cw.Code != http.StatusCreated {
			t.Fatalf("create persona returned %d: %s", cw.Code, cw.Body.String())
		}
		created := decode[datatypes.Persona](t, cw)
		if created.ID == "" || created.IsDefault {
			t.Fatalf("unexpected created persona: %+v", created)
		}

		uw := doJSON(t, router, "PATCH", "/v1/personas/"+created.ID, gin.H{"name": "Strict Reviewer"})
		if uw.Code != http.StatusOK {
			t.Fatalf("update persona returned %d: %s", uw.Code, uw.Body.String())
		}
		updated := decode[datatypes.Persona](t, uw)
		if updated.Name != "Strict Reviewer" {
			t.Errorf("name = %q", updated.Name)
		}
		if updated.Instructions != "Review prompts carefully." {
			t.Errorf("instructions changed unexpectedly: %q", updated.Instructions)
		}

		dw := doJSON(t, router, "DELETE", "/v1/personas/"+created.ID, nil)
		if dw.Code != http.StatusOK {
			t.Fatalf("delete persona returned %d", dw.Code)
		}

		dw2 := doJSON(t, router, "DELETE", "/v1/personas/"+created.ID, nil)
		if dw2.Code != http.StatusNotFound {
			t.Errorf("second delete returned %d, want 404", dw2.Code)
		}
	})

	t.Run("default personas cannot be mutated", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/personas", nil)
		list := decode[struct {
			Personas []datatypes.Persona `json:"personas"`
		}](t, lw)
		var defaultID string
		for _, p := range list.Personas {
			if p.IsDefault {
				defaultID = p.ID
				break
			}
		}
		if defaultID == "" {
			t.Fatal("no default persona in listing")
		}
		uw := doJSON(t, router, "PATCH", "/v1/personas/"+defaultID, gin.H{"name": "hijacked"})
		if uw.Code != http.StatusNotFound {
			t.Errorf("patch default returned %d, want 404", uw.Code)
		}
		dw := doJSON(t, router, "DELETE", "/v1/personas/"+defaultID, nil)
		if dw.Code != http.StatusNotFound {
			t.Errorf("delete default returned %d, want 404", dw.Code)
		}
	})

	t.Run("missing name is 400", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/personas", gin.H{"instructions": "x"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestPreferencesEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("empty profile before first write", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/v1/me/preferences", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get preferences returned %d", w.Code)
		}
		profile := decode[datatypes.Profile](t, w)
		if profile.UserID == "" {
			t.Error("expected user id on empty profile")
		}
		if profile.DefaultGoal != "" || profile.ActivePersonaID != "" {
			t.Errorf("expected zero profile, got %+v", profile)
		}
	})

	t.Run("partial update preserves other fields", func(t *testing.T) {
		w1 := doJSON(t, router, "PUT", "/v1/me/preferences", gin.H{"default_goal": "clarity"})
		if w1.Code != http.StatusOK {
			t.Fatalf("put preferences returned %d: %s", w1.Code, w1.Body.String())
		}
		w2 := doJSON(t, router, "PUT", "/v1/me/preferences", gin.H{"default_style": "terse"})
		if w2.Code != http.StatusOK {
			t.Fatalf("put preferences returned %d", w2.Code)
		}
		profile := decode[datatypes.Profile](t, w2)
		if profile.DefaultGoal != "clarity" {
			t.Errorf("goal lost across partial update: %q", profile.DefaultGoal)
		}
		if profile.DefaultStyle != "terse" {
			t.Errorf("style = %q", profile.DefaultStyle)
		}
	})

	t.Run("active persona set clear and reject", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/personas", nil)
		list := decode[struct {
			Personas []datatypes.Persona `json:"personas"`
		}](t, lw)
		target := list.Personas[0].ID

		sw := doJSON(t, router, "PUT", "/v1/me/preferences", gin.H{"active_persona_id": target})
		if sw.Code != http.StatusOK {
			t.Fatalf("set active persona returned %d: %s", sw.Code, sw.Body.String())
		}
		profile := decode[datatypes.Profile](t, sw)
		if profile.ActivePersonaID != target {
			t.Errorf("active persona = %q, want %q", profile.ActivePersonaID, target)
		}

		cw := doJSON(t, router, "PUT", "/v1/me/preferences", gin.H{"active_persona_id": ""})
		profile = decode[datatypes.Profile](t, cw)
		if profile.ActivePersonaID != "" {
			t.Errorf("active persona not cleared: %q", profile.ActivePersonaID)
		}

		rw := doJSON(t, router, "PUT", "/v1/me/preferences", gin.H{"active_persona_id": "ghost"})
		if rw.Code != http.StatusNotFound {
			t.Errorf("unknown persona returned %d, want 404", rw.Code)
		}
	})

	t.Run("deleting active persona clears the reference", func(t *testing.T) {
		cw := doJSON(t, router, "POST", "/v1/personas", gin.H{
			"name":         "Ephemeral",
			"instructions": "Short-lived.",
		})
		created := decode[datatypes.Persona](t, cw)
		if w := doJSON(t, router, "PUT", "/v1/me/preferences", gin.H{"active_persona_id": created.ID}); w.Code != http.StatusOK {
			t.Fatalf("set active persona returned %d", w.Code)
		}
		if w := doJSON(t, router, "DELETE", "/v1/personas/"+created.ID, nil); w.Code != http.StatusOK {
			t.Fatalf("delete persona returned %d", w.Code)
		}
		gw := doJSON(t, router, "GET", "/v1/me/preferences", nil)
		profile := decode[datatypes.Profile](t, gw)
		if profile.ActivePersonaID != "" {
			t.Errorf("dangling active persona after delete: %q", profile.ActivePersonaID)
		}
	})
}

func TestPromptEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("library round trip", func(t *testing.T) {
		cw := doJSON(t, router, "POST", "/v1/prompts", gin.H{
			"title":            "Launch email",
			"optimized_prompt": "Write a launch email.",
		})
		if cw.Code != http.StatusCreated {
			t.Fatalf("create prompt returned %d: %s", cw.Code, cw.Body.String())
		}
		created := decode[datatypes.SavedPrompt](t, cw)

		gw := doJSON(t, router, "GET", "/v1/prompts/"+created.ID, nil)
		if gw.Code != http.StatusOK {
			t.Fatalf("get prompt returned %d", gw.Code)
		}

		uw := doJSON(t, router, "PATCH", "/v1/prompts/"+created.ID, gin.H{"title": "Launch email v2"})
		if uw.Code != http.StatusOK {
			t.Fatalf("update prompt returned %d", uw.Code)
		}
		updated := decode[datatypes.SavedPrompt](t, uw)
		if updated.Title != "Launch email v2" {
			t.Errorf("title = %q", updated.Title)
		}
		if updated.OptimizedPrompt != "Write a launch email." {
			t.Errorf("optimized prompt changed unexpectedly: %q", updated.OptimizedPrompt)
		}

		lw := doJSON(t, router, "GET", "/v1/prompts", nil)
		list := decode[struct {
			Prompts []datatypes.SavedPrompt `json:"prompts"`
		}](t, lw)
		if len(list.Prompts) != 1 {
			t.Fatalf("expected 1 prompt, got %d", len(list.Prompts))
		}

		dw := doJSON(t, router, "DELETE", "/v1/prompts/"+created.ID, nil)
		if dw.Code != http.StatusOK {
			t.Fatalf("delete prompt returned %d", dw.Code)
		}
		gw2 := doJSON(t, router, "GET", "/v1/prompts/"+created.ID, nil)
		if gw2.Code != http.StatusNotFound {
			t.Errorf("get after delete returned %d, want 404", gw2.Code)
		}
	})

	t.Run("missing title is 400", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/prompts", gin.H{"optimized_prompt": "x"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})


	t.Run("list is newest first", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			w := doJSON(t, router, "POST", "/v1/prompts", gin.H{
				"title":            fmt.Sprintf("entry %d", i),
				"optimized_prompt": "p",
			})
			if w.Code != http.StatusCreated {
				t.Fatalf("create prompt returned %d", w.Code)
			}
			time.Sleep(2 * time.Millisecond)
		}
		lw := doJSON(t, router, "GET", "/v1/prompts", nil)
		list := decode[struct {
			Prompts []datatypes.SavedPrompt `json:"prompts"`
		}](t, lw)
		if len(list.Prompts) != 3 {
			t.Fatalf("expected 3 prompts, got %d", len(list.Prompts))
		}
		if list.Prompts[0].Title != "entry 2" {
			t.Errorf("expected newest first, got %q", list.Prompts[0].Title)
		}
	})
}

func TestPromptListFilters(t *testing.T) {
	router := newTestRouter(t)

	entries := []gin.H{
		{"title": "Launch email", "optimized_prompt": "Write a launch email.", "tags": []string{"email", "launch"}},
		{"title": "Weekly digest", "optimized_prompt": "Summarize the week by email.", "tags": []string{"email"}},
		{"title": "Bug report", "optimized_prompt": "Describe the zebra rendering bug.", "tags": []string{"engineering"}},
	}
	for _, e := range entries {
		if w := doJSON(t, router, "POST", "/v1/prompts", e); w.Code != http.StatusCreated {
			t.Fatalf("create prompt returned %d", w.Code)
		}
	}

	type listResp struct {
		Prompts []datatypes.SavedPrompt `json:"prompts"`
	}

	t.Run("q matches title case-insensitively", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/prompts?q=LAUNCH", nil)
		list := decode[listResp](t, lw)
		if len(list.Prompts) != 1 || list.Prompts[0].Title != "Launch email" {
			t.Errorf("title search failed: %+v", list.Prompts)
		}
	})

	t.Run("q matches the optimized prompt body", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/prompts?q=zebra", nil)
		list := decode[listResp](t, lw)
		if len(list.Prompts) != 1 || list.Prompts[0].Title != "Bug report" {
			t.Errorf("body search failed: %+v", list.Prompts)
		}
	})

	t.Run("every requested tag must be present", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/prompts?tags=email&tags=launch", nil)
		list := decode[listResp](t, lw)
		if len(list.Prompts) != 1 || list.Prompts[0].Title != "Launch email" {
			t.Errorf("tag filter failed: %+v", list.Prompts)
		}
		lw = doJSON(t, router, "GET", "/v1/prompts?tags=email", nil)
		list = decode[listResp](t, lw)
		if len(list.Prompts) != 2 {
			t.Errorf("single tag filter returned %d entries", len(list.Prompts))
		}
	})

	t.Run("no match yields empty list", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/prompts?q=nothing-matches-this", nil)
		list := decode[listResp](t, lw)
		if len(list.Prompts) != 0 {
			t.Errorf("expected empty result, got %d entries", len(list.Prompts))
		}
	})
}

func TestPersonaListFilters(t *testing.T) {
	router := newTestRouter(t)

	for _, p := range []gin.H{
		{"name": "Poet", "instructions": "Answer in verse."},
		{"name": "Painter", "instructions": "Describe scenes visually."},
	} {
		if w := doJSON(t, router, "POST", "/v1/personas", p); w.Code != http.StatusCreated {
			t.Fatalf("create persona returned %d", w.Code)
		}
	}

	type listResp struct {
		Personas []datatypes.Persona `json:"personas"`
	}

	t.Run("search matches name case-insensitively", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/personas?search=POET", nil)
		list := decode[listResp](t, lw)
		if len(list.Personas) != 1 || list.Personas[0].Name != "Poet" {
			t.Errorf("search failed: %+v", list.Personas)
		}
	})

	t.Run("include_defaults false keeps only owned personas", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/personas?include_defaults=false", nil)
		list := decode[listResp](t, lw)
		if len(list.Personas) != 2 {
			t.Fatalf("expected 2 owned personas, got %d", len(list.Personas))
		}
		for _, p := range list.Personas {
			if p.IsDefault {
				t.Errorf("default persona leaked into owned-only listing: %s", p.Name)
			}
		}
	})

	t.Run("filters combine", func(t *testing.T) {
		lw := doJSON(t, router, "GET", "/v1/personas?search=paint&include_defaults=false", nil)
		list := decode[listResp](t, lw)
		if len(list.Personas) != 1 || list.Personas[0].Name != "Painter" {
			t.Errorf("combined filter failed: %+v", list.Personas)
		}
	})

	t.Run("invalid include_defaults is 400", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/v1/personas?include_defaults=maybe", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestSessionEndpoints(t *testing.T) {
	router, mem := newTestEnv(t)

	t.Run("delete drops marker and conversation window", func(t *testing.T) {
		body := gin.H{
			"session_id": "s-del",
			"messages":   []gin.H{{"role": "user", "content": "hello"}},
		}
		if w := doJSON(t, router, "POST", "/v1/chat", body); w.Code != http.StatusOK {
			t.Fatalf("chat returned %d: %s", w.Code, w.Body.String())
		}
		if mem.Len("local-user", "s-del") == 0 {
			t.Fatal("expected conversation window after chat turn")
		}

		dw := doJSON(t, router, "DELETE", "/v1/sessions/s-del", nil)
		if dw.Code != http.StatusOK {
			t.Fatalf("delete session returned %d: %s", dw.Code, dw.Body.String())
		}
		if mem.Len("local-user", "s-del") != 0 {
			t.Error("conversation window survived the session delete")
		}

		lw := doJSON(t, router, "GET", "/v1/sessions", nil)
		list := decode[datatypes.SessionListResponse](t, lw)
		if list.Count != 0 {
			t.Errorf("expected no sessions after delete, got %d", list.Count)
		}
	})

	t.Run("deleting a missing session is 404", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/v1/sessions/never-was", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("second delete is 404", func(t *testing.T) {
		body := gin.H{
			"session_id": "s-twice",
			"messages":   []gin.H{{"role": "user", "content": "hi"}},
		}
		if w := doJSON(t, router, "POST", "/v1/chat", body); w.Code != http.StatusOK {
			t.Fatalf("chat returned %d", w.Code)
		}
		if w := doJSON(t, router, "DELETE", "/v1/sessions/s-twice", nil); w.Code != http.StatusOK {
			t.Fatalf("first delete returned %d", w.Code)
		}
		if w := doJSON(t, router, "DELETE", "/v1/sessions/s-twice", nil); w.Code != http.StatusNotFound {
			t.Errorf("second delete returned %d, want 404", w.Code)
		}
	})
}

func TestAnalyticsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	t.Run("record event", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/analytics", gin.H{
			"rating":  4,
			"note":    "kept the structure, tightened the ask",
			"metrics": gin.H{"tokens": 120},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("record analytics returned %d: %s", w.Code, w.Body.String())
		}
		event := decode[datatypes.AnalyticsEvent](t, w)
		if event.ID == "" || event.UserID == "" {
			t.Errorf("expected populated event, got %+v", event)
		}
		if event.Rating == nil || *event.Rating != 4 {
			t.Errorf("rating = %v", event.Rating)
		}
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/analytics", gin.H{})
		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", w.Code)
		}
	})

	t.Run("out-of-range rating is 400", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/v1/analytics", gin.H{"rating": 9})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}
