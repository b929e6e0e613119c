// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt assembles meta-prompts and system prompts, and parses the
// model's structured optimization output.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

const (
	// BaseOptimizeSystemPrompt anchors the optimizer's behavior when no
	// custom system prompt is supplied.
	BaseOptimizeSystemPrompt = "You are a meticulous prompt optimization assistant."

	// BaseChatSystemPrompt anchors the simulation chat's behavior.
	BaseChatSystemPrompt = "You are a pragmatic prompt simulation assistant."

	// MaxQueryExcerptLength bounds the retrieval query taken from the raw
	// prompt. Retrieval quality plateaus well before this; the full prompt
	// still goes into the meta-prompt itself.
	MaxQueryExcerptLength = 200
)

// metaPromptHeader is the fixed framing for the optimization meta-prompt.
const metaPromptHeader = "You are an expert prompt engineer optimizing a raw user prompt using a rigorous 5-step framework: Task, Context, References, Evaluate, Iterate. Improve clarity, constraints, and correctness. Use retrieval examples below as inspiration; do not copy verbatim."

// metaPromptFooter states the deliverables and the tag format the parser
// expects. Kept in one literal so the builder and parser stay in sync.
const metaPromptFooter = `Deliverables:
1) Optimized Prompt (ready to paste)
2) Rationale (why these changes)
3) Checklist (3-6 bullet items to self-evaluate outputs)

Format strictly as:
<optimized> ... </optimized>
<rationale> ... </rationale>
<checklist>
- item 1
- item 2
...
</checklist>`

// MetaPromptInput carries everything the meta-prompt builder needs.
//
// Goal, Audience, and Style are the effective values after merging request
// overrides with profile defaults; empty strings render as "n/a". Persona
// may be nil (renders as "Generalist").
type MetaPromptInput struct {
	RawPrompt string
	Goal      string
	Audience  string
	Style     string
	Patterns  []datatypes.RetrievedPattern
	Persona   *datatypes.Persona
}

// BuildMetaPrompt assembles the optimization meta-prompt.
//
// Each retrieved pattern contributes a "Source:" and "Example/Notes:" block;
// patterns are joined with blank lines. An empty pattern list leaves the
// section present but empty, which keeps the prompt shape stable for the
// model regardless of retrieval outcome.
func BuildMetaPrompt(in MetaPromptInput) string {
	blocks := make([]string, 0, len(in.Patterns))
	for _, p := range in.Patterns {
		source := p.Source
		if source == "" {
			source = "unknown"
		}
		blocks = append(blocks, fmt.Sprintf("Source: %s\nExample/Notes: %s", source, p.Snippet))
	}
	patternText := strings.Join(blocks, "\n\n")

	personaName := "Generalist"
	personaInstructions := "n/a"
	if in.Persona != nil {
		if in.Persona.Name != "" {
			personaName = in.Persona.Name
		}
		if in.Persona.Instructions != "" {
			personaInstructions = in.Persona.Instructions
		}
	}

	var b strings.Builder
	b.WriteString(metaPromptHeader)
	b.WriteString("\n\nRaw Prompt:\n")
	b.WriteString(in.RawPrompt)
	b.WriteString("\n\nIntent:\n")
	b.WriteString("- Goal: " + orNA(in.Goal) + "\n")
	b.WriteString("- Audience/Tone: " + orNA(in.Audience) + "\n")
	b.WriteString("- Style Prefs: " + orNA(in.Style))
	b.WriteString("\n\nPersona Guidance:\n")
	b.WriteString("- Persona: " + personaName + "\n")
	b.WriteString("- Instructions: " + personaInstructions)
	b.WriteString("\n\nRetrieved Prompt Patterns & Examples:\n")
	b.WriteString(patternText)
	b.WriteString("\n\n")
	b.WriteString(metaPromptFooter)
	return b.String()
}

// ComposeSystemPrompt layers persona instructions over the base system
// prompt. Nil or empty-instruction personas yield the base unchanged.
func ComposeSystemPrompt(persona *datatypes.Persona, base string) string {
	if persona == nil {
		return base
	}
	instructions := strings.TrimSpace(persona.Instructions)
	if instructions == "" {
		return base
	}
	return instructions + "\n\n" + base
}

// QueryExcerpt returns the retrieval query for a raw prompt: the prompt
// itself when short, otherwise at most its first MaxQueryExcerptLength
// bytes. The cut point backs up to a rune boundary so a multibyte
// character is never split.
func QueryExcerpt(rawPrompt string) string {
	if len(rawPrompt) <= MaxQueryExcerptLength {
		return rawPrompt
	}
	cut := MaxQueryExcerptLength
	for cut > 0 && !utf8.RuneStart(rawPrompt[cut]) {
		cut--
	}
	return rawPrompt[:cut]
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
