// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompt

import "strings"

// StructuredResponse is the parsed form of the model's tagged output.
type StructuredResponse struct {
	OptimizedPrompt string
	Rationale       string
	Checklist       []string
}

// ParseStructuredResponse extracts the tagged sections from model output.
//
// # Description
//
// The scanner is deliberately tolerant, not a strict markup parser: models
// wrap the tags in prose, drop sections, or mangle closers, and a hard
// failure would discard an otherwise useful completion. Each section is
// located by the first occurrence of its opening and closing tag. Missing
// sections degrade:
//
//   - no <optimized> block: the whole raw text becomes the optimized
//     prompt, so the caller always has something to show
//   - no <rationale> block: empty rationale
//   - no <checklist> block: empty checklist
//
// Checklist items are the "- " bulleted lines inside the checklist block;
// anything else in the block, including bare "-" lines and dashed prose
// without the separating space, is ignored.
func ParseStructuredResponse(text string) StructuredResponse {
	optimized := extractTag(text, "optimized")
	rationale := extractTag(text, "rationale")
	checklistBlock := extractTag(text, "checklist")

	var checklist []string
	if checklistBlock != "" {
		for _, line := range strings.Split(checklistBlock, "\n") {
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "- ") {
				continue
			}
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
			if item != "" {
				checklist = append(checklist, item)
			}
		}
	}

	if optimized == "" {
		optimized = text
	}
	return StructuredResponse{
		OptimizedPrompt: optimized,
		Rationale:       rationale,
		Checklist:       checklist,
	}
}

// extractTag returns the trimmed text between the first <tag> and the first
// </tag>, or "" when either is missing or they are out of order.
func extractTag(text, tag string) string {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"
	start := strings.Index(text, open)
	end := strings.Index(text, closing)
	if start == -1 || end == -1 {
		return ""
	}
	start += len(open)
	if end < start {
		return ""
	}
	return strings.TrimSpace(text[start:end])
}
