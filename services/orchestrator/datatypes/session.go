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

import "time"

// SessionMarker is the durable record of a chat session's existence.
//
// The rolling conversation window itself lives in process memory and is lost
// on restart; the marker survives so session listings and ownership checks
// remain stable across restarts.
type SessionMarker struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// SessionListResponse is the response for GET /v1/sessions.
type SessionListResponse struct {
	Sessions []SessionMarker `json:"sessions"`
	Count    int             `json:"count"`
}
