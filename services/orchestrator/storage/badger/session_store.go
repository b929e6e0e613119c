// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

const sessionPrefix = "session/"

// SessionMarkerStore is the badger-backed durable session marker store.
type SessionMarkerStore struct {
	db *badger.DB
}

var _ storage.SessionMarkerStore = (*SessionMarkerStore)(nil)

func sessionKey(sessionID string) []byte {
	return []byte(sessionPrefix + sessionID)
}

// Ensure creates the marker if absent and refreshes LastActiveAt if present.
// Creation and refresh happen in one read-write transaction, so concurrent
// chat turns on a new session produce exactly one marker.
func (s *SessionMarkerStore) Ensure(ctx context.Context, sessionID, userID string) (*datatypes.SessionMarker, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, false, err
	}
	if sessionID == "" {
		return nil, false, errors.New("session ID must not be empty")
	}
	var marker datatypes.SessionMarker
	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		now := time.Now().UTC()
		err := getJSON(txn, sessionKey(sessionID), &marker)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			created = true
			marker = datatypes.SessionMarker{
				SessionID:    sessionID,
				UserID:       userID,
				CreatedAt:    now,
				LastActiveAt: now,
			}
		case err != nil:
			return err
		default:
			marker.LastActiveAt = now
		}
		return setJSON(txn, sessionKey(sessionID), &marker)
	})
	if err != nil {
		return nil, false, err
	}
	return &marker, created, nil
}

// Get returns the marker, or storage.ErrNotFound.
func (s *SessionMarkerStore) Get(ctx context.Context, sessionID string) (*datatypes.SessionMarker, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var marker datatypes.SessionMarker
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(sessionID), &marker)
	})
	if err != nil {
		return nil, err
	}
	return &marker, nil
}

// List returns all markers owned by userID, most recently active first.
func (s *SessionMarkerStore) List(ctx context.Context, userID string) ([]*datatypes.SessionMarker, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var out []*datatypes.SessionMarker
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, []byte(sessionPrefix), func(val []byte) error {
			var m datatypes.SessionMarker
			if err := json.Unmarshal(val, &m); err != nil {
				return err
			}
			if m.UserID == userID {
				out = append(out, &m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

// Delete removes the marker when it is owned by userID. A miss and a
// foreign owner both read as storage.ErrNotFound; the ownership check and
// the delete share one transaction.
func (s *SessionMarkerStore) Delete(ctx context.Context, sessionID, userID string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		var marker datatypes.SessionMarker
		if err := getJSON(txn, sessionKey(sessionID), &marker); err != nil {
			return err
		}
		if marker.UserID != userID {
			return storage.ErrNotFound
		}
		return txn.Delete(sessionKey(sessionID))
	})
}
