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

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

const analyticsPrefix = "analytics/"

// AnalyticsStore is the badger-backed usage feedback store.
//
// Keys embed the user ID so listing a user's events is a prefix scan
// rather than a full-table filter.
type AnalyticsStore struct {
	db *badger.DB
}

var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

func analyticsUserPrefix(userID string) []byte {
	return []byte(analyticsPrefix + userID + "/")
}

func analyticsKey(userID, id string) []byte {
	return []byte(analyticsPrefix + userID + "/" + id)
}

// Put inserts or replaces an analytics event.
func (s *AnalyticsStore) Put(ctx context.Context, e *datatypes.AnalyticsEvent) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if e.ID == "" || e.UserID == "" {
		return errors.New("analytics event ID and user ID must not be empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, analyticsKey(e.UserID, e.ID), e)
	})
}

// List returns all events recorded by userID, newest first.
func (s *AnalyticsStore) List(ctx context.Context, userID string) ([]*datatypes.AnalyticsEvent, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var out []*datatypes.AnalyticsEvent
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, analyticsUserPrefix(userID), func(val []byte) error {
			var e datatypes.AnalyticsEvent
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			out = append(out, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
