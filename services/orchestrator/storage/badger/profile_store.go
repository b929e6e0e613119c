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
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

const profilePrefix = "profile/"

// ProfileStore is the badger-backed profile store.
type ProfileStore struct {
	db *badger.DB
}

var _ storage.ProfileStore = (*ProfileStore)(nil)

func profileKey(userID string) []byte {
	return []byte(profilePrefix + userID)
}

// Get returns the profile for userID, or storage.ErrNotFound.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*datatypes.Profile, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var p datatypes.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, profileKey(userID), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Put inserts or replaces the profile.
func (s *ProfileStore) Put(ctx context.Context, p *datatypes.Profile) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if p.UserID == "" {
		return errors.New("profile user ID must not be empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, profileKey(p.UserID), p)
	})
}
