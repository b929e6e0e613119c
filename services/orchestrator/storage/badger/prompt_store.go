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

const promptPrefix = "prompt/"

// PromptStore is the badger-backed saved prompt library.
//
// Keys embed the owning user ID so lookups and listings are naturally
// scoped; a user can never address another user's prompts by ID.
type PromptStore struct {
	db *badger.DB
}

var _ storage.PromptStore = (*PromptStore)(nil)

func promptKey(userID, id string) []byte {
	return []byte(promptPrefix + userID + "/" + id)
}

func promptUserPrefix(userID string) []byte {
	return []byte(promptPrefix + userID + "/")
}

// Put inserts or replaces a saved prompt.
func (s *PromptStore) Put(ctx context.Context, p *datatypes.SavedPrompt) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if p.ID == "" || p.UserID == "" {
		return errors.New("saved prompt ID and user ID must not be empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, promptKey(p.UserID, p.ID), p)
	})
}

// Get returns the saved prompt, or storage.ErrNotFound.
func (s *PromptStore) Get(ctx context.Context, userID, id string) (*datatypes.SavedPrompt, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var p datatypes.SavedPrompt
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, promptKey(userID, id), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the user's saved prompts, newest first.
func (s *PromptStore) List(ctx context.Context, userID string) ([]*datatypes.SavedPrompt, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var out []*datatypes.SavedPrompt
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, promptUserPrefix(userID), func(val []byte) error {
			var p datatypes.SavedPrompt
			if err := json.Unmarshal(val, &p); err != nil {
				return err
			}
			out = append(out, &p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes the saved prompt. Deleting a missing prompt returns
// storage.ErrNotFound.
func (s *PromptStore) Delete(ctx context.Context, userID, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		var p datatypes.SavedPrompt
		if err := getJSON(txn, promptKey(userID, id), &p); err != nil {
			return err
		}
		return txn.Delete(promptKey(userID, id))
	})
}
