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
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

// Stores bundles all badger-backed store implementations over one database.
type Stores struct {
	Personas  *PersonaStore
	Profiles  *ProfileStore
	Prompts   *PromptStore
	Sessions  *SessionMarkerStore
	Analytics *AnalyticsStore
}

// NewStores creates the store set over an opened database.
func NewStores(db *badger.DB) *Stores {
	return &Stores{
		Personas:  &PersonaStore{db: db},
		Profiles:  &ProfileStore{db: db},
		Prompts:   &PromptStore{db: db},
		Sessions:  &SessionMarkerStore{db: db},
		Analytics: &AnalyticsStore{db: db},
	}
}

// getJSON reads the key within the transaction and unmarshals it into out.
// Maps badger.ErrKeyNotFound to storage.ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// setJSON marshals v and writes it under key within the transaction.
func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// scanJSON iterates all keys under prefix and calls fn with each raw value.
func scanJSON(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// checkCtx rejects work on an already-cancelled context before opening
// a transaction.
func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return nil
}
