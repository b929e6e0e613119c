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
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
	"github.com/AleutianAI/PromptTune/services/orchestrator/storage"
)

const (
	personaPrefix     = "persona/"
	personaSlugPrefix = "persona_slug/"
)

// PersonaStore is the badger-backed persona store.
//
// Personas with a Slug carry a secondary index entry so default seeding can
// check existence by slug without a full scan. The record write and the
// index write share one transaction.
type PersonaStore struct {
	db *badger.DB
}

var _ storage.PersonaStore = (*PersonaStore)(nil)

func personaKey(id string) []byte {
	return []byte(personaPrefix + id)
}

func personaSlugKey(slug string) []byte {
	return []byte(personaSlugPrefix + slug)
}

// Put inserts or replaces a persona and maintains the slug index.
func (s *PersonaStore) Put(ctx context.Context, p *datatypes.Persona) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("persona ID must not be empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, personaKey(p.ID), p); err != nil {
			return err
		}
		if p.Slug != "" {
			return txn.Set(personaSlugKey(p.Slug), []byte(p.ID))
		}
		return nil
	})
}

// Get returns the persona by ID, or storage.ErrNotFound.
func (s *PersonaStore) Get(ctx context.Context, id string) (*datatypes.Persona, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var p datatypes.Persona
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, personaKey(id), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySlug resolves the slug index and loads the persona record.
func (s *PersonaStore) GetBySlug(ctx context.Context, slug string) (*datatypes.Persona, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var p datatypes.Persona
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(personaSlugKey(slug))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("get slug index %s: %w", slug, err)
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, personaKey(id), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all default personas plus the personas owned by userID,
// sorted by name for stable output.
func (s *PersonaStore) List(ctx context.Context, userID string) ([]*datatypes.Persona, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var out []*datatypes.Persona
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, []byte(personaPrefix), func(val []byte) error {
			var p datatypes.Persona
			if err := json.Unmarshal(val, &p); err != nil {
				return err
			}
			if p.IsDefault || p.UserID == userID {
				out = append(out, &p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the persona and its slug index entry.
func (s *PersonaStore) Delete(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		var p datatypes.Persona
		if err := getJSON(txn, personaKey(id), &p); err != nil {
			return err
		}
		if p.Slug != "" {
			if err := txn.Delete(personaSlugKey(p.Slug)); err != nil {
				return fmt.Errorf("delete slug index %s: %w", p.Slug, err)
			}
		}
		return txn.Delete(personaKey(id))
	})
}
