// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package storage persists model snapshots to Badger so a restarted
// process can warm-start from the last good build instead of serving
// degraded responses until the first retrain completes.
//
// Snapshots are gob-encoded, gzip-compressed, and checksummed; metadata
// is stored as JSON alongside the blob. The "latest" pointer is updated
// in the same transaction as the blob, so readers never see a pointer
// to a half-written snapshot.
package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/engine/hybrid"
	"github.com/learnpulse/learnpulse/internal/logging"
)

// ErrNoSnapshot indicates the store holds no persisted snapshot.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Key layout.
const (
	blobPrefix = "snapshot:blob:"
	metaPrefix = "snapshot:meta:"
	latestKey  = "snapshot:latest"
)

// Meta describes one persisted snapshot.
type Meta struct {
	ID               string    `json:"id"`
	BuiltAt          time.Time `json:"built_at"`
	SavedAt          time.Time `json:"saved_at"`
	InteractionCount int       `json:"interaction_count"`

	// Checksum is the SHA-256 of the compressed blob.
	Checksum  string `json:"checksum"`
	SizeBytes int64  `json:"size_bytes"`
}

// Store persists snapshots in a Badger database.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (or creates) a snapshot store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an existing Badger handle.
func NewStore(db *badger.DB) *Store {
	return &Store{
		db:  db,
		log: logging.With().Str("component", "snapshot-store").Logger(),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a snapshot and repoints "latest" at it atomically.
func (s *Store) Save(snap *hybrid.Snapshot) error {
	blob, checksum, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}

	meta := Meta{
		ID:               snap.ID,
		BuiltAt:          snap.BuiltAt,
		SavedAt:          time.Now(),
		InteractionCount: snap.InteractionCount,
		Checksum:         checksum,
		SizeBytes:        int64(len(blob)),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal snapshot meta: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(blobPrefix+snap.ID), blob); err != nil {
			return err
		}
		if err := txn.Set([]byte(metaPrefix+snap.ID), metaJSON); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(snap.ID))
	})
	if err != nil {
		return fmt.Errorf("persist snapshot %s: %w", snap.ID, err)
	}

	s.log.Info().
		Str("snapshot_id", snap.ID).
		Int64("size_bytes", meta.SizeBytes).
		Msg("snapshot persisted")
	return nil
}

// LoadLatest decodes the snapshot the "latest" pointer names. A
// checksum mismatch is treated as corruption, not silently served.
func (s *Store) LoadLatest() (*hybrid.Snapshot, error) {
	var blob []byte
	var meta Meta

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		metaItem, err := txn.Get([]byte(metaPrefix + string(id)))
		if err != nil {
			return fmt.Errorf("snapshot meta %s: %w", id, err)
		}
		metaJSON, err := metaItem.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return fmt.Errorf("unmarshal snapshot meta: %w", err)
		}

		blobItem, err := txn.Get([]byte(blobPrefix + string(id)))
		if err != nil {
			return fmt.Errorf("snapshot blob %s: %w", id, err)
		}
		blob, err = blobItem.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	if got := checksumOf(blob); got != meta.Checksum {
		return nil, fmt.Errorf("snapshot %s checksum mismatch: stored %s, computed %s",
			meta.ID, meta.Checksum, got)
	}
	return decodeSnapshot(blob)
}

// List returns metadata for every persisted snapshot, newest first.
func (s *Store) List() ([]Meta, error) {
	var metas []Meta
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(metaPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var meta Meta
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &meta)
			})
			if err != nil {
				return err
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(metas, func(a, b int) bool { return metas[a].BuiltAt.After(metas[b].BuiltAt) })
	return metas, nil
}

// Prune keeps the newest keep snapshots and deletes the rest. The
// snapshot named by "latest" is always kept.
func (s *Store) Prune(keep int) error {
	if keep < 1 {
		keep = 1
	}
	metas, err := s.List()
	if err != nil {
		return err
	}
	if len(metas) <= keep {
		return nil
	}

	var latest string
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		latest = string(id)
		return err
	})
	if err != nil {
		return err
	}

	for _, meta := range metas[keep:] {
		if meta.ID == latest {
			continue
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete([]byte(blobPrefix + meta.ID)); err != nil {
				return err
			}
			return txn.Delete([]byte(metaPrefix + meta.ID))
		})
		if err != nil {
			return fmt.Errorf("prune snapshot %s: %w", meta.ID, err)
		}
		s.log.Debug().Str("snapshot_id", meta.ID).Msg("snapshot pruned")
	}
	return nil
}

// encodeSnapshot gob-encodes and gzip-compresses a snapshot, returning
// the blob and its checksum.
func encodeSnapshot(snap *hybrid.Snapshot) ([]byte, string, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(snap); err != nil {
		return nil, "", err
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, "", err
	}
	if err := gzw.Close(); err != nil {
		return nil, "", err
	}

	blob := compressed.Bytes()
	return blob, checksumOf(blob), nil
}

// decodeSnapshot reverses encodeSnapshot.
func decodeSnapshot(blob []byte) (*hybrid.Snapshot, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snap hybrid.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func checksumOf(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
