// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package interactions

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/placefeed/internal/logging"
)

const prefixViewed = "viewed/"

// ErrViewLogClosed is returned after Close.
var ErrViewLogClosed = errors.New("view log is closed")

// ViewLog persists which activities a viewer has seen.
type ViewLog interface {
	MarkViewed(ctx context.Context, viewerID, activityID string, at time.Time) error
	Viewed(ctx context.Context, viewerID, activityID string) (bool, error)
}

// BadgerViewLog stores viewed markers in BadgerDB with a native TTL, so old
// markers age out without a compaction job.
type BadgerViewLog struct {
	db  *badger.DB
	ttl time.Duration

	mu     sync.RWMutex
	closed bool
}

// OpenViewLog opens (or creates) the view log at path. An empty path keeps
// the log in memory.
func OpenViewLog(path string, ttl time.Duration) (*BadgerViewLog, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("view log ttl must be positive, got %v", ttl)
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", path).
		Bool("in_memory", path == "").
		Dur("ttl", ttl).
		Msg("View log opened")
	return &BadgerViewLog{db: db, ttl: ttl}, nil
}

func viewedKey(viewerID, activityID string) []byte {
	return []byte(prefixViewed + viewerID + "/" + activityID)
}

func (v *BadgerViewLog) checkNotClosed() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return ErrViewLogClosed
	}
	return nil
}

// MarkViewed records the marker. Marking again refreshes the TTL and time.
func (v *BadgerViewLog) MarkViewed(_ context.Context, viewerID, activityID string, at time.Time) error {
	if err := v.checkNotClosed(); err != nil {
		return err
	}

	var val [8]byte
	binary.BigEndian.PutUint64(val[:], uint64(at.UnixMicro()))

	err := v.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(viewedKey(viewerID, activityID), val[:]).WithTTL(v.ttl))
	})
	if err != nil {
		return fmt.Errorf("write viewed marker: %w", err)
	}
	return nil
}

// Viewed reports whether a live marker exists.
func (v *BadgerViewLog) Viewed(ctx context.Context, viewerID, activityID string) (bool, error) {
	_, ok, err := v.ViewedAt(ctx, viewerID, activityID)
	return ok, err
}

// ViewedAt returns when the viewer last saw the activity.
func (v *BadgerViewLog) ViewedAt(_ context.Context, viewerID, activityID string) (time.Time, bool, error) {
	if err := v.checkNotClosed(); err != nil {
		return time.Time{}, false, err
	}

	var at time.Time
	err := v.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(viewedKey(viewerID, activityID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt viewed marker (%d bytes)", len(val))
			}
			at = time.UnixMicro(int64(binary.BigEndian.Uint64(val))).UTC()
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read viewed marker: %w", err)
	}
	return at, true, nil
}

// ViewedActivities lists the activity IDs with live markers for viewerID.
func (v *BadgerViewLog) ViewedActivities(_ context.Context, viewerID string) ([]string, error) {
	if err := v.checkNotClosed(); err != nil {
		return nil, err
	}

	prefix := []byte(prefixViewed + viewerID + "/")
	var ids []string
	err := v.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list viewed markers: %w", err)
	}
	return ids, nil
}

// RunGC reclaims value log space. In-memory logs have nothing to collect.
func (v *BadgerViewLog) RunGC() error {
	if err := v.checkNotClosed(); err != nil {
		return err
	}
	for {
		err := v.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database. It is safe to call more than once.
func (v *BadgerViewLog) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	if err := v.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("View log closed")
	return nil
}
