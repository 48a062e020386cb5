// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pagestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pdiddy/wikibacon/pkg/types"
)

var pageKeyPrefix = []byte("page:")

// BadgerConfig holds configuration for the BadgerDB page store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs (0 disables it).
	GCInterval time.Duration
}

// DefaultBadgerConfig returns the on-disk defaults. Pages are refetchable,
// so writes are not synced.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval: 10 * time.Minute,
	}
}

// Badger stores JSON-encoded pages under "page:<key>".
type Badger struct {
	db   *badger.DB
	stop chan struct{}
	wg   sync.WaitGroup
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens the store described by cfg.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger store: path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	b := &Badger{db: db, stop: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		b.wg.Add(1)
		go b.runGC(cfg.GCInterval)
	}
	return b, nil
}

func (b *Badger) runGC(interval time.Duration) {
	defer b.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			// Repeat until there is nothing left to rewrite.
			for b.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func pageKey(key string) []byte {
	return append(append([]byte(nil), pageKeyPrefix...), key...)
}

// Get implements Store.
func (b *Badger) Get(_ context.Context, key string) (*types.Page, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pageKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading page %q: %w", key, err)
	}

	var p types.Page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding page %q: %w", key, err)
	}
	return &p, nil
}

// Put implements Store.
func (b *Badger) Put(_ context.Context, key string, page *types.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encoding page %q: %w", key, err)
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pageKey(key), data)
	}); err != nil {
		return fmt.Errorf("writing page %q: %w", key, err)
	}
	return nil
}

// Count implements Store.
func (b *Badger) Count(ctx context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = pageKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// Purge implements Store.
func (b *Badger) Purge(_ context.Context) error {
	if err := b.db.DropPrefix(pageKeyPrefix); err != nil {
		return fmt.Errorf("purging pages: %w", err)
	}
	return nil
}

// Close stops garbage collection and closes the database.
func (b *Badger) Close() error {
	close(b.stop)
	b.wg.Wait()
	return b.db.Close()
}
