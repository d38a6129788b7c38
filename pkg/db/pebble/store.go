package pebble

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/eigerco/rewards/pkg/db"
)

var _ db.KVStore = (*KVStore)(nil)

const (
	defaultCacheSize    = 64 << 20
	defaultMemTableSize = 32 << 20
)

// KVStore is a db.KVStore backed by a pebble database.
type KVStore struct {
	db     *pebble.DB
	cache  *pebble.Cache
	closed bool
	mu     sync.RWMutex
}

type config struct {
	path      string
	cacheSize int64
}

type Option func(*config)

// WithPath stores the database on disk under dir. Without it the store is
// kept in memory.
func WithPath(dir string) Option {
	return func(c *config) {
		c.path = dir
	}
}

// WithCacheSize overrides the block cache size in bytes.
func WithCacheSize(size int64) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// NewKVStore opens a pebble database.
func NewKVStore(opts ...Option) (*KVStore, error) {
	cfg := config{cacheSize: defaultCacheSize}
	for _, o := range opts {
		o(&cfg)
	}

	cache := pebble.NewCache(cfg.cacheSize)
	options := &pebble.Options{
		Cache:                       cache,
		MemTableSize:                defaultMemTableSize,
		MemTableStopWritesThreshold: 4,
		MaxOpenFiles:                1000,
	}
	if cfg.path == "" {
		options.FS = vfs.NewMem()
	}

	pdb, err := pebble.Open(cfg.path, options)
	if err != nil {
		cache.Unref()
		return nil, err
	}

	return &KVStore{db: pdb, cache: cache}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	err := p.db.Close()
	p.cache.Unref()
	return err
}
