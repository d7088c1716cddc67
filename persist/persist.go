// Package persist implements the persistence collaborator. A Persistor
// subscribes to a store's change notifications and writes a filtered,
// transformed snapshot of the state through a pluggable storage backend,
// debouncing writes so only the last update inside each delay window is
// written. Load reads a previous write back for hydration via
// store.WithOverrides.
package persist

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/loomworks/loom"
	"github.com/loomworks/loom/internal/debounce"
	"github.com/loomworks/loom/store"
)

// Config holds the persistor's collaborator surface. Every field is
// optional; New fills the stated defaults.
type Config struct {
	// Name is the storage key the snapshot lives under. Default: "loom".
	Name string

	// Storage is the get/set item backend. Default: an in-memory backend.
	Storage Storage

	// Serializer encodes and decodes the persisted entry.
	// Default: JSONSerializer.
	Serializer Serializer

	// Filter decides, per dispatched action, whether the resulting update
	// qualifies for persistence. Default: persist every update.
	Filter func(loom.Action) bool

	// Transform selects the persistable subset of the full state.
	// Default: identity.
	Transform func(loom.State) any

	// Delay is the debounce window. A pending write is cancelled and
	// restarted on every qualifying notification, so only the last update
	// within the window is written. Default: 0, write synchronously.
	Delay time.Duration

	// Logger reports storage and encoding faults, which are collaborator-
	// local and never affect the in-memory state. Default: nop.
	Logger *zap.Logger
}

func (c *Config) normalize() {
	if c.Name == "" {
		c.Name = "loom"
	}
	if c.Storage == nil {
		c.Storage = NewMemoryStorage()
	}
	if c.Serializer == nil {
		c.Serializer = JSONSerializer{}
	}
	if c.Transform == nil {
		c.Transform = func(s loom.State) any { return s }
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Persistor is one persistence collaborator instance. The pending-write
// timer is owned per instance, so multiple stores or persist configs never
// interfere.
type Persistor struct {
	cfg      Config
	debounce *debounce.Debouncer

	mu      sync.Mutex
	latest  loom.State
	dirty   bool
	lastSum uint64
	written bool
}

// New builds a Persistor, normalizing zero-valued config fields to their
// defaults.
func New(cfg Config) *Persistor {
	cfg.normalize()
	p := &Persistor{cfg: cfg}
	p.debounce = debounce.New(cfg.Delay, p.flush)
	return p
}

// Load reads and decodes the named entry. A missing entry yields (nil, nil);
// the result feeds store.WithOverrides so persisted slices override initial
// values and unpersisted models keep their declared initial state.
func (p *Persistor) Load() (map[string]any, error) {
	data, ok, err := p.cfg.Storage.GetItem(p.cfg.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return p.cfg.Serializer.Decode(data)
}

// Attach subscribes the persistor to the store's change notifications and
// returns the unsubscribe func.
func (p *Persistor) Attach(st *store.Store) func() {
	return st.Subscribe(p.onChange)
}

// onChange is the notification listener: apply the action filter, remember
// the newest qualifying state, and reschedule the write.
func (p *Persistor) onChange(e loom.Event) {
	if p.cfg.Filter != nil && !p.cfg.Filter(e.Action) {
		return
	}
	p.mu.Lock()
	p.latest = e.State
	p.dirty = true
	p.mu.Unlock()
	p.debounce.Trigger()
}

// flush encodes the transformed latest state and writes it, skipping the
// write when the encoded bytes hash identically to the previous write.
func (p *Persistor) flush() {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return
	}
	state := p.latest
	p.dirty = false
	p.mu.Unlock()

	data, err := p.cfg.Serializer.Encode(p.cfg.Transform(state))
	if err != nil {
		p.cfg.Logger.Error("failed to encode snapshot",
			zap.String("name", p.cfg.Name),
			zap.Error(err),
		)
		return
	}

	sum := xxhash.Sum64(data)
	p.mu.Lock()
	unchanged := p.written && sum == p.lastSum
	p.mu.Unlock()
	if unchanged {
		return
	}

	if err := p.cfg.Storage.SetItem(p.cfg.Name, data); err != nil {
		p.cfg.Logger.Error("failed to write snapshot",
			zap.String("name", p.cfg.Name),
			zap.Error(err),
		)
		return
	}
	p.mu.Lock()
	p.lastSum = sum
	p.written = true
	p.mu.Unlock()
}

// Close flushes a pending debounced write, then releases the timer. The
// storage backend is the caller's to close.
func (p *Persistor) Close() error {
	p.debounce.Flush()
	return nil
}
