// Package worlddb persists player-made world changes.
//
// Block, light, damage and chunk-key writes are queued and applied in
// submission order by a single worker goroutine; Commit batches everything
// queued before it into one store transaction. Signs, player state, credentials
// and chunk-key reads are immediate: they go straight to the store and do not
// wait for the queue. An immediate read may therefore miss a write that is
// still queued, and an immediate write is not ordered against queued writes to
// the same coordinates.
package worlddb

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/config"
	"voxelcraft.ai/worldstore/internal/persistence/store"
	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

// Journal receives, in order, every command whose store writes all succeeded.
type Journal interface {
	Append(c writeq.Command) error
}

type Options struct {
	// Disabled turns every DB method into a no-op.
	Disabled bool
	// InitialCapacity of the command ring; writeq.DefaultCapacity if zero.
	InitialCapacity int
	Journal         Journal
	Logger          log.FieldLogger
}

// WorkerState is the worker's position in its lifecycle.
type WorkerState int32

const (
	StateWaiting WorkerState = iota
	StateDraining
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

type DB struct {
	st      store.Store
	enabled bool
	journal Journal
	log     log.FieldLogger

	// mu guards ring and exiting; cond signals the worker.
	mu      sync.Mutex
	cond    *sync.Cond
	ring    *writeq.Ring
	exiting bool

	// readMu serializes immediate reads against each other only.
	readMu sync.Mutex

	state     atomic.Int32
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Enabled       bool   `json:"enabled"`
	State         string `json:"state"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

// New starts a DB over st: it opens the first transaction and spawns the
// worker. With opts.Disabled, st is never touched and may be nil.
func New(st store.Store, opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "worlddb")
	}
	d := &DB{
		st:      st,
		enabled: !opts.Disabled,
		journal: opts.Journal,
		log:     logger,
		done:    make(chan struct{}),
	}
	if !d.enabled {
		close(d.done)
		d.state.Store(int32(StateStopped))
		return d, nil
	}
	if st == nil {
		return nil, errors.New("worlddb: nil store")
	}
	if err := st.Begin(context.Background()); err != nil {
		return nil, errors.WithMessage(err, "worlddb: open transaction")
	}

	d.ring = writeq.NewRing(opts.InitialCapacity)
	d.cond = sync.NewCond(&d.mu)
	queueCapacity.Set(float64(d.ring.Cap()))
	queueDepth.Set(0)

	go d.run()
	return d, nil
}

// Open opens the SQLite world database described by cfg and starts a DB on it.
// A disabled cfg yields a no-op DB without creating any file.
func Open(cfg config.DB, opts Options) (*DB, error) {
	if cfg.Disabled {
		opts.Disabled = true
		return New(nil, opts)
	}
	if opts.InitialCapacity == 0 {
		opts.InitialCapacity = cfg.QueueCapacity
	}
	st, err := store.OpenSQLite(cfg.Path, store.Options{AuthPath: cfg.AuthPath})
	if err != nil {
		return nil, err
	}
	d, err := New(st, opts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return d, nil
}

// Enabled reports whether persistence is on.
func (d *DB) Enabled() bool { return d != nil && d.enabled }

func (d *DB) active() bool {
	return d != nil && d.enabled && !d.closed.Load()
}

func (d *DB) State() WorkerState {
	if d == nil {
		return StateStopped
	}
	return WorkerState(d.state.Load())
}

func (d *DB) Stats() Stats {
	if d == nil {
		return Stats{State: StateStopped.String()}
	}
	s := Stats{Enabled: d.enabled, State: d.State().String()}
	if !d.enabled {
		return s
	}
	d.mu.Lock()
	if d.ring != nil {
		s.QueueDepth = d.ring.Len()
		s.QueueCapacity = d.ring.Cap()
	}
	d.mu.Unlock()
	return s
}

// Close queues Exit behind everything already queued, waits for the worker to
// apply it all, then commits the open transaction and closes the store.
// Calling Close again returns the first result.
func (d *DB) Close() error {
	if d == nil || !d.enabled {
		return nil
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.put(writeq.Exit())
		<-d.done

		d.mu.Lock()
		d.ring = nil
		d.mu.Unlock()

		ctx := context.Background()
		if err := d.st.Commit(ctx); err != nil {
			d.log.WithError(err).Error("final commit failed")
			d.closeErr = err
		}
		if err := d.st.Close(); err != nil && d.closeErr == nil {
			d.closeErr = err
		}
	})
	return d.closeErr
}
