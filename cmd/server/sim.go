package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"voxelcraft.ai/worldstore/internal/config"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
)

const worldHeight = 64

type chunk struct{ p, q int }

// driver plays a world's producers against db: every tick each producer
// places blocks, lights and damage inside the loaded chunk square.
type driver struct {
	db  *worlddb.DB
	cfg config.Sim
	log log.FieldLogger

	rngs []*rand.Rand

	mu   sync.Mutex
	keys map[chunk]int
}

func newDriver(db *worlddb.DB, cfg config.Sim, logger log.FieldLogger) *driver {
	d := &driver{
		db:   db,
		cfg:  cfg,
		log:  logger,
		keys: make(map[chunk]int),
	}
	for i := 0; i < cfg.Producers; i++ {
		d.rngs = append(d.rngs, rand.New(rand.NewSource(cfg.Seed+int64(i))))
	}
	return d
}

// Run ticks until ctx is done.
func (d *driver) Run(ctx context.Context) error {
	t := time.NewTicker(time.Second / time.Duration(d.cfg.TickRateHz))
	defer t.Stop()

	d.log.WithFields(log.Fields{
		"producers": d.cfg.Producers,
		"tick_hz":   d.cfg.TickRateHz,
		"writes":    d.cfg.WritesPerTick,
	}).Info("sim started")

	for tick := 1; ; tick++ {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if err := d.Tick(ctx, tick); err != nil {
			return err
		}
	}
}

// Tick runs one simulation step and commits on the configured cadence.
func (d *driver) Tick(ctx context.Context, tick int) error {
	g, _ := errgroup.WithContext(ctx)
	for i := range d.rngs {
		rng := d.rngs[i]
		g.Go(func() error {
			d.produce(rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if tick%d.cfg.CommitEveryTicks == 0 {
		d.db.Commit()
	}
	return nil
}

func (d *driver) produce(rng *rand.Rand) {
	r := d.cfg.ChunkRadius
	size := d.cfg.ChunkSize
	touched := make(map[chunk]bool)

	for n := 0; n < d.cfg.WritesPerTick; n++ {
		c := chunk{p: rng.Intn(2*r+1) - r, q: rng.Intn(2*r+1) - r}
		x := c.p*size + rng.Intn(size)
		y := rng.Intn(worldHeight)
		z := c.q*size + rng.Intn(size)

		switch roll := rng.Intn(100); {
		case roll < 70:
			d.db.InsertBlock(c.p, c.q, x, y, z, 1+rng.Intn(63))
		case roll < 85:
			d.db.InsertLight(c.p, c.q, x, y, z, rng.Intn(16))
		case roll < 97:
			d.db.InsertBlockDamage(c.p, c.q, x, y, z, 1+rng.Intn(9))
		default:
			d.db.TrimBlockDamage(c.p, c.q)
		}
		touched[c] = true
	}

	d.mu.Lock()
	for c := range touched {
		d.keys[c]++
		d.db.SetKey(c.p, c.q, d.keys[c])
	}
	d.mu.Unlock()
}

// chunkKey reports the last key the driver assigned to (p, q).
func (d *driver) chunkKey(p, q int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys[chunk{p, q}]
}
