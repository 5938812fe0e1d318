package worlddb

import (
	"github.com/pkg/errors"

	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

// put pushes c and wakes the worker. It never blocks on a full queue; the
// ring grows instead. Commands arriving after Exit are dropped.
func (d *DB) put(c writeq.Command) {
	if d == nil || !d.enabled {
		return
	}
	d.mu.Lock()
	if d.exiting {
		d.mu.Unlock()
		return
	}
	d.ring.Put(c)
	if c.Kind == writeq.KindExit {
		d.exiting = true
	}
	depth, capacity := d.ring.Len(), d.ring.Cap()
	d.cond.Signal()
	d.mu.Unlock()

	queuedTotal.WithLabelValues(c.Kind.String()).Inc()
	queueDepth.Set(float64(depth))
	queueCapacity.Set(float64(capacity))
}

// InsertBlock queues block id w at (x, y, z) of chunk (p, q). Applying it also
// resets the block's damage to zero.
func (d *DB) InsertBlock(p, q, x, y, z, w int) {
	d.put(writeq.Block(p, q, x, y, z, w))
}

func (d *DB) InsertLight(p, q, x, y, z, w int) {
	d.put(writeq.Light(p, q, x, y, z, w))
}

func (d *DB) InsertBlockDamage(p, q, x, y, z, damage int) {
	d.put(writeq.BlockDamage(p, q, x, y, z, damage))
}

// TrimBlockDamage queues removal of chunk (p, q)'s zero-damage rows.
func (d *DB) TrimBlockDamage(p, q int) {
	d.put(writeq.TrimDamage(p, q))
}

func (d *DB) SetKey(p, q, key int) {
	d.put(writeq.SetKey(p, q, key))
}

// Commit queues a transaction boundary: everything queued so far becomes
// durable together when the worker reaches it.
func (d *DB) Commit() {
	d.put(writeq.Commit())
}

// Enqueue queues an arbitrary command. Exit is reserved for Close.
func (d *DB) Enqueue(c writeq.Command) error {
	switch c.Kind {
	case writeq.KindBlock, writeq.KindLight, writeq.KindKey, writeq.KindCommit,
		writeq.KindBlockDamage, writeq.KindTrimDamage:
		d.put(c)
		return nil
	case writeq.KindExit:
		return errors.New("exit is issued by Close only")
	default:
		return errors.Errorf("unknown command kind %d", int(c.Kind))
	}
}
