package worlddb

import (
	"context"

	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/persistence/store"
	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

// run is the single consumer of the ring. The queue lock is held only to pop;
// store calls happen without it.
func (d *DB) run() {
	defer close(d.done)
	ctx := context.Background()

	for {
		d.mu.Lock()
		c, ok := d.ring.Get()
		for !ok {
			d.state.Store(int32(StateWaiting))
			d.cond.Wait()
			c, ok = d.ring.Get()
		}
		depth := d.ring.Len()
		d.mu.Unlock()
		queueDepth.Set(float64(depth))

		if c.Kind == writeq.KindExit {
			d.state.Store(int32(StateStopped))
			return
		}
		d.state.Store(int32(StateDraining))
		d.apply(ctx, c)
	}
}

func (d *DB) apply(ctx context.Context, c writeq.Command) {
	var ok bool
	switch c.Kind {
	case writeq.KindBlock:
		ok = d.write(ctx, c, store.InsertBlock, c.P, c.Q, c.X, c.Y, c.Z, c.W)
		// A placed or removed block carries no damage.
		ok = d.write(ctx, c, store.InsertBlockDamage, c.P, c.Q, c.X, c.Y, c.Z, 0) && ok
	case writeq.KindLight:
		ok = d.write(ctx, c, store.InsertLight, c.P, c.Q, c.X, c.Y, c.Z, c.W)
	case writeq.KindBlockDamage:
		ok = d.write(ctx, c, store.InsertBlockDamage, c.P, c.Q, c.X, c.Y, c.Z, c.W)
	case writeq.KindTrimDamage:
		ok = d.write(ctx, c, store.TrimBlockDamage, c.P, c.Q)
	case writeq.KindKey:
		ok = d.write(ctx, c, store.SetKey, c.P, c.Q, c.Key)
	case writeq.KindCommit:
		if err := d.st.CommitAndBegin(ctx); err != nil {
			failedWritesTotal.WithLabelValues(c.Kind.String()).Inc()
			d.log.WithError(err).Error("commit failed")
		} else {
			commitsTotal.Inc()
			ok = true
		}
	default:
		d.log.WithField("kind", int(c.Kind)).Warn("dropping command of unknown kind")
		return
	}
	// A command with any failed statement is neither counted nor journaled.
	if !ok {
		return
	}
	appliedTotal.WithLabelValues(c.Kind.String()).Inc()

	if d.journal != nil {
		if err := d.journal.Append(c); err != nil {
			d.log.WithError(err).Warn("journal append failed")
		}
	}
}

// write executes one statement. Failures are logged and counted, never
// retried: one bad write must not stall the queue.
func (d *DB) write(ctx context.Context, c writeq.Command, id store.Stmt, args ...any) bool {
	if _, err := d.st.Exec(ctx, id, args...); err != nil {
		failedWritesTotal.WithLabelValues(c.Kind.String()).Inc()
		d.log.WithFields(log.Fields{
			"stmt": id.String(),
			"p":    c.P,
			"q":    c.Q,
			"err":  err,
		}).Error("write failed")
		return false
	}
	return true
}
