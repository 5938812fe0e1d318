package worlddb

import (
	"context"

	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/persistence/store"
)

// PlayerState is the single saved local-player position.
type PlayerState struct {
	X, Y, Z float64
	RX, RY  float64
	Flying  bool
}

// exec runs an immediate write. Errors are logged and reported as zero rows.
func (d *DB) exec(id store.Stmt, args ...any) int64 {
	n, err := d.st.Exec(context.Background(), id, args...)
	if err != nil {
		d.log.WithFields(log.Fields{"stmt": id.String(), "err": err}).Error("immediate write failed")
		return 0
	}
	return n
}

// read runs an immediate query under readMu and hands each row to fn. A
// failure is logged and reported as false; callers treat it as not found.
func (d *DB) read(id store.Stmt, fn func(store.Rows) error, args ...any) bool {
	d.readMu.Lock()
	defer d.readMu.Unlock()

	rows, err := d.st.Query(context.Background(), id, args...)
	if err == nil {
		for err == nil && rows.Next() {
			err = fn(rows)
		}
		if err == nil {
			err = rows.Err()
		}
		_ = rows.Close()
	}
	if err != nil {
		readFailuresTotal.WithLabelValues(id.String()).Inc()
		d.log.WithFields(log.Fields{"stmt": id.String(), "err": err}).Warn("immediate read failed")
		return false
	}
	return true
}

// InsertSign writes a sign immediately so it is readable on the next frame.
func (d *DB) InsertSign(p, q, x, y, z, face int, text string) {
	if !d.active() {
		return
	}
	d.exec(store.InsertSign, p, q, x, y, z, face, text)
}

func (d *DB) DeleteSign(x, y, z, face int) {
	if !d.active() {
		return
	}
	d.exec(store.DeleteSign, x, y, z, face)
}

// DeleteSigns removes every sign on block (x, y, z).
func (d *DB) DeleteSigns(x, y, z int) {
	if !d.active() {
		return
	}
	d.exec(store.DeleteSigns, x, y, z)
}

func (d *DB) DeleteAllSigns() {
	if !d.active() {
		return
	}
	d.exec(store.DeleteAllSigns)
}

// GetKey returns the stored key of chunk (p, q), or 0 if there is none. A
// SetKey still waiting in the queue is not visible here.
func (d *DB) GetKey(p, q int) int {
	if !d.active() {
		return 0
	}
	var key int
	found := false
	ok := d.read(store.GetKey, func(rows store.Rows) error {
		if found {
			return nil
		}
		found = true
		return rows.Scan(&key)
	}, p, q)
	if !ok {
		return 0
	}
	return key
}

// SaveState replaces the saved player state.
func (d *DB) SaveState(s PlayerState) {
	if !d.active() {
		return
	}
	flying := 0
	if s.Flying {
		flying = 1
	}
	d.exec(store.SaveStateClear)
	d.exec(store.SaveState, s.X, s.Y, s.Z, s.RX, s.RY, flying)
}

func (d *DB) LoadState() (PlayerState, bool) {
	var s PlayerState
	if !d.active() {
		return s, false
	}
	found := false
	ok := d.read(store.LoadState, func(rows store.Rows) error {
		if found {
			return nil
		}
		var flying int
		if err := rows.Scan(&s.X, &s.Y, &s.Z, &s.RX, &s.RY, &flying); err != nil {
			return err
		}
		s.Flying = flying != 0
		found = true
		return nil
	})
	if !ok || !found {
		return PlayerState{}, false
	}
	return s, true
}

// AuthSet stores username's identity token and makes it the selected one.
func (d *DB) AuthSet(username, token string) {
	if !d.active() {
		return
	}
	d.exec(store.AuthSet, username, token, 1)
	d.AuthSelect(username)
}

// AuthSelect marks username as the only selected identity and reports whether
// it exists.
func (d *DB) AuthSelect(username string) bool {
	if !d.active() {
		return false
	}
	d.AuthSelectNone()
	return d.exec(store.AuthSelect, username) > 0
}

func (d *DB) AuthSelectNone() {
	if !d.active() {
		return
	}
	d.exec(store.AuthSelectNone)
}

func (d *DB) AuthGet(username string) (token string, ok bool) {
	if !d.active() {
		return "", false
	}
	found := false
	ok = d.read(store.AuthGet, func(rows store.Rows) error {
		if found {
			return nil
		}
		found = true
		return rows.Scan(&token)
	}, username)
	if !ok || !found {
		return "", false
	}
	return token, true
}

func (d *DB) AuthGetSelected() (username, token string, ok bool) {
	if !d.active() {
		return "", "", false
	}
	found := false
	ok = d.read(store.AuthGetSelected, func(rows store.Rows) error {
		if found {
			return nil
		}
		found = true
		return rows.Scan(&username, &token)
	})
	if !ok || !found {
		return "", "", false
	}
	return username, token, true
}
