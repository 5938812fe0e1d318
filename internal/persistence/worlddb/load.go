package worlddb

import (
	"sort"

	"voxelcraft.ai/worldstore/internal/persistence/store"
)

// MapSetter receives one stored voxel value per call.
type MapSetter interface {
	Set(x, y, z, w int)
}

// SignAdder receives one stored sign per call.
type SignAdder interface {
	Add(x, y, z, face int, text string)
}

// Pos is a block position.
type Pos struct{ X, Y, Z int }

// Voxels is a plain MapSetter keyed by position.
type Voxels map[Pos]int

func (v Voxels) Set(x, y, z, w int) { v[Pos{x, y, z}] = w }

// Sorted returns the positions of v ordered by x, then y, then z.
func (v Voxels) Sorted() []Pos {
	out := make([]Pos, 0, len(v))
	for p := range v {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

type Sign struct {
	X, Y, Z int
	Face    int
	Text    string
}

// SignList is a plain SignAdder.
type SignList []Sign

func (l *SignList) Add(x, y, z, face int, text string) {
	*l = append(*l, Sign{X: x, Y: y, Z: z, Face: face, Text: text})
}

// LoadBlocks feeds every stored block of chunk (p, q) into dst.
func (d *DB) LoadBlocks(p, q int, dst MapSetter) {
	if !d.active() {
		return
	}
	d.loadVoxels(store.LoadBlocks, p, q, dst, false)
}

func (d *DB) LoadLights(p, q int, dst MapSetter) {
	if !d.active() {
		return
	}
	d.loadVoxels(store.LoadLights, p, q, dst, false)
}

// LoadDamage feeds the non-zero damage values of chunk (p, q) into dst.
func (d *DB) LoadDamage(p, q int, dst MapSetter) {
	if !d.active() {
		return
	}
	d.loadVoxels(store.LoadBlockDamage, p, q, dst, true)
}

func (d *DB) loadVoxels(id store.Stmt, p, q int, dst MapSetter, skipZero bool) {
	d.read(id, func(rows store.Rows) error {
		var x, y, z, w int
		if err := rows.Scan(&x, &y, &z, &w); err != nil {
			return err
		}
		if skipZero && w == 0 {
			return nil
		}
		dst.Set(x, y, z, w)
		return nil
	}, p, q)
}

func (d *DB) LoadSigns(p, q int, dst SignAdder) {
	if !d.active() {
		return
	}
	d.read(store.LoadSigns, func(rows store.Rows) error {
		var x, y, z, face int
		var text string
		if err := rows.Scan(&x, &y, &z, &face, &text); err != nil {
			return err
		}
		dst.Add(x, y, z, face, text)
		return nil
	}, p, q)
}
