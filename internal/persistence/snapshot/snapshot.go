// Package snapshot dumps a world database to a single zstd file and loads
// it back. The file starts with one JSON header line followed by a gob body.
package snapshot

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelcraft.ai/worldstore/internal/persistence/store"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
)

const Version = 1

type Header struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Blocks    int       `json:"blocks"`
	Lights    int       `json:"lights"`
	Damage    int       `json:"damage"`
	Keys      int       `json:"keys"`
	Signs     int       `json:"signs"`
}

// Voxel is one row of the block, light or block_damage table.
type Voxel struct {
	P, Q    int
	X, Y, Z int
	W       int
}

type ChunkKey struct {
	P, Q int
	Key  int
}

type Sign struct {
	P, Q    int
	X, Y, Z int
	Face    int
	Text    string
}

type WorldSnapshot struct {
	Header Header

	Blocks []Voxel
	Lights []Voxel
	Damage []Voxel
	Keys   []ChunkKey
	Signs  []Sign
}

// Export reads every world table from st.
func Export(ctx context.Context, st store.Store) (WorldSnapshot, error) {
	var snap WorldSnapshot
	var err error
	if snap.Blocks, err = dumpVoxels(ctx, st, store.DumpBlocks); err != nil {
		return snap, err
	}
	if snap.Lights, err = dumpVoxels(ctx, st, store.DumpLights); err != nil {
		return snap, err
	}
	if snap.Damage, err = dumpVoxels(ctx, st, store.DumpBlockDamage); err != nil {
		return snap, err
	}
	if err := query(ctx, st, store.DumpKeys, func(r store.Rows) error {
		var k ChunkKey
		if err := r.Scan(&k.P, &k.Q, &k.Key); err != nil {
			return err
		}
		snap.Keys = append(snap.Keys, k)
		return nil
	}); err != nil {
		return snap, err
	}
	if err := query(ctx, st, store.DumpSigns, func(r store.Rows) error {
		var s Sign
		if err := r.Scan(&s.P, &s.Q, &s.X, &s.Y, &s.Z, &s.Face, &s.Text); err != nil {
			return err
		}
		snap.Signs = append(snap.Signs, s)
		return nil
	}); err != nil {
		return snap, err
	}

	snap.Header = Header{
		Version:   Version,
		CreatedAt: time.Now().UTC(),
		Blocks:    len(snap.Blocks),
		Lights:    len(snap.Lights),
		Damage:    len(snap.Damage),
		Keys:      len(snap.Keys),
		Signs:     len(snap.Signs),
	}
	return snap, nil
}

func dumpVoxels(ctx context.Context, st store.Store, id store.Stmt) ([]Voxel, error) {
	var out []Voxel
	err := query(ctx, st, id, func(r store.Rows) error {
		var v Voxel
		if err := r.Scan(&v.P, &v.Q, &v.X, &v.Y, &v.Z, &v.W); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func query(ctx context.Context, st store.Store, id store.Stmt, fn func(store.Rows) error) error {
	rows, err := st.Query(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return rows.Err()
}

// Import replays snap into db and commits. Blocks go first since each block
// write resets that position's damage.
func Import(db *worlddb.DB, snap WorldSnapshot) {
	for _, v := range snap.Blocks {
		db.InsertBlock(v.P, v.Q, v.X, v.Y, v.Z, v.W)
	}
	for _, v := range snap.Lights {
		db.InsertLight(v.P, v.Q, v.X, v.Y, v.Z, v.W)
	}
	for _, v := range snap.Damage {
		db.InsertBlockDamage(v.P, v.Q, v.X, v.Y, v.Z, v.W)
	}
	for _, k := range snap.Keys {
		db.SetKey(k.P, k.Q, k.Key)
	}
	for _, s := range snap.Signs {
		db.InsertSign(s.P, s.Q, s.X, s.Y, s.Z, s.Face, s.Text)
	}
	db.Commit()
}

func WriteSnapshot(path string, snap WorldSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	encClosed := false
	defer func() {
		if !encClosed {
			_ = enc.Close()
		}
	}()

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	encClosed = true
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (WorldSnapshot, error) {
	var snap WorldSnapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
