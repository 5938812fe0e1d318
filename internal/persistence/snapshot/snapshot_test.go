package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxelcraft.ai/worldstore/internal/config"
	"voxelcraft.ai/worldstore/internal/persistence/store"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
)

func openWorld(t *testing.T, dir string) *worlddb.DB {
	t.Helper()
	db, err := worlddb.Open(config.DB{Path: filepath.Join(dir, "craft.db")}, worlddb.Options{})
	require.NoError(t, err)
	return db
}

func exportFile(t *testing.T, path string) WorldSnapshot {
	t.Helper()
	st, err := store.OpenSQLite(path, store.Options{})
	require.NoError(t, err)
	defer st.Close()
	snap, err := Export(context.Background(), st)
	require.NoError(t, err)
	return snap
}

func TestExportImportRoundTrip(t *testing.T) {
	src := t.TempDir()
	db := openWorld(t, src)
	db.InsertBlock(0, 0, 1, 2, 3, 5)
	db.InsertBlock(0, 1, 4, 5, 40, 7)
	db.InsertLight(0, 0, 1, 2, 3, 15)
	db.InsertBlockDamage(0, 1, 4, 5, 40, 3)
	db.SetKey(0, 1, 9)
	db.InsertSign(0, 0, 1, 2, 3, 2, "hello")
	require.NoError(t, db.Close())

	snap := exportFile(t, filepath.Join(src, "craft.db"))
	require.Equal(t, Version, snap.Header.Version)
	require.Len(t, snap.Blocks, 2)
	require.Equal(t, []Voxel{
		{P: 0, Q: 0, X: 1, Y: 2, Z: 3, W: 0},
		{P: 0, Q: 1, X: 4, Y: 5, Z: 40, W: 3},
	}, snap.Damage)
	require.Equal(t, []ChunkKey{{P: 0, Q: 1, Key: 9}}, snap.Keys)
	require.Equal(t, []Sign{{X: 1, Y: 2, Z: 3, Face: 2, Text: "hello"}}, snap.Signs)

	file := filepath.Join(t.TempDir(), "world.snap.zst")
	require.NoError(t, WriteSnapshot(file, snap))

	h, err := ReadHeader(file)
	require.NoError(t, err)
	require.Equal(t, 2, h.Blocks)
	require.Equal(t, 1, h.Signs)

	back, err := ReadSnapshot(file)
	require.NoError(t, err)
	require.Equal(t, snap.Blocks, back.Blocks)
	require.Equal(t, snap.Signs, back.Signs)
	require.True(t, snap.Header.CreatedAt.Equal(back.Header.CreatedAt))

	dst := t.TempDir()
	db2 := openWorld(t, dst)
	Import(db2, back)
	require.NoError(t, db2.Close())

	again := exportFile(t, filepath.Join(dst, "craft.db"))
	require.Equal(t, snap.Blocks, again.Blocks)
	require.Equal(t, snap.Lights, again.Lights)
	require.Equal(t, snap.Damage, again.Damage)
	require.Equal(t, snap.Keys, again.Keys)
	require.Equal(t, snap.Signs, again.Signs)
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.snap.zst")
	require.NoError(t, WriteSnapshot(file, WorldSnapshot{Header: Header{Version: 99, CreatedAt: time.Unix(0, 0).UTC()}}))
	_, err := ReadSnapshot(file)
	require.ErrorContains(t, err, "unsupported snapshot version 99")
}

func TestWriteSnapshot_HeaderEncodeError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "far.snap.zst")
	far := WorldSnapshot{Header: Header{Version: Version, CreatedAt: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}}
	err := WriteSnapshot(file, far)
	require.ErrorContains(t, err, "encode header")
}
