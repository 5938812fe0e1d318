package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelcraft.ai/worldstore/internal/config"
	persistlog "voxelcraft.ai/worldstore/internal/persistence/log"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

func TestReplay_RebuildsWorldFromJournal(t *testing.T) {
	dir := t.TempDir()
	journalDir := filepath.Join(dir, "journal")
	j := persistlog.NewCommandJournal(journalDir)

	src, err := worlddb.Open(config.DB{Path: filepath.Join(dir, "src.db")}, worlddb.Options{Journal: j})
	require.NoError(t, err)
	src.InsertBlock(1, 1, 40, 2, 40, 9)
	src.InsertBlockDamage(1, 1, 40, 2, 40, 4)
	src.InsertLight(1, 1, 40, 3, 40, 15)
	src.SetKey(1, 1, 2)
	src.Commit()
	require.NoError(t, src.Close())
	require.NoError(t, j.Close())

	files, err := persistlog.ListJournalFiles(journalDir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	dst, err := worlddb.Open(config.DB{Path: filepath.Join(dir, "dst.db")}, worlddb.Options{})
	require.NoError(t, err)
	res, err := replay(dst, files, 2)
	require.NoError(t, err)
	require.Equal(t, len(files), res.Files)
	require.Equal(t, 5, res.Commands)
	require.NoError(t, dst.Close())

	dst, err = worlddb.Open(config.DB{Path: filepath.Join(dir, "dst.db")}, worlddb.Options{})
	require.NoError(t, err)
	defer dst.Close()

	blocks, damage := worlddb.Voxels{}, worlddb.Voxels{}
	dst.LoadBlocks(1, 1, blocks)
	dst.LoadDamage(1, 1, damage)
	require.Equal(t, worlddb.Voxels{{X: 40, Y: 2, Z: 40}: 9}, blocks)
	require.Equal(t, worlddb.Voxels{{X: 40, Y: 2, Z: 40}: 4}, damage)
	require.Equal(t, 2, dst.GetKey(1, 1))
}

func TestReplay_SkipsExit(t *testing.T) {
	dir := t.TempDir()
	j := persistlog.NewCommandJournal(dir)
	require.NoError(t, j.Append(writeq.SetKey(0, 0, 3)))
	require.NoError(t, j.Append(writeq.Exit()))
	require.NoError(t, j.Close())

	files, err := persistlog.ListJournalFiles(dir)
	require.NoError(t, err)

	db, err := worlddb.Open(config.DB{Path: filepath.Join(t.TempDir(), "w.db")}, worlddb.Options{})
	require.NoError(t, err)
	res, err := replay(db, files, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Commands)
	require.Equal(t, 1, res.Skipped)
	require.NoError(t, db.Close())
}
