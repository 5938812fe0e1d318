package log

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

func TestCommandJournal_RotatesHourlyAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	j := NewCommandJournal(dir)

	clock := time.Date(2026, 10, 17, 9, 59, 0, 0, time.UTC)
	j.w.now = func() time.Time { return clock }

	first := []writeq.Command{
		writeq.Block(0, 0, 1, 2, 3, 55),
		writeq.Light(0, 0, 1, 2, 3, 9),
		writeq.Commit(),
	}
	for _, c := range first {
		require.NoError(t, j.Append(c))
	}
	clock = clock.Add(2 * time.Minute)
	second := []writeq.Command{writeq.SetKey(-1, 4, 12), writeq.TrimDamage(-1, 4)}
	for _, c := range second {
		require.NoError(t, j.Append(c))
	}
	require.NoError(t, j.Close())

	files, err := ListJournalFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "commands-2026-10-17-09.jsonl.zst"),
		filepath.Join(dir, "commands-2026-10-17-10.jsonl.zst"),
	}, files)

	var got []writeq.Command
	for _, f := range files {
		require.NoError(t, ReadCommands(f, func(c writeq.Command) error {
			got = append(got, c)
			return nil
		}))
	}
	require.Equal(t, append(first, second...), got)
}

func TestCommandJournal_ReopenAppends(t *testing.T) {
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	for i := 0; i < 2; i++ {
		j := NewCommandJournal(dir)
		j.w.now = clock
		require.NoError(t, j.Append(writeq.SetKey(i, i, i)))
		require.NoError(t, j.Close())
	}

	files, err := ListJournalFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	var keys []int
	require.NoError(t, ReadCommands(files[0], func(c writeq.Command) error {
		keys = append(keys, c.Key)
		return nil
	}))
	require.Equal(t, []int{0, 1}, keys)
}
