package worlddb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDB_SignsAreImmediate(t *testing.T) {
	d, _ := openDB(t, Options{})

	d.InsertSign(0, 0, 1, 2, 3, 0, "north")
	d.InsertSign(0, 0, 1, 2, 3, 1, "east")
	d.InsertSign(0, 0, 4, 2, 3, 0, "other")
	d.InsertSign(1, 0, 40, 2, 3, 0, "next chunk")

	var signs SignList
	d.LoadSigns(0, 0, &signs)
	require.ElementsMatch(t, SignList{
		{X: 1, Y: 2, Z: 3, Face: 0, Text: "north"},
		{X: 1, Y: 2, Z: 3, Face: 1, Text: "east"},
		{X: 4, Y: 2, Z: 3, Face: 0, Text: "other"},
	}, signs)

	d.DeleteSign(1, 2, 3, 1)
	signs = nil
	d.LoadSigns(0, 0, &signs)
	require.Len(t, signs, 2)

	d.DeleteSigns(1, 2, 3)
	signs = nil
	d.LoadSigns(0, 0, &signs)
	require.Equal(t, SignList{{X: 4, Y: 2, Z: 3, Face: 0, Text: "other"}}, signs)

	d.DeleteAllSigns()
	signs = nil
	d.LoadSigns(1, 0, &signs)
	require.Empty(t, signs)
}

func TestDB_GetKeySeesAppliedSetKey(t *testing.T) {
	d, _ := openDB(t, Options{})

	require.Zero(t, d.GetKey(3, 4))
	d.SetKey(3, 4, 17)
	require.Eventually(t, func() bool { return d.GetKey(3, 4) == 17 }, 2*time.Second, 5*time.Millisecond)

	d.SetKey(3, 4, 18)
	require.Eventually(t, func() bool { return d.GetKey(3, 4) == 18 }, 2*time.Second, 5*time.Millisecond)
}

func TestDB_PlayerState(t *testing.T) {
	d, _ := openDB(t, Options{})

	_, ok := d.LoadState()
	require.False(t, ok)

	d.SaveState(PlayerState{X: 1.5, Y: 70, Z: -3, RX: 0.25, RY: -1, Flying: true})
	d.SaveState(PlayerState{X: 2, Y: 71, Z: -4, RX: 0.5, RY: -2})

	s, ok := d.LoadState()
	require.True(t, ok)
	require.Equal(t, PlayerState{X: 2, Y: 71, Z: -4, RX: 0.5, RY: -2}, s)
}

func TestDB_Auth(t *testing.T) {
	d, _ := openDB(t, Options{})

	_, _, ok := d.AuthGetSelected()
	require.False(t, ok)

	d.AuthSet("alex", "tok-a")
	d.AuthSet("steve", "tok-s")

	user, tok, ok := d.AuthGetSelected()
	require.True(t, ok)
	require.Equal(t, "steve", user)
	require.Equal(t, "tok-s", tok)

	require.True(t, d.AuthSelect("alex"))
	user, _, _ = d.AuthGetSelected()
	require.Equal(t, "alex", user)

	require.False(t, d.AuthSelect("nobody"))
	_, _, ok = d.AuthGetSelected()
	require.False(t, ok)

	tok, ok = d.AuthGet("alex")
	require.True(t, ok)
	require.Equal(t, "tok-a", tok)
	_, ok = d.AuthGet("nobody")
	require.False(t, ok)
}

func TestDB_LoadChunk(t *testing.T) {
	d, _ := openDB(t, Options{})

	d.InsertBlock(0, 0, 1, 1, 1, 5)
	d.InsertBlock(0, 0, 2, 1, 1, 6)
	d.InsertBlock(1, 0, 40, 1, 1, 7)
	d.InsertLight(0, 0, 1, 2, 1, 15)
	d.InsertBlockDamage(0, 0, 2, 1, 1, 3)
	d.InsertBlockDamage(0, 0, 9, 9, 9, 0)
	d.SetKey(0, 0, 1)
	// Commands apply in order, so the key marks everything above as applied.
	require.Eventually(t, func() bool { return d.GetKey(0, 0) == 1 }, 2*time.Second, 5*time.Millisecond)

	blocks := Voxels{}
	d.LoadBlocks(0, 0, blocks)
	require.Equal(t, Voxels{{1, 1, 1}: 5, {2, 1, 1}: 6}, blocks)

	lights := Voxels{}
	d.LoadLights(0, 0, lights)
	require.Equal(t, Voxels{{1, 2, 1}: 15}, lights)

	damage := Voxels{}
	d.LoadDamage(0, 0, damage)
	require.Equal(t, Voxels{{2, 1, 1}: 3}, damage)
}

func TestVoxels_Sorted(t *testing.T) {
	v := Voxels{{2, 0, 0}: 1, {1, 5, 0}: 2, {1, 0, 9}: 3, {1, 0, -4}: 4, {-3, 7, 7}: 5}
	require.Equal(t, []Pos{{-3, 7, 7}, {1, 0, -4}, {1, 0, 9}, {1, 5, 0}, {2, 0, 0}}, v.Sorted())
	require.Empty(t, Voxels{}.Sorted())
}

func TestDB_ImmediateAfterCloseIsNoop(t *testing.T) {
	d, _ := openDB(t, Options{})
	require.NoError(t, d.Close())

	d.InsertSign(0, 0, 1, 1, 1, 0, "late")
	require.Zero(t, d.GetKey(0, 0))
	_, ok := d.LoadState()
	require.False(t, ok)
}
