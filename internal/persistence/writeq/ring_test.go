package writeq

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_DefaultCapacity(t *testing.T) {
	r := NewRing(0)
	require.Equal(t, DefaultCapacity, r.Cap())
	require.True(t, r.Empty())
	require.False(t, r.Full())
	require.Equal(t, 0, r.Len())

	_, ok := r.Get()
	require.False(t, ok, "get on empty ring")

	for _, c := range []int{-1, 1} {
		require.Equal(t, DefaultCapacity, NewRing(c).Cap(), "capacity %d", c)
	}
	require.Equal(t, 2, NewRing(2).Cap())
}

func TestRing_FullAndGrow(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 3; i++ {
		r.Put(Block(0, 0, i, 0, 0, i))
	}
	require.True(t, r.Full())
	require.Equal(t, 3, r.Len())
	require.Equal(t, 4, r.Cap())

	r.Put(Block(0, 0, 3, 0, 0, 3))
	require.Equal(t, 8, r.Cap())
	require.Equal(t, 4, r.Len())
	require.False(t, r.Full())

	for i := 0; i < 4; i++ {
		c, ok := r.Get()
		require.True(t, ok)
		require.Equal(t, i, c.X)
	}
	require.True(t, r.Empty())
}

func TestRing_GrowWhileWrapped(t *testing.T) {
	r := NewRing(4)
	r.Put(SetKey(0, 0, 1))
	r.Put(SetKey(0, 0, 2))
	r.Put(SetKey(0, 0, 3))
	c, _ := r.Get()
	require.Equal(t, 1, c.Key)
	c, _ = r.Get()
	require.Equal(t, 2, c.Key)

	// end wraps past the slice boundary before the ring fills up.
	r.Put(SetKey(0, 0, 4))
	r.Put(SetKey(0, 0, 5))
	require.True(t, r.Full())
	before := r.Len()

	r.Put(SetKey(0, 0, 6))
	require.Equal(t, before+1, r.Len())

	var got []int
	for {
		c, ok := r.Get()
		if !ok {
			break
		}
		got = append(got, c.Key)
	}
	require.Equal(t, []int{3, 4, 5, 6}, got)
}

func TestRing_InterleavedFIFO(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewRing(2)

	var next, want int
	for step := 0; step < 20000; step++ {
		if rng.Intn(3) != 0 {
			r.Put(Light(next, -next, 0, 0, 0, next%16))
			next++
			continue
		}
		c, ok := r.Get()
		if want == next {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.Equal(t, KindLight, c.Kind)
		require.Equal(t, want, c.P)
		want++
		require.Equal(t, next-want, r.Len())
	}
	for want < next {
		c, ok := r.Get()
		require.True(t, ok)
		require.Equal(t, want, c.P)
		want++
	}
	require.True(t, r.Empty())
}

func TestKind_StringRoundTrip(t *testing.T) {
	for k := KindBlock; k <= KindTrimDamage; k++ {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		require.Equal(t, k, got)
	}
	_, ok := ParseKind("nope")
	require.False(t, ok)
	require.Equal(t, "unknown", Kind(99).String())
}

func TestCommand_JSONUsesKindNames(t *testing.T) {
	b, err := json.Marshal(TrimDamage(3, -4))
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"trim_damage","p":3,"q":-4}`, string(b))

	var c Command
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"block","p":1,"q":2,"x":3,"y":4,"z":5,"w":6}`), &c))
	require.Equal(t, Block(1, 2, 3, 4, 5, 6), c)

	require.Error(t, json.Unmarshal([]byte(`{"kind":"teleport"}`), &c))
}
