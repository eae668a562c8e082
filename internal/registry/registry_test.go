package registry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"ssal/internal/election"
	"ssal/internal/state"
	"ssal/internal/store"
	"ssal/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// failingKV fails every Put once armed.
type failingKV struct {
	store.KV
	failPuts bool
}

func (f *failingKV) Put(entries ...store.Entry) error {
	if f.failPuts {
		return errDiskFull
	}
	return f.KV.Put(entries...)
}

func newTestKV(t *testing.T) *store.Store {
	t.Helper()
	kv := store.NewMemory(time.Second)
	require.NoError(t, state.Init(kv, true))
	return kv
}

func newSequencers(t *testing.T, kv store.KV) *SequencerRegistry {
	t.Helper()
	return NewSequencerRegistry(kv, election.NewElector(kv, election.NewSeededSelector([32]byte{42})))
}

func assertLeaderInSet(t *testing.T, kv store.Reader) types.Round {
	t.Helper()
	set, err := state.LoadSequencerSet(kv)
	require.NoError(t, err)
	round, err := state.LoadRound(kv)
	require.NoError(t, err)

	if set.Len() == 0 {
		assert.Nil(t, round.Leader, "leader reported with empty sequencer set")
		assert.Equal(t, types.RoundIdle, round.Status)
		return round
	}
	require.NotNil(t, round.Leader, "sequencers registered but no leader")
	assert.True(t, set.Contains(round.Leader.Identity), "leader %q not in set", round.Leader.Identity)
	assert.Equal(t, types.RoundOpen, round.Status)
	return round
}

func TestSequencerRegistry_RegisterElectsFirstLeader(t *testing.T) {
	kv := newTestKV(t)
	reg := newSequencers(t, kv)
	ctx := context.Background()

	entry, err := reg.Register(ctx, " seq-a ")
	require.NoError(t, err)
	assert.Equal(t, "seq-a", entry.Identity)
	assert.Equal(t, types.FirstRound, entry.Epoch)
	assert.False(t, entry.RegisteredAt.IsZero())

	round := assertLeaderInSet(t, kv)
	assert.Equal(t, "seq-a", round.Leader.Identity)
	assert.Equal(t, types.FirstRound, round.Number)

	// further registrations leave the open round's leader alone
	_, err = reg.Register(ctx, "seq-b")
	require.NoError(t, err)
	round = assertLeaderInSet(t, kv)
	assert.Equal(t, "seq-a", round.Leader.Identity)
}

func TestSequencerRegistry_RegisterDuplicate(t *testing.T) {
	kv := newTestKV(t)
	reg := newSequencers(t, kv)
	ctx := context.Background()

	_, err := reg.Register(ctx, "seq-a")
	require.NoError(t, err)

	_, err = reg.Register(ctx, "seq-a")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSequencerRegistry_DeregisterUnknown(t *testing.T) {
	reg := newSequencers(t, newTestKV(t))

	err := reg.Deregister(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestSequencerRegistry_InvalidIdentity(t *testing.T) {
	reg := newSequencers(t, newTestKV(t))

	_, err := reg.Register(context.Background(), "  ")
	require.ErrorIs(t, err, types.ErrInvalidIdentity)
	require.ErrorIs(t, reg.Deregister(context.Background(), ""), types.ErrInvalidIdentity)
}

func TestSequencerRegistry_DeregisterLeaderHandsOver(t *testing.T) {
	kv := newTestKV(t)
	reg := newSequencers(t, kv)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := reg.Register(ctx, id)
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		round := assertLeaderInSet(t, kv)
		require.NoError(t, reg.Deregister(ctx, round.Leader.Identity))
		after := assertLeaderInSet(t, kv)
		assert.Equal(t, round.Number, after.Number, "hand-over keeps the round number")
	}

	round := assertLeaderInSet(t, kv)
	assert.Nil(t, round.Leader)
}

func TestSequencerRegistry_DeregisterNonLeaderKeepsLeader(t *testing.T) {
	kv := newTestKV(t)
	reg := newSequencers(t, kv)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := reg.Register(ctx, id)
		require.NoError(t, err)
	}
	round := assertLeaderInSet(t, kv)
	other := "a"
	if round.Leader.Identity == "a" {
		other = "b"
	}

	require.NoError(t, reg.Deregister(ctx, other))

	after := assertLeaderInSet(t, kv)
	assert.Equal(t, round.Leader.Identity, after.Leader.Identity)
}

func TestSequencerRegistry_ReplayMatchesSetDifference(t *testing.T) {
	kv := newTestKV(t)
	reg := newSequencers(t, kv)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	want := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("seq-%d", rng.IntN(12))
		if rng.IntN(2) == 0 {
			_, err := reg.Register(ctx, id)
			if want[id] {
				require.ErrorIs(t, err, ErrAlreadyRegistered)
			} else {
				require.NoError(t, err)
				want[id] = true
			}
		} else {
			err := reg.Deregister(ctx, id)
			if want[id] {
				require.NoError(t, err)
				delete(want, id)
			} else {
				require.ErrorIs(t, err, ErrNotRegistered)
			}
		}
		assertLeaderInSet(t, kv)
	}

	list, err := reg.List(ctx)
	require.NoError(t, err)
	got := map[string]bool{}
	for _, e := range list {
		got[e.Identity] = true
	}
	assert.Equal(t, want, got)
}

func TestSequencerRegistry_ConcurrentRegister(t *testing.T) {
	kv := store.NewMemory(10 * time.Second)
	require.NoError(t, state.Init(kv, true))
	reg := newSequencers(t, kv)

	const n = 64
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := reg.Register(context.Background(), fmt.Sprintf("seq-%02d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	list, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, n)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Identity, list[i].Identity)
	}
	assertLeaderInSet(t, kv)
}

func TestSequencerRegistry_LockTimeout(t *testing.T) {
	kv := store.NewMemory(30 * time.Millisecond)
	require.NoError(t, state.Init(kv, true))
	reg := newSequencers(t, kv)

	held, err := kv.Lock(context.Background(), state.RoundKey)
	require.NoError(t, err)
	defer held.Release()

	_, err = reg.Register(context.Background(), "seq-a")
	require.ErrorIs(t, err, store.ErrLockTimeout)

	set, err := state.LoadSequencerSet(kv)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestSequencerRegistry_FailedWriteLeavesStateUntouched(t *testing.T) {
	kv := newTestKV(t)
	faulty := &failingKV{KV: kv}
	reg := newSequencers(t, faulty)
	ctx := context.Background()

	_, err := reg.Register(ctx, "seq-a")
	require.NoError(t, err)

	faulty.failPuts = true
	_, err = reg.Register(ctx, "seq-b")
	require.ErrorIs(t, err, errDiskFull)
	require.ErrorIs(t, reg.Deregister(ctx, "seq-a"), errDiskFull)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "seq-a", list[0].Identity)
	assertLeaderInSet(t, kv)
}

func TestRollupRegistry_Lifecycle(t *testing.T) {
	kv := newTestKV(t)
	reg := NewRollupRegistry(kv)
	ctx := context.Background()

	entry, err := reg.Register(ctx, "rollup-1")
	require.NoError(t, err)
	assert.Equal(t, "rollup-1", entry.Identity)

	_, err = reg.Register(ctx, "rollup-1")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	ok, err := reg.IsRegistered("rollup-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.IsRegistered("  rollup-1\t")
	require.NoError(t, err)
	assert.True(t, ok, "identity is normalized before lookup")

	_, err = reg.IsRegistered("   ")
	require.ErrorIs(t, err, types.ErrInvalidIdentity)

	_, err = reg.Register(ctx, "rollup-0")
	require.NoError(t, err)
	list, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rollup-0", list[0].Identity)

	require.NoError(t, reg.Deregister(ctx, "rollup-1"))
	require.ErrorIs(t, reg.Deregister(ctx, "rollup-1"), ErrNotRegistered)

	ok, err = reg.IsRegistered("rollup-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollupRegistry_ConcurrentRegister(t *testing.T) {
	kv := store.NewMemory(10 * time.Second)
	require.NoError(t, state.Init(kv, true))
	reg := NewRollupRegistry(kv)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reg.Register(context.Background(), fmt.Sprintf("rollup-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, n)
}
