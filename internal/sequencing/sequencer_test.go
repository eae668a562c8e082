package sequencing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ssal/internal/election"
	"ssal/internal/registry"
	"ssal/internal/state"
	"ssal/internal/store"
	"ssal/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	kv         *store.Store
	sequencers *registry.SequencerRegistry
	rollups    *registry.RollupRegistry
	sequencer  *Sequencer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := store.NewMemory(10 * time.Second)
	require.NoError(t, state.Init(kv, true))

	elector := election.NewElector(kv, election.NewSeededSelector([32]byte{9}))
	rollups := registry.NewRollupRegistry(kv)
	return &harness{
		kv:         kv,
		sequencers: registry.NewSequencerRegistry(kv, elector),
		rollups:    rollups,
		sequencer:  NewSequencer(kv, rollups, elector),
	}
}

func (h *harness) registerSequencers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := h.sequencers.Register(context.Background(), id)
		require.NoError(t, err)
	}
}

func (h *harness) registerRollup(t *testing.T, id string) {
	t.Helper()
	_, err := h.rollups.Register(context.Background(), id)
	require.NoError(t, err)
}

func (h *harness) round(t *testing.T) types.Round {
	t.Helper()
	round, err := state.LoadRound(h.kv)
	require.NoError(t, err)
	return round
}

func TestCloseBlock_Scenario(t *testing.T) {
	h := newHarness(t)
	members := map[string]bool{"A": true, "B": true, "C": true}
	h.registerSequencers(t, "A", "B", "C")

	round := h.round(t)
	require.NotNil(t, round.Leader)
	assert.True(t, members[round.Leader.Identity])

	h.registerRollup(t, "R")

	receipt, err := h.sequencer.CloseBlock(context.Background(), "R", "tx1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Round)
	assert.Equal(t, uint64(0), receipt.Position)
	assert.Equal(t, uint64(2), receipt.NextRound)
	assert.NotEmpty(t, receipt.BlockID)
	require.NotNil(t, receipt.NextLeader)
	assert.True(t, members[receipt.NextLeader.Identity])

	next := h.round(t)
	assert.Equal(t, uint64(2), next.Number)
	require.NotNil(t, next.Leader)
	assert.Equal(t, receipt.NextLeader.Identity, next.Leader.Identity)
	assert.Empty(t, next.Blocks)
}

func TestCloseBlock_CommitsHistory(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A")
	h.registerRollup(t, "R")
	leader := h.round(t).Leader.Identity

	receipt, err := h.sequencer.CloseBlock(context.Background(), "R", "0xdeadbeef")
	require.NoError(t, err)

	closed, err := h.sequencer.Round(receipt.Round)
	require.NoError(t, err)
	assert.Equal(t, receipt.Round, closed.Number)
	assert.Equal(t, leader, closed.Leader.Identity)
	require.Len(t, closed.Blocks, 1)
	assert.Equal(t, receipt.BlockID, closed.Blocks[0].ID)
	assert.Equal(t, "0xdeadbeef", closed.Blocks[0].RawTx)
	assert.Equal(t, "R", closed.Blocks[0].RollupID)

	_, err = h.sequencer.Round(receipt.NextRound)
	require.ErrorIs(t, err, ErrRoundNotFound)
}

func TestCloseBlock_UnregisteredRollupDoesNotMutate(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A", "B")
	before := h.round(t)

	_, err := h.sequencer.CloseBlock(context.Background(), "stranger", "tx")
	require.ErrorIs(t, err, ErrUnregisteredRollup)

	assert.Equal(t, before, h.round(t))
	_, err = h.sequencer.Round(before.Number)
	require.ErrorIs(t, err, ErrRoundNotFound)
}

func TestCloseBlock_DeregisteredRollupRejected(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A")
	h.registerRollup(t, "R")
	require.NoError(t, h.rollups.Deregister(context.Background(), "R"))

	_, err := h.sequencer.CloseBlock(context.Background(), "R", "tx")
	require.ErrorIs(t, err, ErrUnregisteredRollup)
}

func TestCloseBlock_NoActiveRound(t *testing.T) {
	h := newHarness(t)
	h.registerRollup(t, "R")

	_, err := h.sequencer.CloseBlock(context.Background(), "R", "tx")
	require.ErrorIs(t, err, ErrNoActiveRound)

	round := h.round(t)
	assert.Equal(t, types.FirstRound, round.Number)
	assert.Equal(t, types.RoundIdle, round.Status)
}

func TestCloseBlock_RejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A")
	h.registerRollup(t, "R")

	_, err := h.sequencer.CloseBlock(context.Background(), "R", "")
	require.ErrorIs(t, err, ErrEmptyTransaction)

	_, err = h.sequencer.CloseBlock(context.Background(), "", "tx")
	require.ErrorIs(t, err, types.ErrInvalidIdentity)
}

func TestCloseBlock_ResubmissionIsNotDeduplicated(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A", "B")
	h.registerRollup(t, "R")

	first, err := h.sequencer.CloseBlock(context.Background(), "R", "same-tx")
	require.NoError(t, err)
	second, err := h.sequencer.CloseBlock(context.Background(), "R", "same-tx")
	require.NoError(t, err)

	assert.NotEqual(t, first.BlockID, second.BlockID)
	assert.Equal(t, first.Round+1, second.Round)
}

func TestCloseBlock_RoundIncrementsByOne(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A", "B", "C", "D")
	h.registerRollup(t, "R")
	set, err := state.LoadSequencerSet(h.kv)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		before := h.round(t).Number
		receipt, err := h.sequencer.CloseBlock(context.Background(), "R", fmt.Sprintf("tx-%d", i))
		require.NoError(t, err)

		assert.Equal(t, before, receipt.Round)
		assert.Equal(t, before+1, receipt.NextRound)
		require.NotNil(t, receipt.NextLeader)
		assert.True(t, set.Contains(receipt.NextLeader.Identity))
	}
}

func TestCloseBlock_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A", "B", "C")
	h.registerRollup(t, "R1")
	h.registerRollup(t, "R2")

	const n = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	var rounds []uint64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rollup := "R1"
			if i%2 == 1 {
				rollup = "R2"
			}
			receipt, err := h.sequencer.CloseBlock(context.Background(), rollup, fmt.Sprintf("tx-%d", i))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			rounds = append(rounds, receipt.Round)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, rounds, n)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i] < rounds[j] })
	for i, r := range rounds {
		assert.Equal(t, uint64(i+1), r, "every round is closed exactly once")
	}
	assert.Equal(t, uint64(n+1), h.round(t).Number)
}

func TestCloseBlock_ConcurrentWithDeregistrationKeepsLeaderInSet(t *testing.T) {
	h := newHarness(t)
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("seq-%02d", i)
	}
	h.registerSequencers(t, ids...)
	h.registerRollup(t, "R")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 30; i++ {
			_, err := h.sequencer.CloseBlock(context.Background(), "R", "tx")
			if err != nil {
				assert.ErrorIs(t, err, ErrNoActiveRound)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range ids[:11] {
			assert.NoError(t, h.sequencers.Deregister(context.Background(), id))
		}
	}()
	wg.Wait()

	set, err := state.LoadSequencerSet(h.kv)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	round := h.round(t)
	require.NotNil(t, round.Leader)
	assert.Equal(t, ids[11], round.Leader.Identity)
}

func TestCloseBlock_LastSequencerLeavesRoundIdle(t *testing.T) {
	h := newHarness(t)
	h.registerSequencers(t, "A")
	h.registerRollup(t, "R")

	require.NoError(t, h.sequencers.Deregister(context.Background(), "A"))

	_, err := h.sequencer.CloseBlock(context.Background(), "R", "tx")
	require.ErrorIs(t, err, ErrNoActiveRound)

	h.registerSequencers(t, "B")
	receipt, err := h.sequencer.CloseBlock(context.Background(), "R", "tx")
	require.NoError(t, err)
	assert.Equal(t, types.FirstRound, receipt.Round)
	require.NotNil(t, receipt.NextLeader)
	assert.Equal(t, "B", receipt.NextLeader.Identity)
}
