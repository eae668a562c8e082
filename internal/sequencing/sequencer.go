package sequencing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ssal/internal/election"
	"ssal/internal/metrics"
	"ssal/internal/state"
	"ssal/internal/store"
	"ssal/internal/types"

	"github.com/google/uuid"
)

// RollupChecker gates which rollups may submit blocks.
type RollupChecker interface {
	IsRegistered(identity string) (bool, error)
}

// Sequencer accepts blocks into the open round and closes it. A round moves
// Open(leader, blocks) -> Closed -> next round Open(new leader, []), or Idle
// when no sequencer is left to lead it.
type Sequencer struct {
	kv      store.KV
	rollups RollupChecker
	elector *election.Elector
	now     func() time.Time
	newID   func() string
}

func NewSequencer(kv store.KV, rollups RollupChecker, elector *election.Elector) *Sequencer {
	return &Sequencer{
		kv:      kv,
		rollups: rollups,
		elector: elector,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CloseBlock appends rawTx to the current round, commits the round to
// history and opens the next one under a newly elected leader. The whole
// transition happens under the round lock and is written as one batch.
// Resubmitting the same transaction yields a new, distinct block.
func (s *Sequencer) CloseBlock(ctx context.Context, rollupID, rawTx string) (types.BlockReceipt, error) {
	receipt, err := s.closeBlock(ctx, rollupID, rawTx)
	if err != nil {
		metrics.CloseBlockRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return types.BlockReceipt{}, err
	}
	metrics.BlocksClosedTotal.Inc()
	return receipt, nil
}

func (s *Sequencer) closeBlock(ctx context.Context, rollupID, rawTx string) (types.BlockReceipt, error) {
	id, err := types.NormalizeIdentity(rollupID)
	if err != nil {
		return types.BlockReceipt{}, err
	}
	if rawTx == "" {
		return types.BlockReceipt{}, ErrEmptyTransaction
	}

	lock, err := s.kv.Lock(ctx, state.RoundKey)
	if err != nil {
		return types.BlockReceipt{}, err
	}
	defer lock.Release()

	registered, err := s.rollups.IsRegistered(id)
	if err != nil {
		return types.BlockReceipt{}, err
	}
	if !registered {
		return types.BlockReceipt{}, fmt.Errorf("rollup %q: %w", id, ErrUnregisteredRollup)
	}

	round, err := state.LoadRound(s.kv)
	if err != nil {
		return types.BlockReceipt{}, err
	}
	if !round.IsOpen() {
		return types.BlockReceipt{}, fmt.Errorf("round %d: %w", round.Number, ErrNoActiveRound)
	}

	now := s.now().UTC()
	block := types.Block{
		ID:          s.newID(),
		RollupID:    id,
		RawTx:       rawTx,
		Round:       round.Number,
		Position:    uint64(len(round.Blocks)),
		SubmittedAt: now,
	}

	closed := types.ClosedRound{
		Number:   round.Number,
		Leader:   *round.Leader,
		Blocks:   append(append([]types.Block{}, round.Blocks...), block),
		ClosedAt: now,
	}

	// The sequencer set is only ever written while the round lock is held,
	// so this snapshot cannot change under us.
	set, err := state.LoadSequencerSet(s.kv)
	if err != nil {
		return types.BlockReceipt{}, err
	}

	next := types.Round{Number: round.Number + 1, Status: types.RoundIdle, Blocks: []types.Block{}}
	if err := s.elector.Elect(&next, set, election.ReasonRoundClosed); err != nil &&
		!errors.Is(err, election.ErrNoSequencersAvailable) {
		return types.BlockReceipt{}, fmt.Errorf("elect leader for round %d: %w", next.Number, err)
	}

	closedEntry, err := state.ClosedRoundEntry(closed)
	if err != nil {
		return types.BlockReceipt{}, err
	}
	roundEntry, err := state.RoundEntry(next)
	if err != nil {
		return types.BlockReceipt{}, err
	}
	if err := s.kv.Put(closedEntry, roundEntry); err != nil {
		return types.BlockReceipt{}, err
	}

	metrics.CurrentRound.Set(float64(next.Number))

	receipt := types.BlockReceipt{
		BlockID:    block.ID,
		Round:      block.Round,
		Position:   block.Position,
		NextRound:  next.Number,
		NextLeader: next.Leader,
	}

	nextLeader := ""
	if next.Leader != nil {
		nextLeader = next.Leader.Identity
	}
	slog.Info("block closed",
		"block_id", block.ID,
		"rollup", id,
		"round", block.Round,
		"position", block.Position,
		"leader", closed.Leader.Identity,
		"next_leader", nextLeader,
	)
	return receipt, nil
}

// Round returns the committed history of a closed round.
func (s *Sequencer) Round(number uint64) (types.ClosedRound, error) {
	closed, ok, err := state.LoadClosedRound(s.kv, number)
	if err != nil {
		return types.ClosedRound{}, err
	}
	if !ok {
		return types.ClosedRound{}, fmt.Errorf("round %d: %w", number, ErrRoundNotFound)
	}
	return closed, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrUnregisteredRollup):
		return "unregistered_rollup"
	case errors.Is(err, ErrNoActiveRound):
		return "no_active_round"
	case errors.Is(err, ErrEmptyTransaction), errors.Is(err, types.ErrInvalidIdentity):
		return "invalid"
	case errors.Is(err, store.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "error"
	}
}
