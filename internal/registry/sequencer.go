package registry

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
)

// SequencerRegistry manages the sequencers eligible to lead. Every mutation
// holds both the sequencer set and the round lock, so a membership change
// and the election it triggers are committed as one batch.
type SequencerRegistry struct {
	kv      store.KV
	elector *election.Elector
	now     func() time.Time
}

func NewSequencerRegistry(kv store.KV, elector *election.Elector) *SequencerRegistry {
	return &SequencerRegistry{
		kv:      kv,
		elector: elector,
		now:     time.Now,
	}
}

func (r *SequencerRegistry) Register(ctx context.Context, identity string) (types.SequencerEntry, error) {
	entry, err := r.register(ctx, identity)
	metrics.RegistryOperationsTotal.WithLabelValues("sequencer", "register", resultLabel(err)).Inc()
	return entry, err
}

func (r *SequencerRegistry) register(ctx context.Context, identity string) (types.SequencerEntry, error) {
	id, err := types.NormalizeIdentity(identity)
	if err != nil {
		return types.SequencerEntry{}, err
	}

	lock, err := r.kv.Lock(ctx, state.SequencerSetKey, state.RoundKey)
	if err != nil {
		return types.SequencerEntry{}, err
	}
	defer lock.Release()

	set, err := state.LoadSequencerSet(r.kv)
	if err != nil {
		return types.SequencerEntry{}, err
	}
	if set.Contains(id) {
		return types.SequencerEntry{}, fmt.Errorf("sequencer %q: %w", id, ErrAlreadyRegistered)
	}

	round, err := state.LoadRound(r.kv)
	if err != nil {
		return types.SequencerEntry{}, err
	}

	entry := types.SequencerEntry{
		Identity:     id,
		RegisteredAt: r.now().UTC(),
		Epoch:        round.Number,
	}
	set.Add(entry)

	setEntry, err := state.SequencerSetEntry(set)
	if err != nil {
		return types.SequencerEntry{}, err
	}
	batch := []store.Entry{setEntry}

	if !round.IsOpen() {
		if err := r.elector.Elect(&round, set, election.ReasonFirstLeader); err != nil {
			return types.SequencerEntry{}, fmt.Errorf("elect first leader: %w", err)
		}
		roundEntry, err := state.RoundEntry(round)
		if err != nil {
			return types.SequencerEntry{}, err
		}
		batch = append(batch, roundEntry)
	}

	if err := r.kv.Put(batch...); err != nil {
		return types.SequencerEntry{}, err
	}

	metrics.SequencersRegistered.Set(float64(set.Len()))
	metrics.CurrentRound.Set(float64(round.Number))
	slog.Info("sequencer registered", "identity", id, "epoch", entry.Epoch, "sequencers", set.Len())
	return entry, nil
}

// Deregister removes the sequencer. Removing the current leader hands the
// round over to a newly elected one, or idles it when nobody is left.
func (r *SequencerRegistry) Deregister(ctx context.Context, identity string) error {
	err := r.deregister(ctx, identity)
	metrics.RegistryOperationsTotal.WithLabelValues("sequencer", "deregister", resultLabel(err)).Inc()
	return err
}

func (r *SequencerRegistry) deregister(ctx context.Context, identity string) error {
	id, err := types.NormalizeIdentity(identity)
	if err != nil {
		return err
	}

	lock, err := r.kv.Lock(ctx, state.SequencerSetKey, state.RoundKey)
	if err != nil {
		return err
	}
	defer lock.Release()

	set, err := state.LoadSequencerSet(r.kv)
	if err != nil {
		return err
	}
	if !set.Remove(id) {
		return fmt.Errorf("sequencer %q: %w", id, ErrNotRegistered)
	}

	setEntry, err := state.SequencerSetEntry(set)
	if err != nil {
		return err
	}
	batch := []store.Entry{setEntry}

	round, err := state.LoadRound(r.kv)
	if err != nil {
		return err
	}
	if round.Leader != nil && round.Leader.Identity == id {
		err := r.elector.Elect(&round, set, election.ReasonLeaderLeft)
		if err != nil && !errors.Is(err, election.ErrNoSequencersAvailable) {
			return fmt.Errorf("re-elect leader: %w", err)
		}
		roundEntry, err := state.RoundEntry(round)
		if err != nil {
			return err
		}
		batch = append(batch, roundEntry)
	}

	if err := r.kv.Put(batch...); err != nil {
		return err
	}

	metrics.SequencersRegistered.Set(float64(set.Len()))
	slog.Info("sequencer deregistered", "identity", id, "sequencers", set.Len())
	return nil
}

func (r *SequencerRegistry) List(ctx context.Context) ([]types.SequencerEntry, error) {
	lock, err := r.kv.Lock(ctx, state.SequencerSetKey)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	set, err := state.LoadSequencerSet(r.kv)
	if err != nil {
		return nil, err
	}
	return set.Entries(), nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, types.ErrInvalidIdentity):
		return "invalid"
	case errors.Is(err, store.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "error"
	}
}
