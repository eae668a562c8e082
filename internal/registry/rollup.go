package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ssal/internal/metrics"
	"ssal/internal/state"
	"ssal/internal/store"
	"ssal/internal/types"
)

// RollupRegistry manages the rollups allowed to submit blocks.
type RollupRegistry struct {
	kv  store.KV
	now func() time.Time
}

func NewRollupRegistry(kv store.KV) *RollupRegistry {
	return &RollupRegistry{kv: kv, now: time.Now}
}

func (r *RollupRegistry) Register(ctx context.Context, identity string) (types.RollupEntry, error) {
	entry, err := r.register(ctx, identity)
	metrics.RegistryOperationsTotal.WithLabelValues("rollup", "register", resultLabel(err)).Inc()
	return entry, err
}

func (r *RollupRegistry) register(ctx context.Context, identity string) (types.RollupEntry, error) {
	id, err := types.NormalizeIdentity(identity)
	if err != nil {
		return types.RollupEntry{}, err
	}

	lock, err := r.kv.Lock(ctx, state.RollupSetKey)
	if err != nil {
		return types.RollupEntry{}, err
	}
	defer lock.Release()

	set, err := state.LoadRollupSet(r.kv)
	if err != nil {
		return types.RollupEntry{}, err
	}

	entry := types.RollupEntry{Identity: id, RegisteredAt: r.now().UTC()}
	if !set.Add(entry) {
		return types.RollupEntry{}, fmt.Errorf("rollup %q: %w", id, ErrAlreadyRegistered)
	}

	if err := r.write(set); err != nil {
		return types.RollupEntry{}, err
	}

	slog.Info("rollup registered", "identity", id, "rollups", set.Len())
	return entry, nil
}

func (r *RollupRegistry) Deregister(ctx context.Context, identity string) error {
	err := r.deregister(ctx, identity)
	metrics.RegistryOperationsTotal.WithLabelValues("rollup", "deregister", resultLabel(err)).Inc()
	return err
}

func (r *RollupRegistry) deregister(ctx context.Context, identity string) error {
	id, err := types.NormalizeIdentity(identity)
	if err != nil {
		return err
	}

	lock, err := r.kv.Lock(ctx, state.RollupSetKey)
	if err != nil {
		return err
	}
	defer lock.Release()

	set, err := state.LoadRollupSet(r.kv)
	if err != nil {
		return err
	}
	if !set.Remove(id) {
		return fmt.Errorf("rollup %q: %w", id, ErrNotRegistered)
	}

	if err := r.write(set); err != nil {
		return err
	}

	slog.Info("rollup deregistered", "identity", id, "rollups", set.Len())
	return nil
}

func (r *RollupRegistry) write(set types.RollupSet) error {
	entry, err := state.RollupSetEntry(set)
	if err != nil {
		return err
	}
	if err := r.kv.Put(entry); err != nil {
		return err
	}
	metrics.RollupsRegistered.Set(float64(set.Len()))
	return nil
}

func (r *RollupRegistry) List(ctx context.Context) ([]types.RollupEntry, error) {
	lock, err := r.kv.Lock(ctx, state.RollupSetKey)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	set, err := state.LoadRollupSet(r.kv)
	if err != nil {
		return nil, err
	}
	return set.Entries(), nil
}

// IsRegistered is a snapshot read; it takes no lock.
func (r *RollupRegistry) IsRegistered(identity string) (bool, error) {
	id, err := types.NormalizeIdentity(identity)
	if err != nil {
		return false, err
	}
	set, err := state.LoadRollupSet(r.kv)
	if err != nil {
		return false, err
	}
	return set.Contains(id), nil
}
