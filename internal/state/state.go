// Package state owns the persisted layout: the well-known keys and the typed
// snapshots stored under them.
//
// Lock order across all code paths is SequencerSetKey, RollupSetKey, RoundKey.
package state

import (
	"fmt"
	"log/slog"

	"ssal/internal/store"
	"ssal/internal/types"
)

const (
	SequencerSetKey = "sequencer_set"
	RollupSetKey    = "rollup_set"
	RoundKey        = "round"
)

// ClosedRoundKey is zero-padded so keys sort in round order.
func ClosedRoundKey(number uint64) string {
	return fmt.Sprintf("round/%020d", number)
}

func LoadSequencerSet(r store.Reader) (types.SequencerSet, error) {
	var set types.SequencerSet
	if _, err := store.Load(r, SequencerSetKey, &set); err != nil {
		return types.SequencerSet{}, err
	}
	return set, nil
}

func LoadRollupSet(r store.Reader) (types.RollupSet, error) {
	var set types.RollupSet
	if _, err := store.Load(r, RollupSetKey, &set); err != nil {
		return types.RollupSet{}, err
	}
	return set, nil
}

// LoadRound returns the current round, or a fresh idle round if none was
// ever written.
func LoadRound(r store.Reader) (types.Round, error) {
	round := types.NewRound()
	if _, err := store.Load(r, RoundKey, &round); err != nil {
		return types.Round{}, err
	}
	return round, nil
}

func LoadClosedRound(r store.Reader, number uint64) (types.ClosedRound, bool, error) {
	var closed types.ClosedRound
	ok, err := store.Load(r, ClosedRoundKey(number), &closed)
	return closed, ok, err
}

func SequencerSetEntry(set types.SequencerSet) (store.Entry, error) {
	if set.Sequencers == nil {
		set.Sequencers = []types.SequencerEntry{}
	}
	return store.JSONEntry(SequencerSetKey, set)
}

func RollupSetEntry(set types.RollupSet) (store.Entry, error) {
	if set.Rollups == nil {
		set.Rollups = []types.RollupEntry{}
	}
	return store.JSONEntry(RollupSetKey, set)
}

func RoundEntry(round types.Round) (store.Entry, error) {
	if round.Blocks == nil {
		round.Blocks = []types.Block{}
	}
	return store.JSONEntry(RoundKey, round)
}

func ClosedRoundEntry(closed types.ClosedRound) (store.Entry, error) {
	return store.JSONEntry(ClosedRoundKey(closed.Number), closed)
}

// Init seeds missing keys. The rollup set is overwritten with an empty one
// when resetRollups is set; sequencers and the round survive restarts.
func Init(kv store.KV, resetRollups bool) error {
	var entries []store.Entry

	if _, ok, err := kv.Get(SequencerSetKey); err != nil {
		return err
	} else if !ok {
		e, err := SequencerSetEntry(types.SequencerSet{})
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	if _, ok, err := kv.Get(RollupSetKey); err != nil {
		return err
	} else if !ok || resetRollups {
		e, err := RollupSetEntry(types.RollupSet{})
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	if _, ok, err := kv.Get(RoundKey); err != nil {
		return err
	} else if !ok {
		e, err := RoundEntry(types.NewRound())
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	if err := kv.Put(entries...); err != nil {
		return fmt.Errorf("initialize state: %w", err)
	}

	slog.Info("state initialized", "seeded_keys", len(entries), "reset_rollups", resetRollups)
	return nil
}
