package election

import (
	"errors"
	"log/slog"
	"time"

	"ssal/internal/metrics"
	"ssal/internal/state"
	"ssal/internal/store"
	"ssal/internal/types"
)

type Reason string

const (
	ReasonRoundClosed Reason = "round_closed"
	ReasonLeaderLeft  Reason = "leader_deregistered"
	ReasonFirstLeader Reason = "first_sequencer"
)

type Elector struct {
	rounds   store.Reader
	selector Selector
	now      func() time.Time
}

func NewElector(rounds store.Reader, selector Selector) *Elector {
	return &Elector{
		rounds:   rounds,
		selector: selector,
		now:      time.Now,
	}
}

// Elect assigns a leader to round from set. With an empty set the round is
// left idle without a leader and ErrNoSequencersAvailable is returned. The
// caller must hold the round lock and persist the round.
func (e *Elector) Elect(round *types.Round, set types.SequencerSet, reason Reason) error {
	leader, err := e.selector.Select(set.Entries())
	if err != nil {
		round.Status = types.RoundIdle
		round.Leader = nil
		round.ElectedAt = nil

		result := "failed"
		if errors.Is(err, ErrNoSequencersAvailable) {
			result = "no_sequencers"
		}
		metrics.ElectionsTotal.WithLabelValues(string(reason), result).Inc()
		slog.Warn("leader election failed",
			"round", round.Number,
			"reason", reason,
			"error", err,
		)
		return err
	}

	// The leader must always be a member of the set.
	if !set.Contains(leader.Identity) {
		round.Status = types.RoundIdle
		round.Leader = nil
		round.ElectedAt = nil
		metrics.ElectionsTotal.WithLabelValues(string(reason), "failed").Inc()
		return errors.New("selector returned a sequencer outside the set")
	}

	now := e.now().UTC()
	round.Status = types.RoundOpen
	round.Leader = &leader
	round.ElectedAt = &now

	metrics.ElectionsTotal.WithLabelValues(string(reason), "elected").Inc()
	slog.Info("leader elected",
		"round", round.Number,
		"leader", leader.Identity,
		"candidates", set.Len(),
		"reason", reason,
	)
	return nil
}

// Leader is a snapshot read of the current round. A round without a leader
// is a normal answer, not an error.
func (e *Elector) Leader() (types.Round, error) {
	return state.LoadRound(e.rounds)
}
