package types

import "time"

type RoundStatus string

const (
	// RoundIdle means no sequencer is registered, so nobody leads.
	RoundIdle RoundStatus = "idle"
	RoundOpen RoundStatus = "open"
)

const FirstRound uint64 = 1

type Round struct {
	Number    uint64          `json:"number"`
	Status    RoundStatus     `json:"status"`
	Leader    *SequencerEntry `json:"leader"`
	ElectedAt *time.Time      `json:"elected_at,omitempty"`
	Blocks    []Block         `json:"blocks"`
}

func NewRound() Round {
	return Round{Number: FirstRound, Status: RoundIdle, Blocks: []Block{}}
}

func (r *Round) IsOpen() bool {
	return r.Status == RoundOpen && r.Leader != nil
}

// ClosedRound is the committed history of one round.
type ClosedRound struct {
	Number   uint64         `json:"number"`
	Leader   SequencerEntry `json:"leader"`
	Blocks   []Block        `json:"blocks"`
	ClosedAt time.Time      `json:"closed_at"`
}

type Block struct {
	ID          string    `json:"id"`
	RollupID    string    `json:"rollup_id"`
	RawTx       string    `json:"raw_tx"`
	Round       uint64    `json:"round"`
	Position    uint64    `json:"position"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type BlockReceipt struct {
	BlockID    string          `json:"block_id"`
	Round      uint64          `json:"round"`
	Position   uint64          `json:"position"`
	NextRound  uint64          `json:"next_round"`
	NextLeader *SequencerEntry `json:"next_leader"`
}
