package election

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"sync"

	"ssal/internal/types"
)

// Selector picks the leader for a round among the candidates.
type Selector interface {
	Select(candidates []types.SequencerEntry) (types.SequencerEntry, error)
}

// ShuffleSelector runs a Fisher-Yates shuffle over the candidates and takes
// the first one, giving every registered sequencer the same chance.
type ShuffleSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShuffleSelector seeds a ChaCha8 generator from crypto/rand.
func NewShuffleSelector() (*ShuffleSelector, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed leader selector: %w", err)
	}
	return NewSeededSelector(seed), nil
}

// NewSeededSelector is deterministic for a given seed.
func NewSeededSelector(seed [32]byte) *ShuffleSelector {
	return &ShuffleSelector{rng: rand.New(rand.NewChaCha8(seed))}
}

func (s *ShuffleSelector) Select(candidates []types.SequencerEntry) (types.SequencerEntry, error) {
	if len(candidates) == 0 {
		return types.SequencerEntry{}, ErrNoSequencersAvailable
	}

	shuffled := append([]types.SequencerEntry(nil), candidates...)

	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	return shuffled[0], nil
}
