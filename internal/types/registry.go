package types

import (
	"sort"
	"time"
)

type SequencerEntry struct {
	Identity     string    `json:"identity"`
	RegisteredAt time.Time `json:"registered_at"`
	Epoch        uint64    `json:"epoch"`
}

// SequencerSet is kept sorted by identity.
type SequencerSet struct {
	Sequencers []SequencerEntry `json:"sequencers"`
}

func (s SequencerSet) index(identity string) (int, bool) {
	i := sort.Search(len(s.Sequencers), func(i int) bool {
		return s.Sequencers[i].Identity >= identity
	})
	return i, i < len(s.Sequencers) && s.Sequencers[i].Identity == identity
}

func (s SequencerSet) Contains(identity string) bool {
	_, ok := s.index(identity)
	return ok
}

// Add inserts the entry and reports false if the identity is already present.
func (s *SequencerSet) Add(entry SequencerEntry) bool {
	i, ok := s.index(entry.Identity)
	if ok {
		return false
	}
	s.Sequencers = append(s.Sequencers, SequencerEntry{})
	copy(s.Sequencers[i+1:], s.Sequencers[i:])
	s.Sequencers[i] = entry
	return true
}

func (s *SequencerSet) Remove(identity string) bool {
	i, ok := s.index(identity)
	if !ok {
		return false
	}
	s.Sequencers = append(s.Sequencers[:i], s.Sequencers[i+1:]...)
	return true
}

func (s SequencerSet) Len() int {
	return len(s.Sequencers)
}

func (s SequencerSet) Entries() []SequencerEntry {
	return append([]SequencerEntry{}, s.Sequencers...)
}

type RollupEntry struct {
	Identity     string    `json:"identity"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RollupSet is kept sorted by identity.
type RollupSet struct {
	Rollups []RollupEntry `json:"rollups"`
}

func (s RollupSet) index(identity string) (int, bool) {
	i := sort.Search(len(s.Rollups), func(i int) bool {
		return s.Rollups[i].Identity >= identity
	})
	return i, i < len(s.Rollups) && s.Rollups[i].Identity == identity
}

func (s RollupSet) Contains(identity string) bool {
	_, ok := s.index(identity)
	return ok
}

func (s *RollupSet) Add(entry RollupEntry) bool {
	i, ok := s.index(entry.Identity)
	if ok {
		return false
	}
	s.Rollups = append(s.Rollups, RollupEntry{})
	copy(s.Rollups[i+1:], s.Rollups[i:])
	s.Rollups[i] = entry
	return true
}

func (s *RollupSet) Remove(identity string) bool {
	i, ok := s.index(identity)
	if !ok {
		return false
	}
	s.Rollups = append(s.Rollups[:i], s.Rollups[i+1:]...)
	return true
}

func (s RollupSet) Len() int {
	return len(s.Rollups)
}

func (s RollupSet) Entries() []RollupEntry {
	return append([]RollupEntry{}, s.Rollups...)
}
