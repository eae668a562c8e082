package main

import (
	"fmt"

	"ssal/internal/configuration/properties"
	"ssal/internal/election"
	"ssal/internal/registry"
	"ssal/internal/sequencing"
	"ssal/internal/state"
	"ssal/internal/store"

	"github.com/hashicorp/go-multierror"
)

type Services struct {
	Store      *store.Store
	Elector    *election.Elector
	Sequencers *registry.SequencerRegistry
	Rollups    *registry.RollupRegistry
	Sequencer  *sequencing.Sequencer
}

func NewServices(provider properties.ConfigProvider) (*Services, error) {
	kv, err := store.Open(provider.GetStore())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := state.Init(kv, provider.GetApplication().ResetRollupSet); err != nil {
		return nil, multierror.Append(err, kv.Close())
	}

	selector, err := election.NewShuffleSelector()
	if err != nil {
		return nil, multierror.Append(err, kv.Close())
	}

	elector := election.NewElector(kv, selector)
	rollups := registry.NewRollupRegistry(kv)

	return &Services{
		Store:      kv,
		Elector:    elector,
		Sequencers: registry.NewSequencerRegistry(kv, elector),
		Rollups:    rollups,
		Sequencer:  sequencing.NewSequencer(kv, rollups, elector),
	}, nil
}

func (s *Services) Close() error {
	var result *multierror.Error
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", err))
		}
	}
	return result.ErrorOrNil()
}
