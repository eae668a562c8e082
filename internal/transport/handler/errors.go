package handler

import (
	"context"
	"errors"
	"net/http"

	"ssal/internal/election"
	"ssal/internal/registry"
	"ssal/internal/sequencing"
	"ssal/internal/store"
	"ssal/internal/types"
)

var ErrInvalidRequest = errors.New("invalid request")

type Classification struct {
	Status    int
	Code      string
	Retryable bool
}

// Classify sorts an error into the conflict, unavailable and infrastructure
// classes. Anything unrecognised is an infrastructure failure.
func Classify(err error) Classification {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, types.ErrInvalidIdentity),
		errors.Is(err, sequencing.ErrEmptyTransaction):
		return Classification{http.StatusBadRequest, "invalid_request", false}

	case errors.Is(err, registry.ErrAlreadyRegistered):
		return Classification{http.StatusConflict, "already_registered", false}
	case errors.Is(err, registry.ErrNotRegistered):
		return Classification{http.StatusNotFound, "not_registered", false}
	case errors.Is(err, sequencing.ErrUnregisteredRollup):
		return Classification{http.StatusForbidden, "unregistered_rollup", false}
	case errors.Is(err, sequencing.ErrRoundNotFound):
		return Classification{http.StatusNotFound, "round_not_found", false}

	case errors.Is(err, sequencing.ErrNoActiveRound):
		return Classification{http.StatusConflict, "no_active_round", true}
	case errors.Is(err, election.ErrNoSequencersAvailable):
		return Classification{http.StatusConflict, "no_sequencers_available", true}

	case errors.Is(err, store.ErrLockTimeout):
		return Classification{http.StatusServiceUnavailable, "lock_timeout", true}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Classification{http.StatusServiceUnavailable, "timeout", true}
	case errors.Is(err, store.ErrClosed):
		return Classification{http.StatusServiceUnavailable, "store_closed", true}

	default:
		return Classification{http.StatusInternalServerError, "internal", true}
	}
}
