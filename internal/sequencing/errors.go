package sequencing

import "errors"

var (
	ErrUnregisteredRollup = errors.New("rollup is not registered")

	ErrNoActiveRound = errors.New("no active round")

	ErrEmptyTransaction = errors.New("raw transaction is empty")

	ErrRoundNotFound = errors.New("round not found")
)
