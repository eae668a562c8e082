package election

import "errors"

var (
	ErrNoSequencersAvailable = errors.New("no sequencers available")
)
