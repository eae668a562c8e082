package registry

import "errors"

var (
	ErrAlreadyRegistered = errors.New("already registered")

	ErrNotRegistered = errors.New("not registered")
)
