package store

import "errors"

var (
	ErrLockTimeout = errors.New("lock acquisition timed out")

	ErrClosed = errors.New("store closed")

	ErrUnknownEngine = errors.New("unknown store engine")

	ErrCorruptRecord = errors.New("corrupt log record")
)
