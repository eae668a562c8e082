package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const MaxIdentityLength = 256

var ErrInvalidIdentity = errors.New("invalid identity")

// NormalizeIdentity trims surrounding whitespace and rejects identities that
// are empty, too long, or contain control characters.
func NormalizeIdentity(identity string) (string, error) {
	id := strings.TrimSpace(identity)
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentity)
	}
	if len(id) > MaxIdentityLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidIdentity, MaxIdentityLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains control characters", ErrInvalidIdentity)
		}
	}
	return id, nil
}
