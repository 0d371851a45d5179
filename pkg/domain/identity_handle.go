package domain

import (
	"encoding/hex"

	dErrors "vozsegura/pkg/domain-errors"
)

// IdentityHandleLength is the hex length of a SHA-256 digest.
const IdentityHandleLength = 64

// IdentityHandle is the irreversible pseudonym of a verified citizen, or of a
// staff member when used as an audit actor. It is the only identity value the
// system stores.
type IdentityHandle string

// ParseIdentityHandle validates a handle received from another component.
func ParseIdentityHandle(s string) (IdentityHandle, error) {
	if len(s) != IdentityHandleLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity handle must be 64 hex characters")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity handle must be hex encoded")
	}
	for _, r := range s {
		if r >= 'A' && r <= 'F' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "identity handle must be lowercase")
		}
	}
	return IdentityHandle(s), nil
}

func (h IdentityHandle) String() string {
	return string(h)
}

func (h IdentityHandle) IsNil() bool {
	return h == ""
}
