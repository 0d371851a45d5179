// Package pseudonym turns a raw citizen document number into an irreversible
// identity handle. The raw value is hashed as-is: no trimming, no case folding,
// no salt. Changing any of that would orphan every handle already stored.
package pseudonym

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

// Hash returns the lowercase hex SHA-256 of raw.
func Hash(raw string) (id.IdentityHandle, error) {
	if strings.TrimSpace(raw) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity value is required")
	}
	sum := sha256.Sum256([]byte(raw))
	return id.IdentityHandle(hex.EncodeToString(sum[:])), nil
}

// StaffHandle derives the pseudonymous actor used in audit records for a
// staff account. The prefix keeps staff handles disjoint from citizen handles.
func StaffHandle(username string) (id.IdentityHandle, error) {
	if strings.TrimSpace(username) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "staff username is required")
	}
	return Hash("staff:" + username)
}
