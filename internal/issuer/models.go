package issuer

import (
	dErrors "bondgate/pkg/domain-errors"
)

// MaxIssuers bounds the registry roster. The registry is append-only;
// a full roster rejects further registrations.
const MaxIssuers = 5

// MaxNameLength is the byte-length ceiling for an issuer name.
const MaxNameLength = 30

// Record is one approved bond issuer. Immutable once appended.
type Record struct {
	Name string
}

// ValidateName enforces 0 < len(name) <= 30 bytes.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeInvalidIssuerLength, "issuer name must be 1-30 bytes")
	}
	return nil
}
