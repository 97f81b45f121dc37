package domain

import (
	dErrors "bondgate/pkg/domain-errors"
)

// ValidateCountry enforces the shared constraint on home-country codes:
// exactly 2 or 3 bytes (alpha-2 or alpha-3).
func ValidateCountry(country string) error {
	if len(country) != 2 && len(country) != 3 {
		return dErrors.New(dErrors.CodeInvalidCountryLength, "country must be 2 or 3 bytes")
	}
	return nil
}
