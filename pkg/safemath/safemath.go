// Package safemath provides overflow-checked unsigned arithmetic and
// fixed-point decimal scaling for ledger counters.
//
// Every operation reports failure instead of wrapping. Callers translate
// a false result into a domain arithmetic error; no counter mutation may
// be persisted after a failed step.
package safemath

import "math/bits"

// Add returns a+b and true, or 0 and false on overflow.
func Add(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, false
	}
	return sum, true
}

// Sub returns a-b and true, or 0 and false on underflow.
func Sub(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, false
	}
	return diff, true
}

// Mul returns a*b and true, or 0 and false on overflow.
func Mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	return lo, true
}

// maxPow10Exp is the largest n with 10^n representable in uint64.
const maxPow10Exp = 19

// Pow10 returns 10^exp and true, or 0 and false when 10^exp does not fit
// in a uint64.
func Pow10(exp uint8) (uint64, bool) {
	if exp > maxPow10Exp {
		return 0, false
	}
	result := uint64(1)
	for i := uint8(0); i < exp; i++ {
		result *= 10
	}
	return result, true
}

// ScaleToBaseUnits converts a human-facing amount into base units:
// amount * 10^decimals. Returns false on overflow.
func ScaleToBaseUnits(amount uint64, decimals uint8) (uint64, bool) {
	factor, ok := Pow10(decimals)
	if !ok {
		return 0, false
	}
	return Mul(amount, factor)
}

// UnscaleFromBaseUnits recovers a human-facing amount from base units by
// integer division. The second result is false when baseUnits is not an
// exact multiple of 10^decimals, which indicates corrupted input.
func UnscaleFromBaseUnits(baseUnits uint64, decimals uint8) (uint64, bool) {
	factor, ok := Pow10(decimals)
	if !ok {
		return 0, false
	}
	if baseUnits%factor != 0 {
		return 0, false
	}
	return baseUnits / factor, true
}
