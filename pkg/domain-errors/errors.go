// Package domainerrors provides coded errors for the bond ledger domain.
//
// Services construct these directly for validation and precondition
// failures; stores return pkg/platform/sentinel errors which services
// translate into codes here. Handlers map codes to HTTP statuses with
// ToHTTPStatus and never inspect error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure. Codes are stable API: tests
// and handlers match on them, messages are for humans.
type Code string

const (
	// Generic codes shared by every module.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"

	// Registration validation codes.
	CodeInvalidIssuerLength         Code = "invalid_issuer_length"
	CodeInvalidCountryLength        Code = "invalid_country_length"
	CodeInvalidIssueNoLength        Code = "invalid_issue_no_length"
	CodeInvalidTypeOfBond           Code = "invalid_type_of_bond"
	CodeInvalidBondTenor            Code = "invalid_bond_tenor"
	CodeInvalidBondCouponRate       Code = "invalid_bond_coupon_rate"
	CodeInvalidValueDateLength      Code = "invalid_value_date_length"
	CodeInvalidRedemptionDateLength Code = "invalid_redemption_date_length"
	CodeInvalidFullNamesLength      Code = "invalid_full_names_length"
	CodeInvalidNumeric              Code = "invalid_numeric"

	// Ledger state and precondition codes.
	CodeInvalidAmount             Code = "invalid_amount"
	CodeInvalidMinimumBidAmount   Code = "invalid_minimum_bid_amount"
	CodeInvalidInvestorStatus     Code = "invalid_investor_status"
	CodeInvalidBondMaturityStatus Code = "invalid_bond_maturity_status"
	CodeMismatchedAmount          Code = "mismatched_amount"
	CodeInsufficientFunds         Code = "insufficient_funds"
	CodeOfferCapacityExceeded     Code = "offer_capacity_exceeded"
	CodeCapacityExceeded          Code = "capacity_exceeded"
	CodeAccountNotInitialized     Code = "account_not_initialized"
	CodeAccountAlreadyInitialized Code = "account_already_initialized"

	// Arithmetic failures: any overflow or underflow in checked
	// addition, subtraction, multiplication, or decimal scaling.
	CodeInvalidArithmeticOperation Code = "invalid_arithmetic_operation"

	// Delegated transfer failures surfaced from the asset mover.
	CodeTransferFailed Code = "transfer_failed"
)

// Error is a coded domain error. It optionally wraps an underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or any error it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when
// err is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to an HTTP status for the transport
// layer. Validation and precondition failures are client errors; only
// genuinely unexpected conditions map to 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation,
		CodeInvalidIssuerLength, CodeInvalidCountryLength, CodeInvalidIssueNoLength,
		CodeInvalidTypeOfBond, CodeInvalidBondTenor, CodeInvalidBondCouponRate,
		CodeInvalidValueDateLength, CodeInvalidRedemptionDateLength,
		CodeInvalidFullNamesLength, CodeInvalidNumeric, CodeInvalidAmount,
		CodeInvalidMinimumBidAmount:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeAccountNotInitialized:
		return http.StatusNotFound
	case CodeConflict, CodeAccountAlreadyInitialized:
		return http.StatusConflict
	case CodeInvalidInvestorStatus, CodeInvalidBondMaturityStatus,
		CodeMismatchedAmount, CodeInsufficientFunds,
		CodeOfferCapacityExceeded, CodeCapacityExceeded,
		CodeInvalidArithmeticOperation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
