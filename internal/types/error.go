package types

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// validation
	InvalidAmount  ErrorCode = "INVALID_AMOUNT"
	PurposeTooLong ErrorCode = "PURPOSE_TOO_LONG"
	InvalidExpiry  ErrorCode = "INVALID_EXPIRY"
	FeeTooHigh     ErrorCode = "FEE_TOO_HIGH"

	// authorization
	Unauthorized ErrorCode = "UNAUTHORIZED"

	// state
	AuthorizationInactive ErrorCode = "AUTHORIZATION_INACTIVE"
	AuthorizationExpired  ErrorCode = "AUTHORIZATION_EXPIRED"
	ExceedsSpendingCap    ErrorCode = "EXCEEDS_SPENDING_CAP"
	ExceedsTierLimit      ErrorCode = "EXCEEDS_TIER_LIMIT"
	InsufficientStake     ErrorCode = "INSUFFICIENT_STAKE"
	NoRewardsToClaim      ErrorCode = "NO_REWARDS_TO_CLAIM"
	NotStaking            ErrorCode = "NOT_STAKING"
	NoStakers             ErrorCode = "NO_STAKERS"
	AlreadyExists         ErrorCode = "ALREADY_EXISTS"
	NotFound              ErrorCode = "NOT_FOUND"
	TransferFailed        ErrorCode = "TRANSFER_FAILED"

	// arithmetic
	Overflow ErrorCode = "OVERFLOW"

	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
)

// ErrorKind groups codes by how a caller should react to them.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindState         ErrorKind = "state"
	KindArithmetic    ErrorKind = "arithmetic"
	KindInternal      ErrorKind = "internal"
)

func (c ErrorCode) String() string {
	return string(c)
}

func (c ErrorCode) Kind() ErrorKind {
	switch c {
	case InvalidAmount, PurposeTooLong, InvalidExpiry, FeeTooHigh:
		return KindValidation
	case Unauthorized:
		return KindAuthorization
	case AuthorizationInactive, AuthorizationExpired, ExceedsSpendingCap, ExceedsTierLimit,
		InsufficientStake, NoRewardsToClaim, NotStaking, NoStakers, AlreadyExists, NotFound,
		TransferFailed:
		return KindState
	case Overflow:
		return KindArithmetic
	default:
		return KindInternal
	}
}

// Retryable reports whether the same request may succeed later without the
// caller changing anything. Only infrastructure failures qualify.
func (c ErrorCode) Retryable() bool {
	return c.Kind() == KindInternal
}

type Error struct {
	ErrorCode ErrorCode
	Err       error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so sentinels below can be
// used with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}

func NewError(errorCode ErrorCode, err error) *Error {
	return &Error{
		ErrorCode: errorCode,
		Err:       err,
	}
}

func NewErrorWithMsg(errorCode ErrorCode, msg string) *Error {
	return &Error{
		ErrorCode: errorCode,
		Err:       errors.New(msg),
	}
}

func NewErrorf(errorCode ErrorCode, format string, args ...any) *Error {
	return &Error{
		ErrorCode: errorCode,
		Err:       fmt.Errorf(format, args...),
	}
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		ErrorCode: InternalServiceError,
		Err:       err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalServiceError for untyped errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode
	}
	return InternalServiceError
}

// IsTyped reports whether err carries a domain code, as opposed to an
// infrastructure failure.
func IsTyped(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.ErrorCode != InternalServiceError
}

var (
	ErrInvalidAmount         = NewErrorWithMsg(InvalidAmount, "invalid amount specified")
	ErrPurposeTooLong        = NewErrorWithMsg(PurposeTooLong, "purpose string too long (max 64 characters)")
	ErrInvalidExpiry         = NewErrorWithMsg(InvalidExpiry, "invalid expiry timestamp")
	ErrFeeTooHigh            = NewErrorWithMsg(FeeTooHigh, "fee too high (max 10%)")
	ErrUnauthorized          = NewErrorWithMsg(Unauthorized, "unauthorized action")
	ErrAuthorizationInactive = NewErrorWithMsg(AuthorizationInactive, "authorization is not active")
	ErrAuthorizationExpired  = NewErrorWithMsg(AuthorizationExpired, "authorization has expired")
	ErrExceedsSpendingCap    = NewErrorWithMsg(ExceedsSpendingCap, "amount exceeds spending cap")
	ErrExceedsTierLimit      = NewErrorWithMsg(ExceedsTierLimit, "spending cap exceeds tier limit")
	ErrInsufficientStake     = NewErrorWithMsg(InsufficientStake, "insufficient staked amount")
	ErrNoRewardsToClaim      = NewErrorWithMsg(NoRewardsToClaim, "no rewards to claim")
	ErrNotStaking            = NewErrorWithMsg(NotStaking, "user is not staking")
	ErrNoStakers             = NewErrorWithMsg(NoStakers, "no stakers in the protocol")
	ErrAlreadyExists         = NewErrorWithMsg(AlreadyExists, "entity already exists")
	ErrNotFound              = NewErrorWithMsg(NotFound, "entity not found")
	ErrTransferFailed        = NewErrorWithMsg(TransferFailed, "value transfer failed")
	ErrOverflow              = NewErrorWithMsg(Overflow, "arithmetic overflow")
)
