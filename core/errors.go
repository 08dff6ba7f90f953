package core

import (
	"errors"
	"strconv"
)

// ErrorCode int
type ErrorCode int

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

// ErrorKind groups error codes by how the caller should react
type ErrorKind int

const (
	// KindInternal storage or programming faults
	KindInternal ErrorKind = iota
	KindInvalidAmount
	KindInsufficientBalance
	KindLimitExceeded
	KindUnauthorized
	KindNotLiquidatable
	KindNoDebt
	KindSelfLiquidation
	KindPaused
	KindPriceUnavailable
	KindGovernorTiming
	KindNotFound
)

var kindNames = map[ErrorKind]string{
	KindInternal:            "Internal",
	KindInvalidAmount:       "InvalidAmount",
	KindInsufficientBalance: "InsufficientBalance",
	KindLimitExceeded:       "LimitExceeded",
	KindUnauthorized:        "Unauthorized",
	KindNotLiquidatable:     "NotLiquidatable",
	KindNoDebt:              "NoDebt",
	KindSelfLiquidation:     "SelfLiquidation",
	KindPaused:              "Paused",
	KindPriceUnavailable:    "PriceUnavailable",
	KindGovernorTiming:      "GovernorTiming",
	KindNotFound:            "NotFound",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "Unknown"
}

// Error domain error with a stable code
type Error struct {
	Code ErrorCode
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(code ErrorCode, kind ErrorKind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Msg: msg}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain, ErrUnknown otherwise
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrUnknown
}

// ErrUnknown unknown
const ErrUnknown ErrorCode = 100000

// ledger errors
var (
	ErrAmountMustBePositive   = newError(100101, KindInvalidAmount, "amount must be > 0")
	ErrInsufficientCollateral = newError(100102, KindInsufficientBalance, "insufficient collateral")
	ErrWithdrawalUnsafe       = newError(100103, KindLimitExceeded, "withdrawal would exceed borrowing limit")
	ErrExceedsBorrowingLimit  = newError(100104, KindLimitExceeded, "exceeds borrowing limit")
	ErrRepayExceedsDebt       = newError(100105, KindInsufficientBalance, "repaying more than debt")
	ErrCannotLiquidateSelf    = newError(100106, KindSelfLiquidation, "cannot liquidate own position")
	ErrBorrowerHasNoDebt      = newError(100107, KindNoDebt, "borrower has no debt")
	ErrPositionHealthy        = newError(100108, KindNotLiquidatable, "position is healthy")
	ErrLiquidationIneffective = newError(100109, KindNotLiquidatable, "liquidation does not improve health factor")
	ErrPaused                 = newError(100110, KindPaused, "market is paused")
	ErrPriceUnavailable       = newError(100111, KindPriceUnavailable, "price unavailable")
	ErrNotPauseAdmin          = newError(100112, KindUnauthorized, "not pause admin")
	ErrNotFeeCollector        = newError(100113, KindUnauthorized, "not fee collector")
	ErrNotGovernor            = newError(100114, KindUnauthorized, "caller is not the timelock")
	ErrInvalidParameter       = newError(100115, KindInvalidAmount, "invalid parameter")
	ErrUnknownSignature       = newError(100116, KindInvalidAmount, "unknown call signature")
	ErrValueNotAccepted       = newError(100117, KindInvalidAmount, "call value not accepted")
	ErrMarketNotInitialized   = newError(100118, KindNotFound, "market not initialized")
	ErrAccountNotFound        = newError(100119, KindNotFound, "account not found")
	ErrOptimisticLock         = newError(100120, KindInternal, "state changed concurrently")
)

// timelock errors
var (
	ErrNotProposer       = newError(100201, KindUnauthorized, "caller is not the proposer")
	ErrEtaTooSoon        = newError(100202, KindGovernorTiming, "estimated execution block must satisfy delay")
	ErrEtaTooFar         = newError(100203, KindGovernorTiming, "estimated execution block is too far in the future")
	ErrTooEarly          = newError(100204, KindGovernorTiming, "transaction hasn't surpassed time lock")
	ErrStaleTransaction  = newError(100205, KindGovernorTiming, "transaction is stale")
	ErrNotQueued         = newError(100206, KindGovernorTiming, "transaction hasn't been queued")
	ErrAlreadyQueued     = newError(100207, KindGovernorTiming, "transaction already queued")
	ErrCallFinalized     = newError(100208, KindGovernorTiming, "transaction already executed or cancelled")
	ErrDelayOutOfRange   = newError(100209, KindInvalidAmount, "delay must be within bounds")
	ErrUnknownTarget     = newError(100210, KindNotFound, "unknown call target")
	ErrCallNotFound      = newError(100211, KindNotFound, "call not found")
	ErrExecutionReverted = newError(100212, KindInternal, "transaction execution reverted")
)

// price, token and swap errors
var (
	ErrNotOwner              = newError(100301, KindUnauthorized, "caller is not the owner")
	ErrPriceMustBePositive   = newError(100302, KindInvalidAmount, "price must be > 0")
	ErrInsufficientFunds     = newError(100303, KindInsufficientBalance, "transfer amount exceeds balance")
	ErrInsufficientAllowance = newError(100304, KindInsufficientBalance, "insufficient allowance")
	ErrNotMinter             = newError(100305, KindUnauthorized, "caller is not the minter")
	ErrUnsupportedToken      = newError(100306, KindInvalidAmount, "unsupported token")
	ErrSameToken             = newError(100307, KindInvalidAmount, "identical tokens")
	ErrSlippageExceeded      = newError(100308, KindLimitExceeded, "slippage exceeded")
	ErrInsufficientLiquidity = newError(100309, KindInsufficientBalance, "insufficient liquidity")
	ErrFeeRateTooHigh        = newError(100310, KindInvalidAmount, "fee rate too high")
	ErrInvalidAddress        = newError(100311, KindInvalidAmount, "invalid address")
	ErrAmountOverflow        = newError(100312, KindInvalidAmount, "amount overflows 256 bits")
)
