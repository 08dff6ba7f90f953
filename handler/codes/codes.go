package codes

import (
	"errors"
	"strconv"

	"lending/core"

	"github.com/twitchtv/twirp"
)

const (
	// CustomCodeKey code key
	CustomCodeKey = "custom_code"
	// KindKey error kind key
	KindKey = "kind"

	// InvalidArguments invalid arguments
	InvalidArguments = 100001
	// Unauthenticated missing or invalid token
	Unauthenticated = 100002
	// TooManyRequests rate limited
	TooManyRequests = 100003
)

// With with specified error
func With(err error, code int) error {
	twerr, ok := err.(twirp.Error)
	if !ok {
		twerr = twirp.InternalErrorWith(err)
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(code))
}

// Get get error code
func Get(code twirp.ErrorCode) int {
	switch code {
	case twirp.InvalidArgument:
		return InvalidArguments
	case twirp.Unauthenticated:
		return Unauthenticated
	case twirp.ResourceExhausted:
		return TooManyRequests
	default:
		return twirp.ServerHTTPStatusFromErrorCode(code)
	}
}

var kindCodes = map[core.ErrorKind]twirp.ErrorCode{
	core.KindInvalidAmount:       twirp.InvalidArgument,
	core.KindInsufficientBalance: twirp.FailedPrecondition,
	core.KindLimitExceeded:       twirp.FailedPrecondition,
	core.KindUnauthorized:        twirp.PermissionDenied,
	core.KindNotLiquidatable:     twirp.FailedPrecondition,
	core.KindNoDebt:              twirp.FailedPrecondition,
	core.KindSelfLiquidation:     twirp.InvalidArgument,
	core.KindPaused:              twirp.Unavailable,
	core.KindPriceUnavailable:    twirp.Unavailable,
	core.KindGovernorTiming:      twirp.FailedPrecondition,
	core.KindNotFound:            twirp.NotFound,
}

// FromError translates err into a twirp error. Domain errors keep their
// message, kind and numeric code; everything else becomes an internal error.
func FromError(err error) twirp.Error {
	if twerr, ok := err.(twirp.Error); ok {
		return twerr
	}

	var e *core.Error
	if !errors.As(err, &e) {
		return twirp.InternalErrorWith(err)
	}

	code, ok := kindCodes[e.Kind]
	if !ok {
		return twirp.InternalErrorWith(err).
			WithMeta(CustomCodeKey, e.Code.String()).
			WithMeta(KindKey, e.Kind.String())
	}

	return twirp.NewError(code, err.Error()).
		WithMeta(CustomCodeKey, e.Code.String()).
		WithMeta(KindKey, e.Kind.String())
}
