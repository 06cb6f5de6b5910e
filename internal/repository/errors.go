// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them to stable machine-readable API error kinds. For example,
// ErrAlreadyCheckedIn signals that admission lost the cooldown race
// and should surface HTTP 429, while ErrNotRedeemable signals a
// redemption attempt on a row that is not in the redeemable state.
package repository

import "errors"

// ErrVenueNotFound is returned when a venue does not exist or is not
// active. Handlers should translate this into an HTTP 404 response.
var ErrVenueNotFound = errors.New("venue not found")

// ErrAlreadyCheckedIn is returned when a check-in by the same user or
// the same device at the same venue exists inside the cooldown window,
// including when a concurrent admission loses the race. Handlers
// should translate this into an HTTP 429 response.
var ErrAlreadyCheckedIn = errors.New("already checked in")

// ErrRewardNotFound is returned when a user reward row does not exist
// or does not belong to the calling user. Ownership failures
// deliberately look identical to missing rows so that callers cannot
// enumerate other users' rewards. Handlers should translate this into
// an HTTP 404 response.
var ErrRewardNotFound = errors.New("reward not found")

// ErrNotRedeemable is returned when a redemption targets a row whose
// status is not 'redeemable', either because not enough check-ins have
// accrued or because the reward was already redeemed (possibly by a
// concurrent call that won the conditional update). Handlers should
// translate this into an HTTP 400 response.
var ErrNotRedeemable = errors.New("reward not redeemable")
