// Package services defines the business logic of the club portal: the
// idempotency gate, the access gate, membership review and training
// attendance. This file centralizes the service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Idempotency errors.
var (
	// ErrRequestInProgress is returned when another request holding the same
	// idempotency key is still executing.
	ErrRequestInProgress = errors.New("a request with this idempotency key is already in progress")
)

// Access and identity errors.
var (
	// ErrUserNotFound indicates the user has no profile in the role store.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRole is returned when a stored or requested role is outside
	// the role enumeration.
	ErrInvalidRole = errors.New("invalid role")

	// ErrNotAthlete is returned for athlete-only operations invoked on
	// another role.
	ErrNotAthlete = errors.New("user is not an athlete")
)

// Membership errors.
var (
	ErrClubNotFound        = errors.New("club not found")
	ErrApplicationNotFound = errors.New("application not found or already reviewed")

	// ErrApplicationPending is returned when the athlete already has an
	// application awaiting review.
	ErrApplicationPending = errors.New("an application is already awaiting review")

	// ErrAlreadyMember is returned when an active athlete applies again.
	ErrAlreadyMember = errors.New("athlete already has an active membership")

	// ErrMembershipChanged is returned when the athlete's membership status
	// changed underneath an apply or review, e.g. a suspension landed first.
	ErrMembershipChanged = errors.New("membership status changed; reload and retry")
)

// Training errors.
var (
	ErrSessionNotFound  = errors.New("training session not found")
	ErrAlreadyCheckedIn = errors.New("already checked in to this session")
	ErrEmptyReason      = errors.New("reason is empty")
	ErrReasonTooLong    = errors.New("reason too long")
	ErrEmptyTitle       = errors.New("title is empty")
)
