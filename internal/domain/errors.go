package domain

import "errors"

// Sentinel errors for the domain layer. The policy errors below are
// expected, recoverable outcomes of authorization and quota evaluation;
// they are always produced before any persistence call executes for the
// rejected path.
var (
	ErrNotFound                  = errors.New("domain: not found")
	ErrConflict                  = errors.New("domain: conflict")
	ErrUnauthorized              = errors.New("domain: unauthorized")
	ErrInsufficientRole          = errors.New("domain: insufficient role")
	ErrInvalidPropertyAssignment = errors.New("domain: invalid property assignment")
	ErrSubscriptionInactive      = errors.New("domain: subscription inactive")
	ErrSubscriptionLimitExceeded = errors.New("domain: subscription limit exceeded")
	ErrInvoiceFinalized          = errors.New("domain: invoice already finalized")
)
