package commands

import "courtbook/internal/pkg/errs"

var (
	ErrResourceNotFound    = errs.New("resource not found")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrInvalidTimeSlot     = errs.New("invalid time slot")
	ErrReservationConflict = errs.New("reservation conflict")
	ErrAlreadyCancelled    = errs.New("reservation already cancelled")
	ErrAlreadyCompleted    = errs.New("reservation already completed")
	ErrForbidden           = errs.New("actor is not permitted to perform this operation")

	ErrCardNotFound         = errs.New("entitlement card not found")
	ErrCardNotScratched     = errs.New("entitlement card has not been scratched")
	ErrCardAlreadyScratched = errs.New("entitlement card already scratched")
	ErrCardAlreadyRedeemed  = errs.New("entitlement card already redeemed")
	ErrCardExpired          = errs.New("entitlement card expired")
	ErrCardWrongResource    = errs.New("entitlement card belongs to a different resource")
	ErrReservationNotOpen   = errs.New("reservation is not open for a discount")

	ErrDuplicateRequest        = errs.New("duplicate request with different parameters")
	ErrIdempotencyInProgress   = errs.New("request with this idempotency key is in progress")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// ConflictError carries the window of the booked reservation a creation
// collided with; it is always marked with ErrReservationConflict.
type ConflictError struct {
	Day       string
	StartTime string
	EndTime   string
}

func (e *ConflictError) Error() string {
	return "conflicts with booked reservation " + e.Day + " " + e.StartTime + "-" + e.EndTime
}
