package billing

import "errors"

var (
	// ErrInvalidReference is returned when text holds no valid MM/YYYY period.
	ErrInvalidReference = errors.New("invalid reference month")
	// ErrInvalidDate is returned when text holds no valid DD/MM/YYYY date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrBillDeleted is returned when mutating a soft-deleted bill.
	ErrBillDeleted = errors.New("bill is deleted")
)

var (
	// ErrNotFound is returned when no bill has the requested id.
	ErrNotFound = errors.New("bill not found")
	// ErrDuplicateReference is returned when a live bill already covers the period.
	ErrDuplicateReference = errors.New("a bill for this reference month already exists")
)
