package extractor

import "errors"

var (
	// ErrTargetTableNotFound is returned when no table matches the provider keywords.
	ErrTargetTableNotFound = errors.New("target table not found")
	// ErrHeaderRowMissing is returned when the header row index lies beyond the table.
	ErrHeaderRowMissing = errors.New("header row missing")
	// ErrAmountColumnNotFound is returned when no column looks like currency.
	ErrAmountColumnNotFound = errors.New("amount column not found")
	// ErrNoCurrentReference is returned when no row carries a parseable MM/YYYY.
	ErrNoCurrentReference = errors.New("no current reference")
	// ErrReferenceNotFound is returned when the current row has no MM/YYYY.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrAmountNotFound is returned when the current row has no amount.
	ErrAmountNotFound = errors.New("amount not found")
	// ErrColumnMissing is returned when an extracted table lacks a canonical column.
	ErrColumnMissing = errors.New("column missing")
	// ErrInvalidTable is returned by table validation.
	ErrInvalidTable = errors.New("invalid table")
)
