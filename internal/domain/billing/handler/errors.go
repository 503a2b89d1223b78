package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/pkg/db"
	"github.com/FACorreiaa/utility-bill-sync/pkg/money"
)

const (
	msgUnavailable   = "database unavailable or unreachable"
	msgSchemaMissing = "database schema missing: run `billsync migrate` or start once with INIT_DB_SCHEMA=true"
	msgInternal      = "internal server error"
)

// ErrInvalidBody is returned for a request body that is not valid JSON.
var ErrInvalidBody = errors.New("invalid request body")

// StatusFor maps an error from the bill and sync services to an HTTP
// status and the message returned to the client.
func StatusFor(err error) (int, string) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, billing.ErrBillDeleted):
		return http.StatusNotFound, billing.ErrNotFound.Error()
	case errors.Is(err, billing.ErrDuplicateReference):
		return http.StatusConflict, err.Error()
	case errors.Is(err, billing.ErrInvalidReference),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, billing.ErrInvalidListParams),
		errors.Is(err, ErrInvalidBody),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity, err.Error()
	case db.IsUnavailable(err):
		return http.StatusServiceUnavailable, msgUnavailable
	case db.IsSchemaMissing(err):
		return http.StatusInternalServerError, msgSchemaMissing
	case errors.Is(err, context.Canceled):
		// client went away
		return 499, "request cancelled"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
