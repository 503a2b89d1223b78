// Package handler exposes one provider's bills over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/service"
	"github.com/FACorreiaa/utility-bill-sync/pkg/httpx"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
)

// BillHandler serves list, get, put and delete for one provider.
type BillHandler[B billing.Entity] struct {
	svc    *service.BillService[B]
	logger *slog.Logger
}

// NewBillHandler creates a handler.
func NewBillHandler[B billing.Entity](svc *service.BillService[B], logger *slog.Logger) *BillHandler[B] {
	return &BillHandler[B]{svc: svc, logger: logger}
}

// Routes mounts the bill endpoints on r.
func (h *BillHandler[B]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Put)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /?offset&limit&include_deleted&order_desc.
func (h *BillHandler[B]) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	bills, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if bills == nil {
		bills = []B{}
	}
	httpx.WriteJSON(w, http.StatusOK, bills)
}

// Get handles GET /{id}. Deleted bills are reported as missing.
func (h *BillHandler[B]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	bill, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if bill.State().IsDeleted() {
		h.fail(w, r, billing.ErrNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bill)
}

type putRequest struct {
	Reference string `json:"reference"`
	Amount    any    `json:"amount"`
}

// Put handles PUT /{id}: it creates the bill under id or replaces its
// reference and amount.
func (h *BillHandler[B]) Put(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: empty body", ErrInvalidBody)
		}
		h.fail(w, r, err)
		return
	}
	if req.Amount == nil {
		h.fail(w, r, fmt.Errorf("%w: amount is required", ErrInvalidBody))
		return
	}

	bill, created, err := h.svc.Put(r.Context(), id, req.Reference, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, bill)
}

// Delete handles DELETE /{id}.
func (h *BillHandler[B]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BillHandler[B]) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), h.logger).Error("bill request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	httpx.WriteError(w, status, msg)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", ErrInvalidBody)
	}
	return id, nil
}

func parseListParams(r *http.Request) (billing.ListParams, error) {
	p := billing.DefaultListParams()
	q := r.URL.Query()

	var err error
	if v := q.Get("offset"); v != "" {
		if p.Offset, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("%w: offset must be an integer", billing.ErrInvalidListParams)
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("%w: limit must be an integer", billing.ErrInvalidListParams)
		}
	}
	if v := q.Get("include_deleted"); v != "" {
		if p.IncludeDeleted, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("%w: include_deleted must be a boolean", billing.ErrInvalidListParams)
		}
	}
	if v := q.Get("order_desc"); v != "" {
		if p.OrderDesc, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("%w: order_desc must be a boolean", billing.ErrInvalidListParams)
		}
	}
	return p, p.Validate()
}
