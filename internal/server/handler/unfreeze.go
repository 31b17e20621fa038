package handler

import (
	"log/slog"
	"net/http"

	"github.com/auctionhouse/auctiond/internal/service"
)

// UnfreezeHandler serves the seller-facing unfreeze-request surface.
type UnfreezeHandler struct {
	unfreeze *service.UnfreezeWorkflow
	logger   *slog.Logger
}

// NewUnfreezeHandler creates an UnfreezeHandler.
func NewUnfreezeHandler(unfreeze *service.UnfreezeWorkflow, logger *slog.Logger) *UnfreezeHandler {
	return &UnfreezeHandler{
		unfreeze: unfreeze,
		logger:   logHandler(logger, "unfreeze"),
	}
}

type unfreezeRequestBody struct {
	BuyerID string `json:"buyerId"`
	ItemID  string `json:"itemId"`
	Amount  int64  `json:"amount"`
}

// Create files a new unfreeze request.
// POST /v1/unfreeze-requests
func (h *UnfreezeHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	var req unfreezeRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	created, err := h.unfreeze.Request(r.Context(), p.ID, req.BuyerID, req.ItemID, req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type resolveRequestBody struct {
	Approve bool `json:"approve"`
}

// Resolve approves or denies a pending request.
// PATCH /v1/unfreeze-requests/{id}
func (h *UnfreezeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	var req resolveRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	resolved, err := h.unfreeze.Resolve(r.Context(), p.ID, pathParam(r, "id"), req.Approve)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// List returns the seller's unfreeze requests.
// GET /v1/unfreeze-requests
func (h *UnfreezeHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	reqs, err := h.unfreeze.ListRequests(r.Context(), p.ID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}
