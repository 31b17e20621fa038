package handler

import (
	"log/slog"
	"net/http"

	"github.com/auctionhouse/auctiond/internal/service"
)

// BuyerHandler serves the authenticated buyer surface: funds, bids and
// purchases. Every route is behind the buyer-role auth middleware, so the
// principal is always present.
type BuyerHandler struct {
	accounts   *service.AccountService
	bidding    *service.BiddingEngine
	settlement *service.SettlementCoordinator
	logger     *slog.Logger
}

// NewBuyerHandler creates a BuyerHandler.
func NewBuyerHandler(
	accounts *service.AccountService,
	bidding *service.BiddingEngine,
	settlement *service.SettlementCoordinator,
	logger *slog.Logger,
) *BuyerHandler {
	return &BuyerHandler{
		accounts:   accounts,
		bidding:    bidding,
		settlement: settlement,
		logger:     logHandler(logger, "buyer"),
	}
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit adds funds to the buyer's available balance.
// POST /v1/buyer/funds
func (h *BuyerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	buyer, err := h.accounts.Deposit(r.Context(), p.ID, req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, buyer)
}

// GetAccount returns the buyer's profile and balances.
// GET /v1/buyer/account
func (h *BuyerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	buyer, err := h.accounts.GetBuyer(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, buyer)
}

type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

// PlaceBid places a bid on a listed item.
// POST /v1/items/{sellerID}/{itemID}/bids
func (h *BuyerHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	var req placeBidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	bid, err := h.bidding.PlaceBid(r.Context(), p.ID, pathParam(r, "sellerID"), pathParam(r, "itemID"), req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

// ListBids returns the buyer's bids.
// GET /v1/buyer/bids
func (h *BuyerHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	bids, err := h.bidding.ListBids(r.Context(), p.ID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// ListPurchases returns the buyer's purchases.
// GET /v1/buyer/purchases
func (h *BuyerHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	purchases, err := h.settlement.ListPurchases(r.Context(), p.ID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}
