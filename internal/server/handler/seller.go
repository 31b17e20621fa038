package handler

import (
	"log/slog"
	"net/http"

	"github.com/auctionhouse/auctiond/internal/service"
)

// SellerHandler serves the authenticated seller surface: item management,
// auction close, and stale-bid reconciliation.
type SellerHandler struct {
	accounts   *service.AccountService
	catalog    *service.Catalog
	settlement *service.SettlementCoordinator
	unfreeze   *service.UnfreezeWorkflow
	logger     *slog.Logger
}

// NewSellerHandler creates a SellerHandler.
func NewSellerHandler(
	accounts *service.AccountService,
	catalog *service.Catalog,
	settlement *service.SettlementCoordinator,
	unfreeze *service.UnfreezeWorkflow,
	logger *slog.Logger,
) *SellerHandler {
	return &SellerHandler{
		accounts:   accounts,
		catalog:    catalog,
		settlement: settlement,
		unfreeze:   unfreeze,
		logger:     logHandler(logger, "seller"),
	}
}

// GetAccount returns the seller's profile including the informational fund.
// GET /v1/seller/account
func (h *SellerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	seller, err := h.accounts.GetSeller(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, seller)
}

type itemRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ReservePrice     int64  `json:"reservePrice"`
	AuctionLengthSec int64  `json:"auctionLengthSec"`
}

func (req itemRequest) input() service.ItemInput {
	return service.ItemInput{
		Title:            req.Title,
		Description:      req.Description,
		ReservePrice:     req.ReservePrice,
		AuctionLengthSec: req.AuctionLengthSec,
	}
}

// CreateItem creates a Draft item.
// POST /v1/seller/items
func (h *SellerHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	it, err := h.catalog.CreateItem(r.Context(), p.ID, req.input())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// ListItems returns all of the seller's items.
// GET /v1/seller/items
func (h *SellerHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	items, err := h.catalog.ListSellerItems(r.Context(), p.ID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetItem returns one of the seller's items.
// GET /v1/seller/items/{itemID}
func (h *SellerHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	it, err := h.catalog.GetItem(r.Context(), p.ID, pathParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// UpdateItem replaces the editable fields of a Draft item.
// PATCH /v1/seller/items/{itemID}
func (h *SellerHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	it, err := h.catalog.UpdateItem(r.Context(), p.ID, pathParam(r, "itemID"), req.input())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// PublishItem lists a Draft item for bidding.
// POST /v1/seller/items/{itemID}/publish
func (h *SellerHandler) PublishItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	it, err := h.catalog.Publish(r.Context(), p.ID, pathParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CloseAuction finalizes the item's auction.
// POST /v1/seller/items/{itemID}/close
func (h *SellerHandler) CloseAuction(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	purchase, err := h.settlement.CloseAuction(r.Context(), p.ID, pathParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

// UploadImage attaches an image to an item. The request body is the raw
// image; Content-Type selects the format.
// POST /v1/seller/items/{itemID}/images
func (h *SellerHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	key, err := h.catalog.AttachImage(r.Context(), p.ID, pathParam(r, "itemID"), r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// DeleteImage removes an image from an item.
// DELETE /v1/seller/items/{itemID}/images/{key...}
func (h *SellerHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	if err := h.catalog.RemoveImage(r.Context(), p.ID, pathParam(r, "itemID"), pathParam(r, "key")); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile releases funds still frozen on the buyer's stale bids.
// POST /v1/seller/reconcile/{buyerID}
func (h *SellerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	repaired, err := h.unfreeze.SweepStaleBids(r.Context(), pathParam(r, "buyerID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"repaired": len(repaired),
		"bids":     repaired,
	})
}
