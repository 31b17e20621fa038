package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/auctionhouse/auctiond/internal/service"
)

// CatalogHandler serves the public, unauthenticated item surface.
type CatalogHandler struct {
	catalog *service.Catalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog *service.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logHandler(logger, "catalog"),
	}
}

// ListListed returns all items currently open for bidding.
// GET /v1/items
func (h *CatalogHandler) ListListed(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListListed(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetItem returns one item.
// GET /v1/items/{sellerID}/{itemID}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.catalog.GetItem(r.Context(), pathParam(r, "sellerID"), pathParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// GetImage streams an item image.
// GET /v1/items/{sellerID}/{itemID}/images/{key...}
func (h *CatalogHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.catalog.GetImage(r.Context(), pathParam(r, "sellerID"), pathParam(r, "itemID"), pathParam(r, "key"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	defer rc.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("catalog: image stream interrupted", slog.String("error", err.Error()))
	}
}
