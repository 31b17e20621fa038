package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// imageContentTypes lists the accepted upload types for item images.
var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ItemInput carries the seller-editable fields of an item.
type ItemInput struct {
	Title            string
	Description      string
	ReservePrice     int64
	AuctionLengthSec int64
}

// Catalog manages item listings and their images. Items start as Draft and
// only Draft items are editable; Publish flips them to Listed and stamps the
// auction deadline.
type Catalog struct {
	items  domain.ItemStore
	blobs  blobStore
	events domain.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

type blobStore interface {
	domain.BlobWriter
	domain.BlobReader
	domain.BlobDeleter
}

// NewCatalog creates a Catalog. blobs may be nil when image storage is not
// configured; image operations then fail with ErrStoreUnavailable.
func NewCatalog(items domain.ItemStore, blobs blobStore, events domain.EventPublisher, logger *slog.Logger) *Catalog {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Catalog{
		items:  items,
		blobs:  blobs,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// CreateItem creates a Draft item for the seller.
func (c *Catalog) CreateItem(ctx context.Context, sellerID string, in ItemInput) (domain.Item, error) {
	if err := validateItemInput(in); err != nil {
		return domain.Item{}, err
	}

	it := domain.Item{
		SellerID:         sellerID,
		ID:               uuid.NewString(),
		CreatedAt:        c.now().UTC(),
		Title:            in.Title,
		Description:      in.Description,
		ReservePrice:     in.ReservePrice,
		AuctionLengthSec: in.AuctionLengthSec,
		Status:           domain.ItemStatusDraft,
	}
	if err := c.items.Create(ctx, it); err != nil {
		return domain.Item{}, fmt.Errorf("catalog: create item: %w", err)
	}

	c.logger.InfoContext(ctx, "catalog: item created",
		slog.String("item_id", it.ID),
		slog.String("seller_id", sellerID),
	)
	return it, nil
}

// UpdateItem replaces the editable fields of a Draft item.
func (c *Catalog) UpdateItem(ctx context.Context, sellerID, itemID string, in ItemInput) (domain.Item, error) {
	if err := validateItemInput(in); err != nil {
		return domain.Item{}, err
	}

	it, err := c.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog: get item %s/%s: %w", sellerID, itemID, err)
	}
	if it.Status != domain.ItemStatusDraft {
		return domain.Item{}, fmt.Errorf("catalog: item %s/%s: %w", sellerID, itemID, domain.ErrItemNotEditable)
	}

	expected := it.Version
	it.Title = in.Title
	it.Description = in.Description
	it.ReservePrice = in.ReservePrice
	it.AuctionLengthSec = in.AuctionLengthSec

	if err := c.items.Update(ctx, it, expected); err != nil {
		return domain.Item{}, fmt.Errorf("catalog: update item %s/%s: %w", sellerID, itemID, err)
	}
	it.Version = expected + 1
	return it, nil
}

// Publish lists a Draft item for bidding, stamping the auction deadline from
// the item's configured length.
func (c *Catalog) Publish(ctx context.Context, sellerID, itemID string) (domain.Item, error) {
	it, err := c.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog: get item %s/%s: %w", sellerID, itemID, err)
	}
	if it.Status == domain.ItemStatusListed {
		return domain.Item{}, fmt.Errorf("catalog: item %s/%s: %w", sellerID, itemID, domain.ErrAlreadyListed)
	}
	if it.Status != domain.ItemStatusDraft {
		return domain.Item{}, fmt.Errorf("catalog: item %s/%s: %w", sellerID, itemID, domain.ErrAlreadyClosed)
	}

	expected := it.Version
	listedAt := c.now().UTC()
	closesAt := listedAt.Add(time.Duration(it.AuctionLengthSec) * time.Second)
	it.Status = domain.ItemStatusListed
	it.ListedAt = &listedAt
	it.ClosesAt = &closesAt

	if err := c.items.Update(ctx, it, expected); err != nil {
		return domain.Item{}, fmt.Errorf("catalog: publish item %s/%s: %w", sellerID, itemID, err)
	}
	it.Version = expected + 1

	c.events.Publish(domain.Event{
		Type:     domain.EventItemListed,
		SellerID: sellerID,
		ItemID:   itemID,
		At:       listedAt,
	})
	c.logger.InfoContext(ctx, "catalog: item listed",
		slog.String("item_id", itemID),
		slog.String("seller_id", sellerID),
		slog.Time("closes_at", closesAt),
	)
	return it, nil
}

// GetItem returns one item.
func (c *Catalog) GetItem(ctx context.Context, sellerID, itemID string) (domain.Item, error) {
	it, err := c.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog: get item %s/%s: %w", sellerID, itemID, err)
	}
	return it, nil
}

// ListListed returns all items currently open for bidding.
func (c *Catalog) ListListed(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error) {
	items, err := c.items.ListListed(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: list listed items: %w", err)
	}
	return items, nil
}

// ListSellerItems returns all of the seller's items regardless of status.
func (c *Catalog) ListSellerItems(ctx context.Context, sellerID string, opts domain.ListOpts) ([]domain.Item, error) {
	items, err := c.items.ListBySeller(ctx, sellerID, opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: list items for seller %s: %w", sellerID, err)
	}
	return items, nil
}

// AttachImage stores an image object and records its key on the item. The
// object key embeds the item key so image blobs are traceable to listings.
func (c *Catalog) AttachImage(ctx context.Context, sellerID, itemID, contentType string, data io.Reader) (string, error) {
	ext, ok := imageContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("catalog: unsupported image type %q: %w", contentType, domain.ErrValidation)
	}
	if c.blobs == nil {
		return "", fmt.Errorf("catalog: image storage not configured: %w", domain.ErrStoreUnavailable)
	}

	it, err := c.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return "", fmt.Errorf("catalog: get item %s/%s: %w", sellerID, itemID, err)
	}

	key := path.Join("items", sellerID, itemID, uuid.NewString()+ext)
	if err := c.blobs.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("catalog: store image: %w", err)
	}

	expected := it.Version
	it.Images = append(it.Images, key)
	if err := c.items.Update(ctx, it, expected); err != nil {
		if delErr := c.blobs.Delete(ctx, key); delErr != nil {
			c.logger.WarnContext(ctx, "catalog: orphaned image object",
				slog.String("key", key),
				slog.String("error", delErr.Error()),
			)
		}
		return "", fmt.Errorf("catalog: record image on item %s/%s: %w", sellerID, itemID, err)
	}
	return key, nil
}

// RemoveImage deletes an image object and drops its key from the item.
func (c *Catalog) RemoveImage(ctx context.Context, sellerID, itemID, key string) error {
	if c.blobs == nil {
		return fmt.Errorf("catalog: image storage not configured: %w", domain.ErrStoreUnavailable)
	}

	it, err := c.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return fmt.Errorf("catalog: get item %s/%s: %w", sellerID, itemID, err)
	}
	idx := slices.Index(it.Images, key)
	if idx < 0 {
		return fmt.Errorf("catalog: image %s not on item %s/%s: %w", key, sellerID, itemID, domain.ErrNotFound)
	}

	expected := it.Version
	it.Images = slices.Delete(slices.Clone(it.Images), idx, idx+1)
	if err := c.items.Update(ctx, it, expected); err != nil {
		return fmt.Errorf("catalog: drop image from item %s/%s: %w", sellerID, itemID, err)
	}

	if err := c.blobs.Delete(ctx, key); err != nil {
		// The reference is gone; the blob delete is retried by ops tooling.
		c.logger.WarnContext(ctx, "catalog: image object delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// GetImage streams an image object recorded on the item. The item check
// prevents fishing for arbitrary object keys.
func (c *Catalog) GetImage(ctx context.Context, sellerID, itemID, key string) (io.ReadCloser, string, error) {
	if c.blobs == nil {
		return nil, "", fmt.Errorf("catalog: image storage not configured: %w", domain.ErrStoreUnavailable)
	}

	it, err := c.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: get item %s/%s: %w", sellerID, itemID, err)
	}
	if !slices.Contains(it.Images, key) {
		return nil, "", fmt.Errorf("catalog: image %s not on item %s/%s: %w", key, sellerID, itemID, domain.ErrNotFound)
	}

	rc, contentType, err := c.blobs.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: get image %s: %w", key, err)
	}
	return rc, contentType, nil
}

func validateItemInput(in ItemInput) error {
	if in.Title == "" {
		return fmt.Errorf("catalog: title is required: %w", domain.ErrValidation)
	}
	if in.ReservePrice < 0 {
		return fmt.Errorf("catalog: reserve price must not be negative: %w", domain.ErrValidation)
	}
	if in.AuctionLengthSec <= 0 {
		return fmt.Errorf("catalog: auction length must be positive: %w", domain.ErrValidation)
	}
	return nil
}
