package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/auctionhouse/auctiond/internal/auth"
	s3blob "github.com/auctionhouse/auctiond/internal/blob/s3"
	"github.com/auctionhouse/auctiond/internal/config"
	"github.com/auctionhouse/auctiond/internal/domain"
	"github.com/auctionhouse/auctiond/internal/server"
	"github.com/auctionhouse/auctiond/internal/server/handler"
	"github.com/auctionhouse/auctiond/internal/server/ws"
	"github.com/auctionhouse/auctiond/internal/service"
	"github.com/auctionhouse/auctiond/internal/store/dynamo"
	"github.com/auctionhouse/auctiond/internal/store/memory"
)

// Dependencies bundles everything the running application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	Buyers           domain.BuyerStore
	Sellers          domain.SellerStore
	Items            domain.ItemStore
	Bids             domain.BidStore
	Purchases        domain.PurchaseStore
	UnfreezeRequests domain.UnfreezeRequestStore

	// Blob storage for item images; nil when S3 is disabled.
	Blobs *s3blob.Store

	// Auth
	Tokens *auth.TokenManager

	// Services
	Escrow     *service.EscrowLedger
	Accounts   *service.AccountService
	Catalog    *service.Catalog
	Bidding    *service.BiddingEngine
	Settlement *service.SettlementCoordinator
	Unfreeze   *service.UnfreezeWorkflow

	// Live event feed
	Hub *ws.Hub

	// HTTP server
	Server *server.Server
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ledger store ---
	switch cfg.Store.Backend {
	case "dynamo":
		client, err := dynamo.New(ctx, dynamo.ClientConfig{
			Region:    cfg.Dynamo.Region,
			Endpoint:  cfg.Dynamo.Endpoint,
			AccessKey: cfg.Dynamo.AccessKey,
			SecretKey: cfg.Dynamo.SecretKey,
			Tables: dynamo.Tables{
				Buyers:           cfg.Dynamo.BuyersTable,
				Sellers:          cfg.Dynamo.SellersTable,
				Items:            cfg.Dynamo.ItemsTable,
				Bids:             cfg.Dynamo.BidsTable,
				Purchases:        cfg.Dynamo.PurchasesTable,
				UnfreezeRequests: cfg.Dynamo.UnfreezeRequestsTable,
			},
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: dynamo: %w", err)
		}
		deps.Buyers = dynamo.NewBuyerStore(client)
		deps.Sellers = dynamo.NewSellerStore(client)
		deps.Items = dynamo.NewItemStore(client)
		deps.Bids = dynamo.NewBidStore(client)
		deps.Purchases = dynamo.NewPurchaseStore(client)
		deps.UnfreezeRequests = dynamo.NewUnfreezeRequestStore(client)
	case "memory":
		store := memory.New()
		deps.Buyers = store.Buyers()
		deps.Sellers = store.Sellers()
		deps.Items = store.Items()
		deps.Bids = store.Bids()
		deps.Purchases = store.Purchases()
		deps.UnfreezeRequests = store.UnfreezeRequests()
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unknown store backend %q", cfg.Store.Backend)
	}

	// --- S3 blob storage for item images ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Blobs = s3blob.NewStore(s3Client)
	}

	// --- Auth ---
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: token manager: %w", err)
	}
	deps.Tokens = tokens

	// --- Live event feed ---
	deps.Hub = ws.NewHub(logger)

	// --- Services ---
	deps.Escrow = service.NewEscrowLedger(
		deps.Buyers, deps.Sellers, logger,
		cfg.Escrow.MaxAttempts, cfg.Escrow.OpTimeout.Duration,
	)
	deps.Accounts = service.NewAccountService(
		deps.Buyers, deps.Sellers, tokens, deps.Escrow, logger, cfg.Auth.BcryptCost,
	)
	// Catalog tolerates a nil blob store; image operations then report the
	// storage as unavailable.
	if deps.Blobs != nil {
		deps.Catalog = service.NewCatalog(deps.Items, deps.Blobs, deps.Hub, logger)
	} else {
		deps.Catalog = service.NewCatalog(deps.Items, nil, deps.Hub, logger)
	}
	deps.Bidding = service.NewBiddingEngine(
		deps.Items, deps.Bids, deps.Buyers, deps.Escrow, deps.Hub, logger,
		cfg.Escrow.MaxAttempts,
	)
	deps.Settlement = service.NewSettlementCoordinator(
		deps.Items, deps.Bids, deps.Purchases, deps.Escrow, deps.Hub, logger,
		cfg.Escrow.MaxAttempts,
	)
	deps.Unfreeze = service.NewUnfreezeWorkflow(
		deps.UnfreezeRequests, deps.Sellers, deps.Bids, deps.Escrow, deps.Hub, logger,
	)

	// --- HTTP server ---
	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(logger),
		Auth:     handler.NewAuthHandler(deps.Accounts, logger),
		Catalog:  handler.NewCatalogHandler(deps.Catalog, logger),
		Buyer:    handler.NewBuyerHandler(deps.Accounts, deps.Bidding, deps.Settlement, logger),
		Seller:   handler.NewSellerHandler(deps.Accounts, deps.Catalog, deps.Settlement, deps.Unfreeze, logger),
		Unfreeze: handler.NewUnfreezeHandler(deps.Unfreeze, logger),
	}
	deps.Server = server.NewServer(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, handlers, tokens, deps.Hub, logger)

	return deps, cleanup, nil
}
