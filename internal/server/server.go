// Package server assembles the HTTP dispatcher: routes, middleware chain,
// and the WebSocket feed endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/auctionhouse/auctiond/internal/domain"
	"github.com/auctionhouse/auctiond/internal/server/handler"
	"github.com/auctionhouse/auctiond/internal/server/middleware"
	"github.com/auctionhouse/auctiond/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Buyer    *handler.BuyerHandler
	Seller   *handler.SellerHandler
	Unfreeze *handler.UnfreezeHandler
}

// Server is the auction-house HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux.
// Role enforcement happens per route group: the buyer and seller surfaces
// each sit behind their own auth middleware, public routes behind none.
func NewServer(cfg Config, handlers Handlers, tokens middleware.Verifier, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	buyerOnly := middleware.Auth(tokens, domain.RoleBuyer)
	sellerOnly := middleware.Auth(tokens, domain.RoleSeller)

	// Public routes.
	mux.HandleFunc("GET /v1/health", handlers.Health.HealthCheck)
	mux.HandleFunc("POST /v1/auth/register", handlers.Auth.Register)
	mux.HandleFunc("POST /v1/auth/login", handlers.Auth.Login)
	mux.HandleFunc("GET /v1/items", handlers.Catalog.ListListed)
	mux.HandleFunc("GET /v1/items/{sellerID}/{itemID}", handlers.Catalog.GetItem)
	mux.HandleFunc("GET /v1/items/{sellerID}/{itemID}/images/{key...}", handlers.Catalog.GetImage)

	// Buyer routes.
	mux.Handle("POST /v1/buyer/funds", buyerOnly(http.HandlerFunc(handlers.Buyer.Deposit)))
	mux.Handle("GET /v1/buyer/account", buyerOnly(http.HandlerFunc(handlers.Buyer.GetAccount)))
	mux.Handle("GET /v1/buyer/bids", buyerOnly(http.HandlerFunc(handlers.Buyer.ListBids)))
	mux.Handle("GET /v1/buyer/purchases", buyerOnly(http.HandlerFunc(handlers.Buyer.ListPurchases)))
	mux.Handle("POST /v1/items/{sellerID}/{itemID}/bids", buyerOnly(http.HandlerFunc(handlers.Buyer.PlaceBid)))

	// Seller routes.
	mux.Handle("GET /v1/seller/account", sellerOnly(http.HandlerFunc(handlers.Seller.GetAccount)))
	mux.Handle("POST /v1/seller/items", sellerOnly(http.HandlerFunc(handlers.Seller.CreateItem)))
	mux.Handle("GET /v1/seller/items", sellerOnly(http.HandlerFunc(handlers.Seller.ListItems)))
	mux.Handle("GET /v1/seller/items/{itemID}", sellerOnly(http.HandlerFunc(handlers.Seller.GetItem)))
	mux.Handle("PATCH /v1/seller/items/{itemID}", sellerOnly(http.HandlerFunc(handlers.Seller.UpdateItem)))
	mux.Handle("POST /v1/seller/items/{itemID}/publish", sellerOnly(http.HandlerFunc(handlers.Seller.PublishItem)))
	mux.Handle("POST /v1/seller/items/{itemID}/close", sellerOnly(http.HandlerFunc(handlers.Seller.CloseAuction)))
	mux.Handle("POST /v1/seller/items/{itemID}/images", sellerOnly(http.HandlerFunc(handlers.Seller.UploadImage)))
	mux.Handle("DELETE /v1/seller/items/{itemID}/images/{key...}", sellerOnly(http.HandlerFunc(handlers.Seller.DeleteImage)))
	mux.Handle("POST /v1/seller/reconcile/{buyerID}", sellerOnly(http.HandlerFunc(handlers.Seller.Reconcile)))
	mux.Handle("POST /v1/unfreeze-requests", sellerOnly(http.HandlerFunc(handlers.Unfreeze.Create)))
	mux.Handle("GET /v1/unfreeze-requests", sellerOnly(http.HandlerFunc(handlers.Unfreeze.List)))
	mux.Handle("PATCH /v1/unfreeze-requests/{id}", sellerOnly(http.HandlerFunc(handlers.Unfreeze.Resolve)))

	// WebSocket feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the fully assembled handler chain, used by tests to drive
// the server without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
