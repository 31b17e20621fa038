// Package config defines the top-level configuration for the auction-house
// server and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by AUCTION_* environment variables.
type Config struct {
	Server   ServerConfig `toml:"server"`
	Store    StoreConfig  `toml:"store"`
	Dynamo   DynamoConfig `toml:"dynamo"`
	S3       S3Config     `toml:"s3"`
	Auth     AuthConfig   `toml:"auth"`
	Escrow   EscrowConfig `toml:"escrow"`
	LogLevel string       `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StoreConfig selects the ledger store backend.
type StoreConfig struct {
	// Backend is "dynamo" for production or "memory" for local development.
	Backend string `toml:"backend"`
}

// DynamoConfig holds DynamoDB connection parameters and table names.
type DynamoConfig struct {
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`

	BuyersTable           string `toml:"buyers_table"`
	SellersTable          string `toml:"sellers_table"`
	ItemsTable            string `toml:"items_table"`
	BidsTable             string `toml:"bids_table"`
	PurchasesTable        string `toml:"purchases_table"`
	UnfreezeRequestsTable string `toml:"unfreeze_requests_table"`
}

// S3Config holds S3-compatible object storage parameters for item images.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AuthConfig holds token and password parameters. JWTSecret is the single
// process-wide signing secret; it is injected at startup and never logged.
type AuthConfig struct {
	JWTSecret  string   `toml:"jwt_secret"`
	TokenTTL   duration `toml:"token_ttl"`
	BcryptCost int      `toml:"bcrypt_cost"`
}

// EscrowConfig tunes the optimistic-retry behavior of ledger operations.
type EscrowConfig struct {
	// MaxAttempts bounds the conditional-write retry loop per operation.
	MaxAttempts int `toml:"max_attempts"`

	// OpTimeout caps one ledger operation end to end.
	OpTimeout duration `toml:"op_timeout"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Dynamo: DynamoConfig{
			Region:                "us-east-1",
			BuyersTable:           "auction-buyers",
			SellersTable:          "auction-sellers",
			ItemsTable:            "auction-items",
			BidsTable:             "auction-bids",
			PurchasesTable:        "auction-purchases",
			UnfreezeRequestsTable: "auction-unfreeze-requests",
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "auction-images",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Auth: AuthConfig{
			TokenTTL:   duration{24 * time.Hour},
			BcryptCost: 0, // bcrypt default
		},
		Escrow: EscrowConfig{
			MaxAttempts: 5,
			OpTimeout:   duration{10 * time.Second},
		},
		LogLevel: "info",
	}
}

// validBackends enumerates the accepted values for Store.Backend.
var validBackends = map[string]bool{
	"memory": true,
	"dynamo": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	backend := strings.ToLower(c.Store.Backend)
	if !validBackends[backend] {
		errs = append(errs, fmt.Sprintf("store: unknown backend %q (valid: memory, dynamo)", c.Store.Backend))
	}

	if backend == "dynamo" {
		if c.Dynamo.Region == "" {
			errs = append(errs, "dynamo: region must not be empty")
		}
		tables := map[string]string{
			"buyers_table":            c.Dynamo.BuyersTable,
			"sellers_table":           c.Dynamo.SellersTable,
			"items_table":             c.Dynamo.ItemsTable,
			"bids_table":              c.Dynamo.BidsTable,
			"purchases_table":         c.Dynamo.PurchasesTable,
			"unfreeze_requests_table": c.Dynamo.UnfreezeRequestsTable,
		}
		for name, value := range tables {
			if value == "" {
				errs = append(errs, fmt.Sprintf("dynamo: %s must not be empty", name))
			}
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth: jwt_secret must be set (AUCTION_AUTH_JWT_SECRET)")
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		errs = append(errs, "auth: token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 0 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Sprintf("auth: bcrypt_cost must be 0-31, got %d", c.Auth.BcryptCost))
	}

	if c.Escrow.MaxAttempts < 1 {
		errs = append(errs, "escrow: max_attempts must be >= 1")
	}
	if c.Escrow.OpTimeout.Duration <= 0 {
		errs = append(errs, "escrow: op_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
