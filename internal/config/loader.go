package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies AUCTION_* environment variable overrides, and
// returns the final Config. When path is empty only defaults and environment
// overrides apply. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known AUCTION_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// --- Server ---
	setInt(&cfg.Server.Port, "AUCTION_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "AUCTION_SERVER_CORS_ORIGINS")

	// --- Store ---
	setStr(&cfg.Store.Backend, "AUCTION_STORE_BACKEND")

	// --- Dynamo ---
	setStr(&cfg.Dynamo.Region, "AUCTION_DYNAMO_REGION")
	setStr(&cfg.Dynamo.Endpoint, "AUCTION_DYNAMO_ENDPOINT")
	setStr(&cfg.Dynamo.AccessKey, "AUCTION_DYNAMO_ACCESS_KEY")
	setStr(&cfg.Dynamo.SecretKey, "AUCTION_DYNAMO_SECRET_KEY")
	setStr(&cfg.Dynamo.BuyersTable, "AUCTION_DYNAMO_BUYERS_TABLE")
	setStr(&cfg.Dynamo.SellersTable, "AUCTION_DYNAMO_SELLERS_TABLE")
	setStr(&cfg.Dynamo.ItemsTable, "AUCTION_DYNAMO_ITEMS_TABLE")
	setStr(&cfg.Dynamo.BidsTable, "AUCTION_DYNAMO_BIDS_TABLE")
	setStr(&cfg.Dynamo.PurchasesTable, "AUCTION_DYNAMO_PURCHASES_TABLE")
	setStr(&cfg.Dynamo.UnfreezeRequestsTable, "AUCTION_DYNAMO_UNFREEZE_REQUESTS_TABLE")

	// --- S3 ---
	setBool(&cfg.S3.Enabled, "AUCTION_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "AUCTION_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "AUCTION_S3_REGION")
	setStr(&cfg.S3.Bucket, "AUCTION_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "AUCTION_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "AUCTION_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "AUCTION_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "AUCTION_S3_FORCE_PATH_STYLE")

	// --- Auth ---
	setStr(&cfg.Auth.JWTSecret, "AUCTION_AUTH_JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "AUCTION_AUTH_TOKEN_TTL")
	setInt(&cfg.Auth.BcryptCost, "AUCTION_AUTH_BCRYPT_COST")

	// --- Escrow ---
	setInt(&cfg.Escrow.MaxAttempts, "AUCTION_ESCROW_MAX_ATTEMPTS")
	setDuration(&cfg.Escrow.OpTimeout, "AUCTION_ESCROW_OP_TIMEOUT")

	// --- Top-level ---
	setStr(&cfg.LogLevel, "AUCTION_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
