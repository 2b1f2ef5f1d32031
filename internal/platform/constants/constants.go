// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and API key header names.
  - Catalog: Import pacing and listing caps.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "aihub-api"
	AppVersion = "3.0.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Batch imports pace themselves, so the write window is generous.
	DefaultWriteTimeout = 10 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for read endpoints.
	GlobalRequestTimeout = 30 * time.Second

	// ImportRequestTimeout bounds a single import or batch import call.
	ImportRequestTimeout = 9 * time.Minute

	// StatementTimeout caps any single SQL statement.
	StatementTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "aihub.app"

	// OperatorTokenTTL is the lifetime of an operator access token.
	OperatorTokenTTL = 12 * time.Hour

	// HeaderAPIKey is the dedicated API key header.
	HeaderAPIKey = "X-API-Key"

	// QueryAPIKey is the query parameter fallback for the API key.
	QueryAPIKey = "api_key"

	// APIKeyPrefix marks keys generated by an operator.
	APIKeyPrefix = "ak_"

	// DemoAPIKeyPrefix marks the key created at first start.
	DemoAPIKeyPrefix = "ak_demo_"

	// DefaultAPIKeyRateLimit is the declared (advisory) limit when none is supplied.
	DefaultAPIKeyRateLimit = 1000

	// DemoAPIKeyRateLimit is the declared limit of the bootstrap key.
	DemoAPIKeyRateLimit = 100

	// APIKeyPreviewLength is how many leading characters the key listing shows.
	APIKeyPreviewLength = 12

	// LastUsedUpdateTimeout bounds the detached last-used write.
	LastUsedUpdateTimeout = 3 * time.Second

	// TermResolveTimeout bounds one shared term lookup or creation.
	TermResolveTimeout = 10 * time.Second
)

// # Catalog

const (
	// ExcerptMaxRunes is the length of the stored excerpt.
	ExcerptMaxRunes = 200

	// MaxAverageRating is the top of the rating scale.
	MaxAverageRating = 5.0

	// RandomToolsMax caps GET /tools/random.
	RandomToolsMax = 20

	// PopularToolsMax caps GET /tools/popular.
	PopularToolsMax = 50

	// PopularPageSize is how many records each read of the popularity scan loads.
	PopularPageSize = 500

	// RecommendPageSize is how many same or related category records each candidate read loads.
	RecommendPageSize = 100

	// DefaultPriceTag is reported when no price tag was supplied.
	DefaultPriceTag = "Unknown"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderAuthorization = "Authorization"
	HeaderTotalCount    = "X-Total-Count"
	HeaderTotalPages    = "X-Total-Pages"
)

// # JSON Field Identifiers

const (
	FieldError   = "message"
	FieldCode    = "code"
	FieldSuccess = "success"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixKeyUsage = "apikey:usage:"

	// KeyUsageTTL keeps two days of daily counters.
	KeyUsageTTL = 48 * time.Hour
)
