package dataapi

import (
	"insightboard/internal/platform/config"
)

// FromConfig reads client options, usually under the INSIGHT_DATA_ prefix
// the bearer token seeds the shared client; sessions carry their own
func FromConfig(cfg config.Conf) Options {
	return Options{
		BaseURL:      cfg.MayURL("BASE_URL", baseURLDefault),
		UserAgent:    cfg.MayString("USER_AGENT", defaultUA),
		Timeout:      cfg.MayDuration("TIMEOUT", defaultTimeout),
		DefaultLimit: cfg.MayInt("DEFAULT_LIMIT", defaultLimit),
		MaxLimit:     cfg.MayInt("MAX_LIMIT", defaultMaxLimit),
		MaxBodyBytes: int64(cfg.MayInt("MAX_BODY_BYTES", int(defaultMaxBodyBytes))),
		NoCacheBust:  cfg.MayBool("NO_CACHE_BUST", false),
		Tokens:       NewMemoryTokens(cfg.MayString("TOKEN", "")),
	}
}
