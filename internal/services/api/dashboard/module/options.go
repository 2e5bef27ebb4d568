package module

import (
	"time"

	"insightboard/internal/platform/config"
)

// Options controls the dashboard module
type Options struct {
	// DataToken seeds the data API credential of new sessions
	DataToken string
	// AccessToken, when set, guards every dashboard route with a bearer check
	AccessToken string

	MaxSessions  int
	IdleTTL      time.Duration
	HistoryLimit int
	OptionsTTL   time.Duration
	WatchBuffer  int

	// PresetsFile is a YAML preset document; empty uses the built in presets
	PresetsFile string
	// WSOrigins are the browser origins allowed to open the push socket
	WSOrigins []string
}

// FromConfig reads with DASHBOARD_ prefix under the service prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DASHBOARD_")
	return Options{
		DataToken:    c.MayString("DATA_TOKEN", ""),
		AccessToken:  c.MayString("ACCESS_TOKEN", ""),
		MaxSessions:  c.MayInt("MAX_SESSIONS", 256),
		IdleTTL:      c.MayDuration("IDLE_TTL", 30*time.Minute),
		HistoryLimit: c.MayInt("HISTORY_LIMIT", 10),
		OptionsTTL:   c.MayDuration("OPTIONS_TTL", 5*time.Minute),
		WatchBuffer:  c.MayInt("WATCH_BUFFER", 64),
		PresetsFile:  c.MayString("PRESETS_FILE", ""),
		WSOrigins:    c.MayCSV("WS_ORIGINS", nil),
	}
}
