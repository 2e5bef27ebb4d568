// Package logger owns the process zerolog root and hands out component and request loggers
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	pnet "insightboard/internal/platform/net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type passed around the codebase
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	// Level is a zerolog level name; unknown names mean info
	Level string
	// Format is "console" for humans, anything else writes JSON lines
	Format  string
	Service string
	Caller  bool
	Writer  io.Writer
	// Fields are stamped on every line
	Fields map[string]string
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE and LOG_CALLER
// it reads the environment directly since the config package logs through us
func FromEnv() Options {
	caller, _ := strconv.ParseBool(env("LOG_CALLER", "false"))
	return Options{
		Level:   strings.ToLower(env("LOG_LEVEL", "info")),
		Format:  strings.ToLower(env("LOG_FORMAT", "console")),
		Service: env("LOG_SERVICE", "insightboard"),
		Caller:  caller,
	}
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

var (
	once sync.Once
	root atomic.Pointer[Logger]
)

// Init builds the root logger; only the first call has an effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		lvl, err := zerolog.ParseLevel(opt.Level)
		if err != nil || opt.Level == "" {
			lvl = zerolog.InfoLevel
		}

		out := opt.Writer
		if out == nil {
			out = os.Stdout
		}
		if opt.Format == "console" {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		b := zerolog.New(out).Level(lvl).With().Timestamp()
		if opt.Service != "" {
			b = b.Str("service", opt.Service)
		}
		if bi, ok := debug.ReadBuildInfo(); ok {
			b = b.Str("go_version", bi.GoVersion)
		}
		for k, v := range opt.Fields {
			b = b.Str(k, v)
		}
		if opt.Caller {
			b = b.Caller()
		}
		l := b.Logger()
		root.Store(&l)
	})
}

// Get returns the root logger, initializing it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Named returns a child logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

// C returns a child logger carrying the request id and dashboard session found on ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	if id := pnet.RequestID(ctx); id != "" {
		b = b.Str("request_id", id)
	}
	if sid := pnet.SessionID(ctx); sid != "" {
		b = b.Str("session", sid)
	}
	l := b.Logger()
	return &l
}
