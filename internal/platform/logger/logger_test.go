package logger

import (
	"bytes"
	"context"
	"testing"

	pnet "insightboard/internal/platform/net"
	kit "insightboard/internal/platform/testkit"
)

// Init only takes effect once per process, so everything that inspects output lives here
func TestRootNamedAndRequestLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:   "debug",
		Format:  "json",
		Service: "insightboard-test",
		Writer:  &buf,
		Fields:  map[string]string{"build": "test"},
	})

	Get().Info().Msg("root line")
	Named("dashboard").Debug().Msg("named line")

	ctx := pnet.WithSession(pnet.WithRequestID(context.Background(), "req-9"), "board-a")
	C(ctx).Warn().Msg("request line")
	C(context.Background()).Info().Msg("bare line")

	out := buf.String()
	for _, want := range []string{
		`"message":"root line"`,
		`"service":"insightboard-test"`,
		`"build":"test"`,
		`"component":"dashboard"`,
		`"request_id":"req-9"`,
		`"session":"board-a"`,
		`"message":"bare line"`,
	} {
		kit.MustContain(t, out, want)
	}

	if Named("") != Get() {
		t.Fatalf("an empty component should return the root")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "ctl")
	t.Setenv("LOG_CALLER", "true")

	o := FromEnv()
	if o.Level != "warn" || o.Format != "json" || o.Service != "ctl" || !o.Caller {
		t.Fatalf("FromEnv = %+v", o)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_CALLER", "maybe")

	o := FromEnv()
	if o.Level != "info" || o.Format != "console" || o.Caller {
		t.Fatalf("defaults = %+v", o)
	}
}
