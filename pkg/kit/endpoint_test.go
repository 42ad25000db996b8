package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				trace = append(trace, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		trace = append(trace, "endpoint")
		return nil, nil
	})
	ep(context.Background(), nil)

	if got := strings.Join(trace, ","); got != "a,b,c,endpoint" {
		t.Errorf("trace = %s", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	ep := RequestID()(func(ctx context.Context, _ any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})

	ep(context.Background(), nil)
	if len(seen) != 36 {
		t.Errorf("generated id = %q, want a UUID", seen)
	}

	ep(WithRequestID(context.Background(), "given"), nil)
	if seen != "given" {
		t.Errorf("id = %q, want caller's id kept", seen)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := Logging(logger, "search")(func(context.Context, any) (any, error) { return "x", nil })
	resp, err := ok(WithTransport(context.Background(), "mcp"), nil)
	if resp != "x" || err != nil {
		t.Fatalf("resp %v err %v", resp, err)
	}
	if !strings.Contains(buf.String(), "endpoint=search") || !strings.Contains(buf.String(), "transport=mcp") {
		t.Errorf("log = %s", buf.String())
	}

	buf.Reset()
	failing := Logging(logger, "profile")(func(context.Context, any) (any, error) { return nil, errors.New("boom") })
	if _, err := failing(context.Background(), nil); err == nil {
		t.Fatal("error swallowed")
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("log = %s", buf.String())
	}
}

func TestGetTransport_Default(t *testing.T) {
	if got := GetTransport(context.Background()); got != "http" {
		t.Errorf("GetTransport = %q, want http", got)
	}
}
