package db

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Flarenzy/ipam-migrator/internal/domain"
)

type loggedLine struct {
	level   slog.Level
	message string
	attrs   map[string]slog.Value
}

// captureHandler keeps every log line with its attributes flattened by key.
type captureHandler struct {
	lines []loggedLine
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	line := loggedLine{
		level:   record.Level,
		message: record.Message,
		attrs:   make(map[string]slog.Value, record.NumAttrs()),
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.attrs[attr.Key] = attr.Value
		return true
	})
	h.lines = append(h.lines, line)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

func (h *captureHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *captureHandler) only(t *testing.T) loggedLine {
	t.Helper()

	if len(h.lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(h.lines))
	}
	return h.lines[0]
}

type stubDecoder struct {
	decodeIPFn func(context.Context, map[string]any) (*domain.IPAddress, error)
}

func (s stubDecoder) DecodeIP(ctx context.Context, row map[string]any) (*domain.IPAddress, error) {
	if s.decodeIPFn == nil {
		return nil, nil
	}
	return s.decodeIPFn(ctx, row)
}

func TestLoggingDecoderLogsDecodedRow(t *testing.T) {
	handler := &captureHandler{}
	decoder := NewLoggingDecoder(slog.New(handler), NewDecoder(PHPIPAMMapping()))

	ip, err := decoder.DecodeIP(context.Background(), map[string]any{"id": 3, "ip_addr": "10.0.0.3", "mask": "24"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ip.IDGet() != 3 {
		t.Fatalf("unexpected id: %v", ip.IDGet())
	}

	line := handler.only(t)
	if line.level != slog.LevelDebug || line.message != "ip row decoded" {
		t.Fatalf("unexpected log line: level=%v message=%q", line.level, line.message)
	}
	if got := line.attrs["ip"].String(); got != "10.0.0.3" {
		t.Fatalf("unexpected ip attr: %q", got)
	}
	if got := line.attrs["family"].Int64(); got != 4 {
		t.Fatalf("unexpected family attr: %d", got)
	}
}

func TestLoggingDecoderLogsErrors(t *testing.T) {
	handler := &captureHandler{}
	decoder := NewLoggingDecoder(slog.New(handler), NewDecoder(PHPIPAMMapping()))

	_, err := decoder.DecodeIP(context.Background(), map[string]any{"id": 3, "ip_addr": "not-an-ip", "mask": "24"})
	if !errors.Is(err, domain.ErrAddressFormat) {
		t.Fatalf("expected ErrAddressFormat, got %v", err)
	}

	line := handler.only(t)
	if line.level != slog.LevelError || line.message != "decode ip row failed" {
		t.Fatalf("unexpected log line: level=%v message=%q", line.level, line.message)
	}
	if _, ok := line.attrs["err"]; !ok {
		t.Fatal("expected err attr on failure")
	}
}

func TestNewLoggingDecoderReturnsNextWhenLoggerNil(t *testing.T) {
	called := false
	next := stubDecoder{
		decodeIPFn: func(context.Context, map[string]any) (*domain.IPAddress, error) {
			called = true
			return domain.NewIPAddress(domain.IPAddressInput{ID: 99, Address: "10.0.0.99", Mask: "32"})
		},
	}

	wrapped := NewLoggingDecoder(nil, next)
	ip, err := wrapped.DecodeIP(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected wrapped decoder to delegate to next")
	}
	if ip.IDGet() != 99 {
		t.Fatalf("unexpected id: %v", ip.IDGet())
	}
}
