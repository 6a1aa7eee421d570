package db

import (
	"context"
	"log/slog"

	"github.com/Flarenzy/ipam-migrator/internal/domain"
)

type loggingDecoder struct {
	logger *slog.Logger
	next   Decoder
}

func NewLoggingDecoder(logger *slog.Logger, next Decoder) Decoder {
	if logger == nil || next == nil {
		return next
	}

	return &loggingDecoder{
		logger: logger,
		next:   next,
	}
}

func (d *loggingDecoder) DecodeIP(ctx context.Context, row map[string]any) (*domain.IPAddress, error) {
	ip, err := d.next.DecodeIP(ctx, row)
	if err != nil {
		d.logger.ErrorContext(ctx, "decode ip row failed", "err", err.Error())
		return nil, err
	}

	d.logger.DebugContext(ctx, "ip row decoded", "id", ip.IDGet(), "ip", ip.Address().String(), "family", int(ip.Family()))
	return ip, nil
}
