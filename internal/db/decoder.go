package db

import (
	"context"

	"github.com/Flarenzy/ipam-migrator/internal/domain"
)

type Decoder interface {
	DecodeIP(ctx context.Context, row map[string]any) (*domain.IPAddress, error)
}

type rowDecoder struct {
	mapping IPRowMapping
}

func NewDecoder(mapping IPRowMapping) Decoder {
	return &rowDecoder{mapping: mapping}
}

func (d *rowDecoder) DecodeIP(_ context.Context, row map[string]any) (*domain.IPAddress, error) {
	return DecodeIPRow(row, d.mapping)
}
