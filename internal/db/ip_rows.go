package db

import (
	"fmt"
	"math/big"
	"net/netip"
	"strings"

	"github.com/Flarenzy/ipam-migrator/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// IPRowMapping names the source columns that feed each IP address field. An
// empty name means the source has no such column.
type IPRowMapping struct {
	ID          string
	Address     string
	Mask        string
	Description string
	VRFID       string
	Hostname    string

	// Columns starting with CustomFieldPrefix are collected into the record's
	// custom fields, keyed by the column name without the prefix.
	CustomFieldPrefix string
}

func PHPIPAMMapping() IPRowMapping {
	return IPRowMapping{
		ID:                "id",
		Address:           "ip_addr",
		Mask:              "mask",
		Description:       "description",
		VRFID:             "vrfId",
		Hostname:          "hostname",
		CustomFieldPrefix: "custom_",
	}
}

func DecodeIPRow(row map[string]any, m IPRowMapping) (*domain.IPAddress, error) {
	id, ok := column(row, m.ID)
	if !ok || id == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingField, m.ID)
	}
	id = toDomainID(id)

	address, ok := column(row, m.Address)
	if !ok || address == nil {
		return nil, fmt.Errorf("ip %v: %w: %q", id, domain.ErrMissingField, m.Address)
	}

	mask, ok := column(row, m.Mask)
	if !ok || mask == nil {
		// inet columns carry their own prefix length.
		prefix, isPrefix := address.(netip.Prefix)
		if !isPrefix {
			return nil, fmt.Errorf("ip %v: %w: %q", id, domain.ErrMissingField, m.Mask)
		}
		mask = prefix.Bits()
	}

	var description *string
	switch v, _ := column(row, m.Description); t := v.(type) {
	case nil:
	case string:
		description = &t
	case []byte:
		s := string(t)
		description = &s
	default:
		s := fmt.Sprint(t)
		description = &s
	}

	vrfID, _ := column(row, m.VRFID)
	hostname, _ := column(row, m.Hostname)

	ip, err := domain.NewIPAddress(domain.IPAddressInput{
		ID:           id,
		Address:      address,
		Mask:         mask,
		Description:  description,
		CustomFields: customFields(row, m),
		VRFID:        vrfID,
		Hostname:     hostname,
	})
	if err != nil {
		return nil, fmt.Errorf("ip %v: %w", id, err)
	}
	return ip, nil
}

// CollectIPAddresses drains rows, which the caller has already queried, and
// decodes every row. It stops at the first row that fails.
func CollectIPAddresses(rows pgx.Rows, m IPRowMapping) ([]*domain.IPAddress, error) {
	rowMaps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.IPAddress, 0, len(rowMaps))
	for i, row := range rowMaps {
		ip, err := DecodeIPRow(row, m)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, ip)
	}

	return out, nil
}

func column(row map[string]any, name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	v, ok := row[name]
	if !ok {
		return nil, false
	}
	return fromPG(v), true
}

func customFields(row map[string]any, m IPRowMapping) map[string]any {
	if m.CustomFieldPrefix == "" {
		return nil
	}

	fields := map[string]any{}
	for name, v := range row {
		if !strings.HasPrefix(name, m.CustomFieldPrefix) || isMapped(name, m) {
			continue
		}
		fields[strings.TrimPrefix(name, m.CustomFieldPrefix)] = fromPG(v)
	}
	return fields
}

func isMapped(name string, m IPRowMapping) bool {
	switch name {
	case m.ID, m.Address, m.Mask, m.Description, m.VRFID, m.Hostname:
		return true
	}
	return false
}

// fromPG unwraps pgtype values into plain Go values; invalid (NULL) values
// become nil.
func fromPG(v any) any {
	switch t := v.(type) {
	case pgtype.Int8:
		if !t.Valid {
			return nil
		}
		return t.Int64
	case pgtype.Int4:
		if !t.Valid {
			return nil
		}
		return int64(t.Int32)
	case pgtype.Int2:
		if !t.Valid {
			return nil
		}
		return int64(t.Int16)
	case pgtype.Text:
		if !t.Valid {
			return nil
		}
		return t.String
	case pgtype.Numeric:
		if !t.Valid {
			return nil
		}
		if n, ok := numericInt(t); ok {
			return n
		}
		return t
	case pgtype.UUID:
		if !t.Valid {
			return nil
		}
		return uuid.UUID(t.Bytes)
	}
	return v
}

// numericInt truncates a finite numeric toward zero, the way int(Decimal)
// does. NaN and infinities are left to fail coercion.
func numericInt(n pgtype.Numeric) (*big.Int, bool) {
	if n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil, false
	}
	if n.Exp >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)
		return new(big.Int).Mul(n.Int, scale), true
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil)
	return new(big.Int).Quo(n.Int, scale), true
}

// toDomainID turns raw uuid columns, which pgx decodes as [16]byte, into
// uuid.UUID so that they print and marshal in their usual form.
func toDomainID(id any) any {
	if b, ok := id.([16]byte); ok {
		return uuid.UUID(b)
	}
	return id
}
