package domain

import (
	"fmt"
	"maps"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

type Family int

const (
	Family4 Family = 4
	Family6 Family = 6
)

// IPAddress is a normalized IP address record ready to be sent to the target
// system. The zero value is not usable; build one with NewIPAddress.
type IPAddress struct {
	Base

	address      netip.Addr
	family       Family
	mask         string
	customFields map[string]any

	// Grouping fields, in ascending order of scale.
	vrfID    *int64
	hostname *string
}

// IPAddressPayload is the target schema shape of an IP address. Every field is
// always emitted; absent values encode as null.
type IPAddressPayload struct {
	ID           any            `json:"id"`
	Description  *string        `json:"description"`
	Address      string         `json:"address"`
	Family       int            `json:"family"`
	CustomFields map[string]any `json:"custom_fields"`
	VRFID        *int64         `json:"vrf_id"`
	DNSName      *string        `json:"dns_name"`
	Mask         string         `json:"mask"`
}

// NewIPAddress parses and normalizes raw source fields. Errors wrap
// ErrAddressFormat or ErrTypeConversion.
func NewIPAddress(in IPAddressInput) (*IPAddress, error) {
	addr, err := parseAddress(in.Address)
	if err != nil {
		return nil, err
	}

	vrfID, err := coerceInt64(in.VRFID)
	if err != nil {
		return nil, fmt.Errorf("vrf id: %w", err)
	}

	customFields := maps.Clone(in.CustomFields)
	if customFields == nil {
		customFields = map[string]any{}
	}

	return &IPAddress{
		Base:         NewBase(in.ID, nil, in.Description),
		address:      addr,
		family:       familyOf(addr),
		mask:         maskString(in.Mask),
		customFields: customFields,
		vrfID:        vrfID,
		hostname:     coerceString(in.Hostname),
	}, nil
}

func familyOf(addr netip.Addr) Family {
	if addr.Is4() {
		return Family4
	}
	return Family6
}

func maskString(mask any) string {
	if s := coerceString(mask); s != nil {
		return *s
	}
	return ""
}

func (a *IPAddress) Address() netip.Addr {
	return a.address
}

func (a *IPAddress) Family() Family {
	return a.family
}

func (a *IPAddress) Mask() string {
	return a.mask
}

// CustomFields returns a copy; changing it does not change the record.
func (a *IPAddress) CustomFields() map[string]any {
	return maps.Clone(a.customFields)
}

func (a *IPAddress) VRFID() (int64, bool) {
	if a.vrfID == nil {
		return 0, false
	}
	return *a.vrfID, true
}

func (a *IPAddress) Hostname() (string, bool) {
	if a.hostname == nil {
		return "", false
	}
	return *a.hostname, true
}

func (a *IPAddress) String() string {
	if a.description != nil && *a.description != "" {
		return fmt.Sprintf("IP address %s/%s with description '%s'", a.address, a.mask, *a.description)
	}
	return fmt.Sprintf("IP address %s", a.address)
}

// Payload renders the record in the target schema. The target rejects '/' in
// dns_name, so every '/' in the hostname becomes '.'.
func (a *IPAddress) Payload() IPAddressPayload {
	var dnsName *string
	if a.hostname != nil && *a.hostname != "" {
		s := strings.ReplaceAll(*a.hostname, "/", ".")
		dnsName = &s
	}

	var vrfID *int64
	if a.vrfID != nil {
		v := *a.vrfID
		vrfID = &v
	}

	return IPAddressPayload{
		ID:           a.IDGet(),
		Description:  a.Description(),
		Address:      a.address.String(),
		Family:       int(a.family),
		CustomFields: maps.Clone(a.customFields),
		VRFID:        vrfID,
		DNSName:      dnsName,
		Mask:         a.mask,
	}
}

// AsDict is Payload as a plain map, with absent values stored as untyped nil.
func (a *IPAddress) AsDict() map[string]any {
	p := a.Payload()
	return map[string]any{
		"id":            p.ID,
		"description":   optional(p.Description),
		"address":       p.Address,
		"family":        p.Family,
		"custom_fields": p.CustomFields,
		"vrf_id":        optional(p.VRFID),
		"dns_name":      optional(p.DNSName),
		"mask":          p.Mask,
	}
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// Prefix reads the mask as a prefix length, or as a dotted IPv4 netmask, for
// the record's family. The record accepts any mask; this is where it gets
// checked.
func (a *IPAddress) Prefix() (netip.Prefix, error) {
	bits, err := a.prefixBits()
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(a.address.WithZone(""), bits), nil
}

// Network returns the first and last address of the network the record
// belongs to.
func (a *IPAddress) Network() (netipx.IPRange, error) {
	prefix, err := a.Prefix()
	if err != nil {
		return netipx.IPRange{}, err
	}
	return netipx.RangeOfPrefix(prefix.Masked()), nil
}

func (a *IPAddress) prefixBits() (int, error) {
	mask := strings.TrimPrefix(strings.TrimSpace(a.mask), "/")
	if bits, err := strconv.Atoi(mask); err == nil {
		if bits < 0 || bits > a.address.BitLen() {
			return 0, fmt.Errorf("%w: /%d for IPv%d", ErrInvalidMask, bits, a.family)
		}
		return bits, nil
	}

	if a.family == Family4 {
		if m, err := netip.ParseAddr(mask); err == nil && m.Is4() {
			b := m.As4()
			ones, size := net.IPMask(b[:]).Size()
			if size != 0 {
				return ones, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMask, a.mask)
}
