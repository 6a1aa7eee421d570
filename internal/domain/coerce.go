package domain

import (
	"fmt"
	"math"
	"math/big"
	"net"
	"net/netip"
	"reflect"
	"strconv"
	"strings"

	"go4.org/netipx"
)

var maxIPv6 = new(big.Int).Lsh(big.NewInt(1), 128)

func parseAddress(v any) (netip.Addr, error) {
	if n, ok := v.(*big.Int); ok {
		return addrFromBig(n)
	}
	if s, ok := pointerString(v); ok {
		return parseAddrString(s)
	}

	switch a := deref(v).(type) {
	case nil:
		return netip.Addr{}, fmt.Errorf("%w: address is required", ErrAddressFormat)
	case string:
		return parseAddrString(a)
	case []byte:
		return parseAddrBytes(a)
	case netip.Addr:
		if !a.IsValid() {
			return netip.Addr{}, fmt.Errorf("%w: zero address", ErrAddressFormat)
		}
		return a, nil
	case netip.Prefix:
		if !a.IsValid() {
			return netip.Addr{}, fmt.Errorf("%w: zero prefix", ErrAddressFormat)
		}
		return a.Addr(), nil
	case net.IP:
		addr, ok := netipx.FromStdIP(a)
		if !ok {
			return netip.Addr{}, fmt.Errorf("%w: %d byte ip", ErrAddressFormat, len(a))
		}
		return addr, nil
	case [4]byte:
		return netip.AddrFrom4(a), nil
	case [16]byte:
		return netip.AddrFrom16(a), nil
	}

	v = deref(v)
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return addrFromBig(big.NewInt(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return addrFromBig(new(big.Int).SetUint64(rv.Uint()))
	}

	if s, ok := v.(fmt.Stringer); ok {
		return parseAddrString(s.String())
	}
	return netip.Addr{}, fmt.Errorf("%w: unsupported type %T", ErrAddressFormat, v)
}

func parseAddrString(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q does not appear to be an IPv4 or IPv6 address", ErrAddressFormat, s)
	}
	return addr, nil
}

// parseAddrBytes reads text first, so that drivers returning text columns as
// []byte keep working, then falls back to a packed 4 or 16 byte address.
func parseAddrBytes(b []byte) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(string(b)); err == nil {
		return addr, nil
	}
	if addr, ok := netip.AddrFromSlice(b); ok {
		return addr, nil
	}
	return netip.Addr{}, fmt.Errorf("%w: %q does not appear to be an IPv4 or IPv6 address", ErrAddressFormat, b)
}

// addrFromBig maps integers below 2^32 to IPv4 and the rest of the 128-bit
// space to IPv6.
func addrFromBig(n *big.Int) (netip.Addr, error) {
	if n == nil {
		return netip.Addr{}, fmt.Errorf("%w: address is required", ErrAddressFormat)
	}
	if n.Sign() < 0 || n.Cmp(maxIPv6) >= 0 {
		return netip.Addr{}, fmt.Errorf("%w: %s is out of range", ErrAddressFormat, n.String())
	}
	if n.IsUint64() && n.Uint64() <= math.MaxUint32 {
		var b [4]byte
		n.FillBytes(b[:])
		return netip.AddrFrom4(b), nil
	}
	var b [16]byte
	n.FillBytes(b[:])
	return netip.AddrFrom16(b), nil
}

func coerceInt64(v any) (*int64, error) {
	switch t := v.(type) {
	case *big.Int:
		if t == nil {
			return nil, nil
		}
		return bigToInt64(t)
	case *big.Rat:
		if t == nil {
			return nil, nil
		}
		return bigToInt64(new(big.Int).Quo(t.Num(), t.Denom()))
	case *big.Float:
		if t == nil {
			return nil, nil
		}
		if t.IsInf() {
			return nil, fmt.Errorf("%w: cannot convert %v to integer", ErrTypeConversion, t)
		}
		i, _ := t.Int(nil)
		return bigToInt64(i)
	}

	v = deref(v)
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	var n int64
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrTypeConversion, u)
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: cannot convert %v to integer", ErrTypeConversion, f)
		}
		f = math.Trunc(f)
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v overflows int64", ErrTypeConversion, f)
		}
		n = int64(f)
	case reflect.String:
		s := rv.String()
		parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid literal for integer: %q", ErrTypeConversion, s)
		}
		n = parsed
	case reflect.Bool:
		if rv.Bool() {
			n = 1
		}
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to integer", ErrTypeConversion, v)
	}
	return &n, nil
}

func bigToInt64(n *big.Int) (*int64, error) {
	if !n.IsInt64() {
		return nil, fmt.Errorf("%w: %s overflows int64", ErrTypeConversion, n.String())
	}
	i := n.Int64()
	return &i, nil
}

func coerceString(v any) *string {
	if s, ok := pointerString(v); ok {
		return &s
	}

	var s string
	switch t := deref(v).(type) {
	case nil:
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

// pointerString calls String on non-nil pointers that implement fmt.Stringer,
// before deref drops the pointer and with it any pointer receiver method.
func pointerString(v any) (string, bool) {
	s, ok := v.(fmt.Stringer)
	if !ok {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return "", false
	}
	return s.String(), true
}

// deref follows pointers so that *int64, *string and friends coerce like the
// values they point at. A nil pointer is treated as an absent value.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
