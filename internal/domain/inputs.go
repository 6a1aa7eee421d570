package domain

// IPAddressInput is the raw, loosely typed data a migration driver reads from
// the source system for one address.
type IPAddressInput struct {
	ID           any
	Address      any
	Mask         any
	Description  *string
	CustomFields map[string]any
	VRFID        any
	Hostname     any
}
