package domain

import "errors"

var (
	ErrAddressFormat  = errors.New("invalid ip address")
	ErrTypeConversion = errors.New("type conversion failed")
	ErrInvalidMask    = errors.New("invalid mask")
	ErrMissingField   = errors.New("missing field")
)
