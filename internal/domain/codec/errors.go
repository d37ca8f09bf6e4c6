package codec

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrPayloadTooLarge = errors.New("payload too large")
)
