package train

import "errors"

// Sentinel kinds for trainer errors.
var (
	ErrNotEnoughSamples = errors.New("not enough training samples")
)
