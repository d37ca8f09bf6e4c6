package modelstore

import "errors"

// Sentinel kinds for model store errors.
var (
	ErrVersionNotFound = errors.New("model version not found")
	ErrMissingVersion  = errors.New("bundle has no version")
)
