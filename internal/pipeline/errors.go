package pipeline

import "errors"

// Sentinel kinds for submission errors. Cheat detections are not errors;
// they come back as rejected Results.
var (
	ErrValidation  = errors.New("invalid submission")
	ErrRateLimited = errors.New("rate limited")
)
