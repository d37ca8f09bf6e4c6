package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrOpenDatabase = errors.New("open database")
	ErrInvalidLimit = errors.New("invalid limit")
)
