package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidObservation = errors.New("invalid observation")
	ErrInvalidID          = errors.New("invalid ID format")
)
