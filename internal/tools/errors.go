package tools

import "errors"

// Sentinel errors for the tool registry.
var (
	ErrNotFound         = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)
