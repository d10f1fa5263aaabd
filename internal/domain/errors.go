// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotInitialized indicates a lifecycle operation that requires a prior start.
var ErrNotInitialized = errors.New("not initialized")

// ErrUnknownCommand indicates a command id that is not registered.
var ErrUnknownCommand = errors.New("unknown command")
