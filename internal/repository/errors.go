// Package repository defines the storage contract of the booking engine and
// its MySQL implementation.  The sentinel errors below let the engine
// distinguish failure scenarios without knowing which store produced them.
package repository

import "errors"

// ErrNotFound is returned when a catalog entry or booking does not exist.
var ErrNotFound = errors.New("not found")

// ErrLockTimeout is returned when a unit or booking lock could not be
// acquired within the configured wait, including deadlock victims.  The
// engine reports it as a retryable conflict.
var ErrLockTimeout = errors.New("lock wait timeout")

// ErrConflict is returned when a write collides with an existing row, such
// as a duplicate booking id.
var ErrConflict = errors.New("conflict")

// ErrReadOnly is returned when a write is attempted on a read-only transaction.
var ErrReadOnly = errors.New("read-only transaction")
