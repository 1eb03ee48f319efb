// Package store defines the typed repository every phase handler and the
// turn engine read and write through. Two implementations exist:
// sqlstore (an embedded Dolt database, the production backend) and
// memstore (an in-process map-backed double used in tests).
package store

import "errors"

// Sentinel errors, shared by every backend so callers can errors.Is
// regardless of which Store implementation is in play.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation or a state the
	// caller's mutation is not valid against (e.g. claiming an already
	// claimed task).
	ErrConflict = errors.New("conflict")
)
