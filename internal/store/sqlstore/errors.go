package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/legionforge/engine/internal/store"
)

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to store.ErrNotFound so callers can errors.Is against the
// backend-agnostic sentinel regardless of which store implementation is
// live.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isDuplicateKey reports whether err looks like a unique-constraint
// violation from Dolt's MySQL-compatible wire protocol. Dolt returns the
// same 1062 error code MySQL does for duplicate keys.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "Error 1062")
}
