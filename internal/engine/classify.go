package engine

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientCodes are the Postgres SQLSTATE codes that represent a
// serialization failure, a detected deadlock or a lock that could not be
// obtained: safe to retry.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// classifyStoreErr wraps err as ErrTransient when it is a retriable
// Postgres condition, leaving every other error untouched.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && transientCodes[pgErr.Code] {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
