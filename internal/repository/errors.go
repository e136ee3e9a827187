package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a queried row does not exist. Repositories
// translate pgx.ErrNoRows so callers never depend on the driver.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
