package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrPoolFull is returned when a conditional join finds no free slot
	ErrPoolFull = errors.New("pool is full")
	// ErrAlreadySeated is returned when a member already holds an open pool seat
	ErrAlreadySeated = errors.New("member already seated in an open pool")
	// ErrQuotaExceeded is returned when a requester has used up the per-pool quota
	ErrQuotaExceeded = errors.New("request quota exceeded")
	// ErrChatLocked is returned when a message targets a match that is not active
	ErrChatLocked = errors.New("match chat is locked")
)

const uniqueViolation = "23505"

// isUniqueViolation checks for a PostgreSQL unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
