package repository

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relrag-api/apperr"
)

// translate maps storage errors onto the application taxonomy. Not-found is
// handled per call site (most lookups return nil instead of an error), and
// duplicate keys in the document repository, the one place a unique
// violation has a recovery path.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Unavailable(op, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, gorm.ErrInvalidDB):
		return apperr.Unavailable(op, err)
	default:
		return apperr.Internal(op, err)
	}
}

// parseCursor validates an opaque pagination cursor (the last returned id).
func parseCursor(cursor *string) (string, error) {
	if cursor == nil || *cursor == "" {
		return "", nil
	}
	if _, err := uuid.Parse(*cursor); err != nil {
		return "", apperr.Validation("invalid cursor")
	}
	return *cursor, nil
}

// nextCursor implements the limit+1 pagination convention over a fetched
// page: trim to limit and report the id of the last kept row iff an extra
// row proved there is more.
func nextCursorFor[T any](rows []T, limit int, id func(T) uuid.UUID) ([]T, *string) {
	if len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	s := id(rows[len(rows)-1]).String()
	return rows, &s
}
