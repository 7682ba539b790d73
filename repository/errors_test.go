package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/relrag-api/apperr"
)

func TestTranslate(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translate("op", nil))
	})

	t.Run("context errors become unavailable", func(t *testing.T) {
		assert.True(t, apperr.IsKind(translate("op", context.Canceled), apperr.KindUnavailable))
		assert.True(t, apperr.IsKind(translate("op", context.DeadlineExceeded), apperr.KindUnavailable))
	})

	t.Run("connection errors become unavailable", func(t *testing.T) {
		assert.True(t, apperr.IsKind(translate("op", driver.ErrBadConn), apperr.KindUnavailable))
		assert.True(t, apperr.IsKind(translate("op", gorm.ErrInvalidDB), apperr.KindUnavailable))
	})

	t.Run("duplicate keys outside the document path are internal", func(t *testing.T) {
		err := translate("op", gorm.ErrDuplicatedKey)
		assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	})

	t.Run("everything else is internal", func(t *testing.T) {
		assert.True(t, apperr.IsKind(translate("op", errors.New("boom")), apperr.KindInternal))
	})
}

func TestParseCursor(t *testing.T) {
	t.Run("nil and empty cursors pass through", func(t *testing.T) {
		got, err := parseCursor(nil)
		require.NoError(t, err)
		assert.Empty(t, got)

		empty := ""
		got, err = parseCursor(&empty)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("valid uuid passes through", func(t *testing.T) {
		id := uuid.New().String()
		got, err := parseCursor(&id)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("garbage is a validation error", func(t *testing.T) {
		bad := "not-a-uuid"
		_, err := parseCursor(&bad)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func TestNextCursorFor(t *testing.T) {
	type row struct{ ID uuid.UUID }
	id := func(r row) uuid.UUID { return r.ID }

	t.Run("short page has no next cursor", func(t *testing.T) {
		rows := []row{{uuid.New()}, {uuid.New()}}
		got, next := nextCursorFor(rows, 5, id)
		assert.Len(t, got, 2)
		assert.Nil(t, next)
	})

	t.Run("exactly full page has no next cursor", func(t *testing.T) {
		rows := []row{{uuid.New()}, {uuid.New()}}
		got, next := nextCursorFor(rows, 2, id)
		assert.Len(t, got, 2)
		assert.Nil(t, next)
	})

	t.Run("overfull page trims and points at the last kept row", func(t *testing.T) {
		rows := []row{{uuid.New()}, {uuid.New()}, {uuid.New()}}
		got, next := nextCursorFor(rows, 2, id)
		require.Len(t, got, 2)
		require.NotNil(t, next)
		assert.Equal(t, got[1].ID.String(), *next)
	})
}
