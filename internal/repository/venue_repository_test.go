package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVenueMock(t *testing.T) (*VenueRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewVenueRepo(db), mock
}

func TestGetActiveByIDNotFound(t *testing.T) {
	repo, mock := newVenueMock(t)

	mock.ExpectQuery("SELECT .+ FROM venues WHERE id = \\? AND is_active = 1").
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "is_active", "created_at", "updated_at"}))

	_, err := repo.GetActiveByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestGetActiveBySlug(t *testing.T) {
	repo, mock := newVenueMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM venues WHERE slug = \\? AND is_active = 1").
		WithArgs("the-rusty-anchor").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "is_active", "created_at", "updated_at"}).
			AddRow(3, "the-rusty-anchor", "The Rusty Anchor", true, now, now))

	v, err := repo.GetActiveBySlug(context.Background(), "the-rusty-anchor")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v.ID)
	assert.Equal(t, "The Rusty Anchor", v.Name)
}
