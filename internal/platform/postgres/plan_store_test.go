package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresPlanStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("inserts plan", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		plan, err := domain.NewPlan("BSc Computer Science", nil)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO plans`).
			WithArgs(plan.ID, plan.Name, nil, plan.CreatedAt, plan.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgresPlanStore(db, logger).Create(context.Background(), plan))
	})

	t.Run("invalid plan never reaches the database", func(t *testing.T) {
		t.Parallel()
		db, _, logger := newMockDB(t)
		err := NewPostgresPlanStore(db, logger).Create(context.Background(), &domain.Plan{ID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrEmptyPlanName)
	})
}

func TestPostgresPlanStore_GetByID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "name", "description", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		mock.ExpectQuery(`SELECT .* FROM plans WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id.String(), "Plan", "notes", now, now))

		plan, err := NewPostgresPlanStore(db, logger).GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Plan", plan.Name)
		require.NotNil(t, plan.Description)
		assert.Equal(t, "notes", *plan.Description)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		mock.ExpectQuery(`SELECT .* FROM plans`).WillReturnRows(sqlmock.NewRows(cols))

		_, err := NewPostgresPlanStore(db, logger).GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrPlanNotFound)
	})
}

func TestPostgresPlanStore_List(t *testing.T) {
	t.Parallel()

	db, mock, logger := newMockDB(t)
	now := time.Now().UTC()
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .* FROM plans p LEFT JOIN plan_entries e .* GROUP BY p.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at", "count"}).
			AddRow(a.String(), "A", nil, now, now, 3).
			AddRow(b.String(), "B", "desc", now, now, 0))

	plans, err := NewPostgresPlanStore(db, logger).List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, a, plans[0].ID)
	assert.Equal(t, 3, plans[0].EntryCount)
	assert.Nil(t, plans[0].Description)
	assert.Equal(t, 0, plans[1].EntryCount)
}

func TestPostgresPlanStore_UpdateDelete(t *testing.T) {
	t.Parallel()

	plan, err := domain.NewPlan("Renamed", nil)
	require.NoError(t, err)

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		p := *plan
		mock.ExpectExec(`UPDATE plans SET name = \$1`).
			WithArgs("Renamed", nil, sqlmock.AnyArg(), p.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgresPlanStore(db, logger).Update(context.Background(), &p))
	})

	t.Run("update missing plan", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		p := *plan
		mock.ExpectExec(`UPDATE plans`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresPlanStore(db, logger).Update(context.Background(), &p)
		assert.ErrorIs(t, err, store.ErrPlanNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		mock.ExpectExec(`DELETE FROM plans WHERE id = \$1`).
			WithArgs(plan.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgresPlanStore(db, logger).Delete(context.Background(), plan.ID))
	})

	t.Run("delete missing plan", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		mock.ExpectExec(`DELETE FROM plans`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresPlanStore(db, logger).Delete(context.Background(), plan.ID)
		assert.ErrorIs(t, err, store.ErrPlanNotFound)
	})

	t.Run("delete driver error", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		mock.ExpectExec(`DELETE FROM plans`).WillReturnError(errors.New("boom"))

		err := NewPostgresPlanStore(db, logger).Delete(context.Background(), plan.ID)
		require.Error(t, err)
		assert.False(t, errors.Is(err, store.ErrNotFound))
	})
}

func TestPostgresPlanStore_WithTx(t *testing.T) {
	t.Parallel()

	db, mock, logger := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM plans`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewPostgresPlanStore(db, logger)
	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).Delete(ctx, uuid.New())
	})
	assert.NoError(t, err)
}
