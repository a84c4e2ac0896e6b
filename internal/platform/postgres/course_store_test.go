package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/domain/prereq"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var courseRowColumns = []string{
	"id", "dept", "code", "title", "credits", "description", "prerequisites",
	"corequisites", "terms_offered", "created_at", "updated_at",
}

func TestPostgresCourseStore_GetByID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("decodes row", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		s := NewPostgresCourseStore(db, logger)

		mock.ExpectQuery(`SELECT .* FROM courses WHERE id = \$1`).
			WithArgs("CPSC 210").
			WillReturnRows(sqlmock.NewRows(courseRowColumns).AddRow(
				"CPSC 210", "CPSC", "210", "Software Construction", "4.0", "Design.",
				[]byte(`{"type":"all_of","rules":[{"type":"course","courseId":"CPSC 110"}]}`),
				[]byte(`["CPSC 221"]`), []byte(`["W1","W2"]`), now, now,
			))

		course, err := s.GetByID(context.Background(), " cpsc 210")
		require.NoError(t, err)

		assert.Equal(t, "CPSC 210", course.ID)
		assert.Equal(t, 4.0, course.Credits)
		require.NotNil(t, course.Description)
		assert.Equal(t, "Design.", *course.Description)
		assert.Equal(t, []string{"CPSC 221"}, course.Corequisites)
		assert.Equal(t, []domain.Term{domain.TermWinter1, domain.TermWinter2}, course.TermsOffered)
		assert.Equal(t, []string{"CPSC 110"}, prereq.CourseIDs(course.Prerequisites))
	})

	t.Run("null prerequisites and bad credits", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		s := NewPostgresCourseStore(db, logger)

		mock.ExpectQuery(`SELECT .* FROM courses WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(courseRowColumns).AddRow(
				"MATH 100", "MATH", "100", "Calculus", "abc", nil, nil, nil, nil, now, now,
			))

		course, err := s.GetByID(context.Background(), "MATH 100")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultCredits, course.Credits)
		assert.Nil(t, course.Prerequisites)
		assert.Nil(t, course.Description)
		assert.Empty(t, course.Corequisites)
		assert.NotNil(t, course.TermsOffered)
	})

	t.Run("unreadable prerequisites fail closed", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		s := NewPostgresCourseStore(db, logger)

		mock.ExpectQuery(`SELECT .* FROM courses WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(courseRowColumns).AddRow(
				"CPSC 310", "CPSC", "310", "SE", "4", nil, []byte(`{broken`), nil, nil, now, now,
			))

		course, err := s.GetByID(context.Background(), "CPSC 310")
		require.NoError(t, err)
		assert.IsType(t, prereq.Unknown{}, course.Prerequisites)
		assert.False(t, prereq.Satisfied(course.Prerequisites, prereq.NewCompleted(nil)))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		s := NewPostgresCourseStore(db, logger)

		mock.ExpectQuery(`SELECT .* FROM courses WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(courseRowColumns))

		_, err := s.GetByID(context.Background(), "NOPE 999")
		assert.ErrorIs(t, err, store.ErrCourseNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		s := NewPostgresCourseStore(db, logger)

		mock.ExpectQuery(`SELECT .* FROM courses`).WillReturnError(errors.New("connection refused"))

		_, err := s.GetByID(context.Background(), "CPSC 110")
		require.Error(t, err)
		assert.False(t, errors.Is(err, store.ErrNotFound))
	})
}

func TestPostgresCourseStore_GetByIDs(t *testing.T) {
	t.Parallel()

	t.Run("empty input skips the query", func(t *testing.T) {
		t.Parallel()
		db, _, logger := newMockDB(t)
		courses, err := NewPostgresCourseStore(db, logger).GetByIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, courses)
	})

	t.Run("binds one placeholder per id", func(t *testing.T) {
		t.Parallel()
		db, mock, logger := newMockDB(t)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id IN ($1, $2) ORDER BY id`)).
			WithArgs("CPSC 110", "CPSC 210").
			WillReturnRows(sqlmock.NewRows(courseRowColumns).
				AddRow("CPSC 110", "CPSC", "110", "Intro", "4.0", nil, nil, nil, nil, now, now))

		courses, err := NewPostgresCourseStore(db, logger).
			GetByIDs(context.Background(), []string{"cpsc 110", "CPSC 210"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "CPSC 110", courses[0].ID)
	})
}

func TestPostgresCourseStore_List(t *testing.T) {
	t.Parallel()

	db, mock, logger := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM courses WHERE dept = $1 AND code LIKE $2 AND (id ILIKE $3 OR title ILIKE $3 OR description ILIKE $3)`)).
		WithArgs("CPSC", "3%", "%soft%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id LIMIT $4 OFFSET $5`)).
		WithArgs("CPSC", "3%", "%soft%", store.MaxCourseLimit, 0).
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("CPSC 310", "CPSC", "310", "Intro to Software Engineering", "4.0", nil, nil, nil, nil, now, now))

	courses, total, err := NewPostgresCourseStore(db, logger).List(context.Background(), store.CourseFilter{
		Dept:   "cpsc",
		Level:  "300",
		Query:  "soft",
		Offset: -3,
		Limit:  500,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, courses, 1)
	assert.Equal(t, "CPSC 310", courses[0].ID)
}

func TestCourseFilterClause_Empty(t *testing.T) {
	t.Parallel()
	where, args := courseFilterClause(store.CourseFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = courseFilterClause(store.CourseFilter{Level: "abc"})
	assert.Empty(t, where)
	assert.Empty(t, args)
}
