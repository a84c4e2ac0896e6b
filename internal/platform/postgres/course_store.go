package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/domain/prereq"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// courseColumns lists the selected course columns in scan order. Arrays are
// read as JSON so they scan through database/sql without driver types.
const courseColumns = `id, dept, code, title, credits::text, description, prerequisites,
	to_jsonb(corequisites), to_jsonb(terms_offered), created_at, updated_at`

// PostgresCourseStore implements the store.CourseStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCourseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCourseStore creates a new PostgreSQL implementation of the CourseStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCourseStore(db store.DBTX, logger *slog.Logger) *PostgresCourseStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCourseStore{
		db:     db,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

// Ensure PostgresCourseStore implements store.CourseStore interface
var _ store.CourseStore = (*PostgresCourseStore)(nil)

// GetByID implements store.CourseStore.GetByID
func (s *PostgresCourseStore) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	id = domain.NormalizeCourseID(id)

	log.Debug("retrieving course by ID", slog.String("course_id", id))

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	course, err := s.scanCourse(ctx, s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("course not found", slog.String("course_id", id))
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course by ID",
			slog.String("error", err.Error()),
			slog.String("course_id", id))
		return nil, MapError(err)
	}

	return course, nil
}

// GetByIDs implements store.CourseStore.GetByIDs
func (s *PostgresCourseStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return []*domain.Course{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = domain.NormalizeCourseID(id)
	}

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query courses by IDs",
			slog.String("error", err.Error()),
			slog.Int("id_count", len(ids)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	courses, err := s.scanCourses(ctx, rows)
	if err != nil {
		log.Error("failed to read course rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("courses retrieved by IDs",
		slog.Int("requested", len(ids)),
		slog.Int("found", len(courses)))
	return courses, nil
}

// List implements store.CourseStore.List
func (s *PostgresCourseStore) List(
	ctx context.Context,
	filter store.CourseFilter,
) ([]*domain.Course, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	filter = filter.Normalize()

	where, args := courseFilterClause(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM courses` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count courses", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM courses%s ORDER BY id LIMIT $%d OFFSET $%d`,
		courseColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list courses", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	courses, err := s.scanCourses(ctx, rows)
	if err != nil {
		log.Error("failed to read course rows", slog.String("error", err.Error()))
		return nil, 0, err
	}

	log.Debug("courses listed",
		slog.Int("count", len(courses)),
		slog.Int("total", total),
		slog.Int("offset", filter.Offset),
		slog.Int("limit", filter.Limit))
	return courses, total, nil
}

// courseFilterClause builds the WHERE clause and its arguments for filter.
func courseFilterClause(filter store.CourseFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if dept := strings.ToUpper(strings.TrimSpace(filter.Dept)); dept != "" {
		args = append(args, dept)
		conds = append(conds, fmt.Sprintf("dept = $%d", len(args)))
	}
	// Level "3" (or "300") selects 3xx courses; a non-numeric level is ignored
	if level := strings.TrimSpace(filter.Level); level != "" && level[0] >= '0' && level[0] <= '9' {
		args = append(args, level[:1]+"%")
		conds = append(conds, fmt.Sprintf("code LIKE $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(id ILIKE $%d OR title ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresCourseStore) scanCourses(ctx context.Context, rows *sql.Rows) ([]*domain.Course, error) {
	courses := []*domain.Course{}
	for rows.Next() {
		course, err := s.scanCourse(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

// scanCourse reads one course row. A prerequisite document that is not valid
// JSON is kept as an Unknown rule so the course fails closed during validation.
func (s *PostgresCourseStore) scanCourse(ctx context.Context, row rowScanner) (*domain.Course, error) {
	var (
		course      domain.Course
		credits     sql.NullString
		description sql.NullString
		prereqJSON  []byte
		coreqJSON   []byte
		termsJSON   []byte
	)

	if err := row.Scan(
		&course.ID,
		&course.Dept,
		&course.Code,
		&course.Title,
		&credits,
		&description,
		&prereqJSON,
		&coreqJSON,
		&termsJSON,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		return nil, err
	}

	course.Credits = domain.ParseCredits(credits.String)
	if description.Valid {
		course.Description = &description.String
	}

	rule, err := prereq.Parse(prereqJSON)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("unreadable prerequisite rule",
			slog.String("course_id", course.ID),
			slog.String("error", err.Error()))
		rule = prereq.Unknown{Type: "invalid", Raw: prereqJSON}
	}
	course.Prerequisites = rule

	course.Corequisites = []string{}
	if len(coreqJSON) > 0 {
		if err := json.Unmarshal(coreqJSON, &course.Corequisites); err != nil {
			return nil, fmt.Errorf("invalid corequisites: %w", err)
		}
	}
	course.TermsOffered = []domain.Term{}
	if len(termsJSON) > 0 {
		if err := json.Unmarshal(termsJSON, &course.TermsOffered); err != nil {
			return nil, fmt.Errorf("invalid terms offered: %w", err)
		}
	}

	return &course, nil
}
