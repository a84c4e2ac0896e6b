package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// CourseHandler serves the read-only course catalog.
type CourseHandler struct {
	courses store.CourseStore
	logger  *slog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courses store.CourseStore, logger *slog.Logger) *CourseHandler {
	if courses == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("courses cannot be nil for CourseHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CourseHandler")
	}
	return &CourseHandler{
		courses: courses,
		logger:  logger.With(slog.String("component", "course_handler")),
	}
}

// Routes mounts the catalog endpoints on r.
func (h *CourseHandler) Routes(r chi.Router) {
	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{id}", h.GetCourse)
}

// ListCourses handles GET /courses?offset&limit&dept&level&q
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	q := r.URL.Query()

	filter := store.CourseFilter{
		Dept:   q.Get("dept"),
		Level:  q.Get("level"),
		Query:  q.Get("q"),
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", store.DefaultCourseLimit),
	}
	// zero means the default page size, a negative limit the smallest page
	if filter.Limit < 0 {
		filter.Limit = 1
	}
	filter = filter.Normalize()

	courses, total, err := h.courses.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list courses")
		return
	}

	data := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		data = append(data, courseToResponse(c))
	}

	log.Debug("listed courses",
		slog.Int("count", len(data)),
		slog.Int("total", total),
		slog.Int("offset", filter.Offset))
	shared.RespondWithJSON(w, r, http.StatusOK, CourseListResponse{
		Data:       data,
		Pagination: Pagination{Offset: filter.Offset, Limit: filter.Limit, Total: total},
	})
}

// GetCourse handles GET /courses/{id}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id := domain.NormalizeCourseID(chi.URLParam(r, "id"))
	if id == "" {
		HandleAPIError(w, r, domain.ErrEmptyCourseID, "")
		return
	}

	course, err := h.courses.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrCourseNotFound) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get course")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}
