package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relaypoint/rollcall/internal/config"
	"github.com/relaypoint/rollcall/internal/domain/roster"
	"github.com/relaypoint/rollcall/internal/domain/student"
)

// StudentStore holds the catalog, independent of any roster membership.
type StudentStore interface {
	Create(ctx context.Context, s student.Student) error
	GetByID(ctx context.Context, id string) (student.Student, error)
	List(ctx context.Context) ([]student.Student, error)
	Delete(ctx context.Context, id string) error
}

// StudentCleanup is the consistency sweep triggered after a catalog delete.
type StudentCleanup interface {
	StudentDeleted(ctx context.Context, studentID string)
}

type StudentsHandler struct {
	students StudentStore
	rosters  RosterStore
	cleanup  StudentCleanup
	log      *slog.Logger
}

func NewStudentsHandler(students StudentStore, rosters RosterStore, cleanup StudentCleanup, log *slog.Logger) *StudentsHandler {
	return &StudentsHandler{students: students, rosters: rosters, cleanup: cleanup, log: log}
}

type CreateStudentRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl"`
	RosterID  string `json:"rosterId"`
}

func (h *StudentsHandler) CreateStudent(ctx *gin.Context) {
	var req CreateStudentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)

	if first == "" || last == "" {
		RespondBadRequest(ctx, "missing_name", "First and last name are required")
		return
	}

	s := student.New(first, last, req.ImageURL)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.students.Create(cctx, s); err != nil {
		RespondInternal(ctx, "Could not create student")
		return
	}

	// optional copy-on-add into a roster: the membership reuses the catalog
	// id so a later catalog delete can find it. Any failure here leaves the
	// catalog row in place and only gets logged.
	if req.RosterID != "" {
		h.enroll(cctx, ctx, req.RosterID, s)
	}

	ctx.JSON(http.StatusCreated, s)
}

func (h *StudentsHandler) enroll(cctx context.Context, ctx *gin.Context, rosterID string, s student.Student) {
	ros, err := h.rosters.GetByID(cctx, rosterID)

	if err != nil {
		h.log.WarnContext(ctx.Request.Context(), "student created but roster enrollment skipped", "roster_id", rosterID, "err", err)
		return
	}

	ros.Students = append(ros.Students, roster.Membership{
		ID:       s.ID,
		Name:     s.DisplayName(),
		ImageURL: s.ImageURL,
	})

	if err := h.rosters.Save(cctx, ros); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "student created but roster enrollment failed", "roster_id", rosterID, "err", err)
	}
}

func (h *StudentsHandler) ListStudents(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	students, err := h.students.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list students")
		return
	}

	out := make([]student.Listing, 0, len(students))

	for _, s := range students {
		out = append(out, s.Listing())
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *StudentsHandler) GetStudent(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	s, err := h.students.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, student.ErrNotFound) {
			RespondNotFound(ctx, "Student not found")
			return
		}

		RespondInternal(ctx, "Could not fetch student")
		return
	}

	ctx.JSON(http.StatusOK, s)
}

func (h *StudentsHandler) DeleteStudent(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.students.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, student.ErrNotFound) {
			RespondNotFound(ctx, "Student not found")
			return
		}

		RespondInternal(ctx, "Could not delete student")
		return
	}

	// cascade removal of memberships that still carry the catalog id
	h.cleanup.StudentDeleted(ctx.Request.Context(), id)

	ctx.Status(http.StatusNoContent)
}
