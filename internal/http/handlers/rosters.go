package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relaypoint/rollcall/internal/authz"
	"github.com/relaypoint/rollcall/internal/config"
	"github.com/relaypoint/rollcall/internal/domain/roster"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/http/middlewares"
)

// RosterStore owns roster documents. Membership edits go through
// load-mutate-Save: the roster row is the update unit, last write wins.
type RosterStore interface {
	Create(ctx context.Context, ros roster.Roster) error
	GetByID(ctx context.Context, id string) (roster.Roster, error)
	List(ctx context.Context) ([]roster.Roster, error)
	ListAssignedTo(ctx context.Context, userID string) ([]roster.Roster, error)
	Save(ctx context.Context, ros roster.Roster) error
	Delete(ctx context.Context, id string) error
}

// StaffDirectory resolves assignee references against the credential store.
type StaffDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmailActive(ctx context.Context, email string) (user.User, error)
}

type RostersHandler struct {
	rosters     RosterStore
	users       StaffDirectory
	strictReads bool
	log         *slog.Logger
}

func NewRostersHandler(rosters RosterStore, users StaffDirectory, strictReads bool, log *slog.Logger) *RostersHandler {
	return &RostersHandler{rosters: rosters, users: users, strictReads: strictReads, log: log}
}

type CreateRosterRequest struct {
	Name            string `json:"name"`
	AssignedToEmail string `json:"assignedToEmail"`
}

func (h *RostersHandler) CreateRoster(ctx *gin.Context) {
	var req CreateRosterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)

	if name == "" {
		RespondBadRequest(ctx, "missing_name", "Roster name is required")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// Name uniqueness is checked by the client only (case-insensitive);
	// the server accepts duplicates on purpose.

	var assignedTo *string

	if req.AssignedToEmail != "" {
		u, err := h.users.GetByEmailActive(cctx, req.AssignedToEmail)

		if err == nil {
			assignedTo = &u.ID
		} else {
			// an unresolvable email is ignored, the roster starts unassigned
			h.log.InfoContext(ctx.Request.Context(), "roster created unassigned, email not resolved", "email", req.AssignedToEmail)
		}
	}

	ros := roster.New(name, assignedTo)

	if err := h.rosters.Create(cctx, ros); err != nil {
		RespondInternal(ctx, "Could not create roster")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"id":         ros.ID,
		"name":       ros.Name,
		"assignedTo": ros.AssignedTo,
	})
}

// assigneeEmail denormalizes the assigned staff email at read time. A
// missing referent means "no assigned email", never an error.
func (h *RostersHandler) assigneeEmail(ctx context.Context, ros roster.Roster) string {
	if ros.AssignedTo == nil {
		return ""
	}

	u, err := h.users.GetByID(ctx, *ros.AssignedTo)

	if err != nil {
		return ""
	}

	return u.Email
}

func (h *RostersHandler) ListRosters(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	var (
		rosters []roster.Roster
		err     error
	)

	// admins see everything, staff see their own assignments
	if caller.IsAdmin() {
		rosters, err = h.rosters.List(cctx)
	} else {
		rosters, err = h.rosters.ListAssignedTo(cctx, caller.ID)
	}

	if err != nil {
		RespondInternal(ctx, "Could not list rosters")
		return
	}

	out := make([]roster.ListItem, 0, len(rosters))

	for _, ros := range rosters {
		out = append(out, roster.ListItem{
			ID:              ros.ID,
			Name:            ros.Name,
			AssignedTo:      ros.AssignedTo,
			AssignedToEmail: h.assigneeEmail(cctx, ros),
			CreatedAt:       ros.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *RostersHandler) GetRoster(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	ros, err := h.rosters.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			RespondNotFound(ctx, "Roster not found")
			return
		}

		RespondInternal(ctx, "Could not fetch roster")
		return
	}

	if !authz.CanReadRoster(caller, ros, h.strictReads) {
		RespondForbidden(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":              ros.ID,
		"name":            ros.Name,
		"students":        ros.Students,
		"assignedTo":      ros.AssignedTo,
		"assignedToEmail": h.assigneeEmail(cctx, ros),
		"created_at":      ros.CreatedAt,
	})
}

type AddMembershipRequest struct {
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

func (h *RostersHandler) AddMembership(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)

	var req AddMembershipRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)

	if name == "" {
		RespondBadRequest(ctx, "missing_name", "Student name is required")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ros, err := h.rosters.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			RespondNotFound(ctx, "Roster not found")
			return
		}

		RespondInternal(ctx, "Could not fetch roster")
		return
	}

	if !authz.CanEditRoster(caller, ros) {
		RespondForbidden(ctx)
		return
	}

	// a fresh membership id, unrelated to any catalog student
	m := roster.NewMembership(name, req.ImageURL)

	ros.Students = append(ros.Students, m)

	if err := h.rosters.Save(cctx, ros); err != nil {
		RespondInternal(ctx, "Could not add student to roster")
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

func (h *RostersHandler) UpdateMembership(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)

	var patch authz.MembershipPatch

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ros, err := h.rosters.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			RespondNotFound(ctx, "Roster not found")
			return
		}

		RespondInternal(ctx, "Could not fetch roster")
		return
	}

	// a patch touching more than accounted is privileged, even when
	// accounted is part of it
	if !authz.CanApplyMembershipPatch(caller, ros, patch) {
		RespondForbidden(ctx)
		return
	}

	i, ok := ros.FindMembership(ctx.Param("sid"))

	if !ok {
		RespondNotFound(ctx, "Student not found in roster")
		return
	}

	if patch.Accounted != nil {
		ros.Students[i].Accounted = *patch.Accounted
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)

		if name == "" {
			RespondBadRequest(ctx, "missing_name", "Student name cannot be blank")
			return
		}

		ros.Students[i].Name = name
	}

	if patch.ImageURL != nil {
		ros.Students[i].ImageURL = *patch.ImageURL
	}

	if err := h.rosters.Save(cctx, ros); err != nil {
		RespondInternal(ctx, "Could not update student")
		return
	}

	ctx.JSON(http.StatusOK, ros.Students[i])
}

func (h *RostersHandler) RemoveMembership(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ros, err := h.rosters.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			RespondNotFound(ctx, "Roster not found")
			return
		}

		RespondInternal(ctx, "Could not fetch roster")
		return
	}

	if !authz.CanEditRoster(caller, ros) {
		RespondForbidden(ctx)
		return
	}

	if !ros.RemoveMembership(ctx.Param("sid")) {
		RespondNotFound(ctx, "Student not found in roster")
		return
	}

	if err := h.rosters.Save(cctx, ros); err != nil {
		RespondInternal(ctx, "Could not remove student")
		return
	}

	ctx.Status(http.StatusNoContent)
}

type AssignRosterRequest struct {
	StaffID    string `json:"staffId"`
	StaffEmail string `json:"staffEmail"`
	Clear      bool   `json:"clear"`
}

func (h *RostersHandler) AssignRoster(ctx *gin.Context) {
	var req AssignRosterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ros, err := h.rosters.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			RespondNotFound(ctx, "Roster not found")
			return
		}

		RespondInternal(ctx, "Could not fetch roster")
		return
	}

	if req.Clear {
		ros.AssignedTo = nil
	} else {
		staff, err := h.resolveStaff(cctx, req)

		if err != nil {
			RespondError(ctx, http.StatusNotFound, "staff_not_found", "No active staff user matches the given id or email", nil)
			return
		}

		ros.AssignedTo = &staff.ID
	}

	if err := h.rosters.Save(cctx, ros); err != nil {
		RespondInternal(ctx, "Could not assign roster")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":              ros.ID,
		"assignedTo":      ros.AssignedTo,
		"assignedToEmail": h.assigneeEmail(cctx, ros),
	})
}

// resolveStaff tries the id first and falls back to the email; either must
// point at an active user.
func (h *RostersHandler) resolveStaff(ctx context.Context, req AssignRosterRequest) (user.User, error) {
	if req.StaffID != "" {
		u, err := h.users.GetByID(ctx, req.StaffID)

		if err == nil && u.IsActive() {
			return u, nil
		}
	}

	if req.StaffEmail != "" {
		u, err := h.users.GetByEmailActive(ctx, req.StaffEmail)

		if err == nil {
			return u, nil
		}
	}

	return user.User{}, roster.ErrStaffNotFound
}

func (h *RostersHandler) DeleteRoster(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.rosters.Delete(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			RespondNotFound(ctx, "Roster not found")
			return
		}

		RespondInternal(ctx, "Could not delete roster")
		return
	}

	ctx.Status(http.StatusNoContent)
}
