// Package consistency holds the cross-collection cleanup that runs inside
// delete operations. It is synchronous best effort, not transactional: each
// repair is an independent write, failures are logged and swallowed so they
// never turn a successful primary delete into a reported failure.
package consistency

import (
	"context"
	"log/slog"

	"github.com/relaypoint/rollcall/internal/domain/roster"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/observability"
)

type RosterStore interface {
	List(ctx context.Context) ([]roster.Roster, error)
	Save(ctx context.Context, ros roster.Roster) error
	ClearAssignedTo(ctx context.Context, userID string) (int, error)
}

type UserStore interface {
	List(ctx context.Context) ([]user.User, error)
}

type Sweeper struct {
	rosters RosterStore
	users   UserStore
	log     *slog.Logger
	prom    *observability.Prom
}

func NewSweeper(rosters RosterStore, users UserStore, log *slog.Logger, prom *observability.Prom) *Sweeper {
	return &Sweeper{rosters: rosters, users: users, log: log, prom: prom}
}

func (s *Sweeper) count(trigger, result string) {
	if s.prom != nil {
		s.prom.SweepResults.WithLabelValues(trigger, result).Inc()
	}
}

// UserDeleted nulls the assignedTo reference on every roster that pointed at
// the deleted user.
func (s *Sweeper) UserDeleted(ctx context.Context, userID string) {
	n, err := s.rosters.ClearAssignedTo(ctx, userID)

	if err != nil {
		s.count("user_delete", "error")
		s.log.ErrorContext(ctx, "assignment cleanup failed", "user_id", userID, "err", err)
		return
	}

	s.count("user_delete", "ok")
	s.log.InfoContext(ctx, "assignment cleanup", "user_id", userID, "rosters_cleared", n)
}

// StudentDeleted strips membership entries whose id equals the deleted
// catalog id from every roster. Memberships added through the generic
// add-membership call mint their own ids and are not matched here; that gap
// is inherited from the copy-on-add membership model.
func (s *Sweeper) StudentDeleted(ctx context.Context, studentID string) {
	rosters, err := s.rosters.List(ctx)

	if err != nil {
		s.count("student_delete", "error")
		s.log.ErrorContext(ctx, "membership cleanup failed", "student_id", studentID, "err", err)
		return
	}

	removed := 0

	for _, ros := range rosters {
		if !ros.RemoveMembership(studentID) {
			continue
		}

		if err := s.rosters.Save(ctx, ros); err != nil {
			s.count("student_delete", "error")
			s.log.ErrorContext(ctx, "membership cleanup failed", "student_id", studentID, "roster_id", ros.ID, "err", err)
			continue
		}

		removed++
	}

	s.count("student_delete", "ok")
	s.log.InfoContext(ctx, "membership cleanup", "student_id", studentID, "memberships_removed", removed)
}

// Reconcile is the idempotent repair pass: it re-nulls any assignedTo
// reference whose user no longer exists. Safe to re-run at any time; the
// server runs it once at startup to repair crashes that interrupted a
// cascade.
func (s *Sweeper) Reconcile(ctx context.Context) {
	users, err := s.users.List(ctx)

	if err != nil {
		s.count("reconcile", "error")
		s.log.ErrorContext(ctx, "reconcile sweep failed", "err", err)
		return
	}

	alive := make(map[string]struct{}, len(users))

	for _, u := range users {
		alive[u.ID] = struct{}{}
	}

	rosters, err := s.rosters.List(ctx)

	if err != nil {
		s.count("reconcile", "error")
		s.log.ErrorContext(ctx, "reconcile sweep failed", "err", err)
		return
	}

	repaired := 0

	for _, ros := range rosters {
		if ros.AssignedTo == nil {
			continue
		}

		if _, ok := alive[*ros.AssignedTo]; ok {
			continue
		}

		ros.AssignedTo = nil

		if err := s.rosters.Save(ctx, ros); err != nil {
			s.count("reconcile", "error")
			s.log.ErrorContext(ctx, "reconcile repair failed", "roster_id", ros.ID, "err", err)
			continue
		}

		repaired++
	}

	s.count("reconcile", "ok")
	s.log.InfoContext(ctx, "reconcile sweep", "rosters_repaired", repaired)
}
