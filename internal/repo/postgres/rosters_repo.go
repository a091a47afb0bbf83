package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relaypoint/rollcall/internal/domain/roster"
	"github.com/relaypoint/rollcall/internal/observability"
)

// RostersRepo persists each roster as one row whose students column is a
// JSONB document. The row is the update unit: callers load the roster,
// mutate the embedded list, and Save writes the whole document back
// (last write wins, no version check).
type RostersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRostersRepo(pool *pgxpool.Pool, prom *observability.Prom) *RostersRepo {
	return &RostersRepo{pool: pool, prom: prom}
}

func (r *RostersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanRoster(row pgx.Row) (roster.Roster, error) {
	var ros roster.Roster
	var students []byte

	err := row.Scan(&ros.ID, &ros.Name, &ros.AssignedTo, &students, &ros.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return roster.Roster{}, roster.ErrNotFound
		}
		return roster.Roster{}, err
	}

	ros.Students = []roster.Membership{}

	if len(students) > 0 {
		if err := json.Unmarshal(students, &ros.Students); err != nil {
			return roster.Roster{}, err
		}
	}

	return ros, nil
}

func (r *RostersRepo) Create(ctx context.Context, ros roster.Roster) error {
	return r.observe("rosters.create", func() error {
		students, err := json.Marshal(ros.Students)

		if err != nil {
			return err
		}

		_, err = r.pool.Exec(ctx,
			`INSERT INTO rosters(id, name, assigned_to, students, created_at)
			 VALUES($1,$2,$3,$4,$5)`,
			ros.ID, ros.Name, ros.AssignedTo, students, ros.CreatedAt,
		)

		return err
	})
}

func (r *RostersRepo) GetByID(ctx context.Context, id string) (roster.Roster, error) {
	var ros roster.Roster
	var err error

	err = r.observe("rosters.get_by_id", func() error {
		ros, err = scanRoster(r.pool.QueryRow(ctx,
			`SELECT id, name, assigned_to, students, created_at FROM rosters WHERE id = $1`, id))
		return err
	})

	return ros, err
}

func (r *RostersRepo) list(ctx context.Context, op, query string, args ...interface{}) ([]roster.Roster, error) {
	var out []roster.Roster

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var ros roster.Roster
			var students []byte

			err = rows.Scan(&ros.ID, &ros.Name, &ros.AssignedTo, &students, &ros.CreatedAt)

			if err != nil {
				return err
			}

			ros.Students = []roster.Membership{}

			if len(students) > 0 {
				if err := json.Unmarshal(students, &ros.Students); err != nil {
					return err
				}
			}

			out = append(out, ros)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *RostersRepo) List(ctx context.Context) ([]roster.Roster, error) {
	return r.list(ctx, "rosters.list",
		`SELECT id, name, assigned_to, students, created_at FROM rosters ORDER BY created_at ASC, id ASC`)
}

func (r *RostersRepo) ListAssignedTo(ctx context.Context, userID string) ([]roster.Roster, error) {
	return r.list(ctx, "rosters.list_assigned",
		`SELECT id, name, assigned_to, students, created_at FROM rosters WHERE assigned_to = $1 ORDER BY created_at ASC, id ASC`,
		userID)
}

func (r *RostersRepo) Save(ctx context.Context, ros roster.Roster) error {
	return r.observe("rosters.save", func() error {
		students, err := json.Marshal(ros.Students)

		if err != nil {
			return err
		}

		tag, err := r.pool.Exec(ctx,
			`UPDATE rosters
				SET name = $2,
						assigned_to = $3,
						students = $4
			 WHERE id = $1`,
			ros.ID, ros.Name, ros.AssignedTo, students,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return roster.ErrNotFound
		}

		return nil
	})
}

func (r *RostersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("rosters.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM rosters WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return roster.ErrNotFound
		}

		return nil
	})
}

// ClearAssignedTo nulls the weak staff reference on every roster pointing at
// the deleted user.
func (r *RostersRepo) ClearAssignedTo(ctx context.Context, userID string) (int, error) {
	var n int

	err := r.observe("rosters.clear_assigned", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE rosters SET assigned_to = NULL WHERE assigned_to = $1`, userID)

		if err != nil {
			return err
		}

		n = int(tag.RowsAffected())
		return nil
	})

	return n, err
}
