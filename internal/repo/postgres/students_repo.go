package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relaypoint/rollcall/internal/domain/student"
	"github.com/relaypoint/rollcall/internal/observability"
)

type StudentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStudentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StudentsRepo {
	return &StudentsRepo{pool: pool, prom: prom}
}

func (r *StudentsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *StudentsRepo) Create(ctx context.Context, s student.Student) error {
	return r.observe("students.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO students(id, first_name, last_name, image_url, created_at)
			 VALUES($1,$2,$3,$4,$5)`,
			s.ID, s.FirstName, s.LastName, s.ImageURL, s.CreatedAt,
		)

		return err
	})
}

func (r *StudentsRepo) GetByID(ctx context.Context, id string) (student.Student, error) {
	var s student.Student

	err := r.observe("students.get_by_id", func() error {
		err := r.pool.QueryRow(ctx,
			`SELECT id, first_name, last_name, image_url, created_at FROM students WHERE id = $1`, id,
		).Scan(&s.ID, &s.FirstName, &s.LastName, &s.ImageURL, &s.CreatedAt)

		if errors.Is(err, pgx.ErrNoRows) {
			return student.ErrNotFound
		}

		return err
	})

	if err != nil {
		return student.Student{}, err
	}

	return s, nil
}

func (r *StudentsRepo) List(ctx context.Context) ([]student.Student, error) {
	var out []student.Student

	err := r.observe("students.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, first_name, last_name, image_url, created_at FROM students ORDER BY created_at ASC, id ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var s student.Student

			err = rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.ImageURL, &s.CreatedAt)

			if err != nil {
				return err
			}

			out = append(out, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *StudentsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("students.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return student.ErrNotFound
		}

		return nil
	})
}
