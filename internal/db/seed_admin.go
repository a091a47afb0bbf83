package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relaypoint/rollcall/internal/config"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/security"
)

// EnsureAdminUser seeds one admin from the environment. A fresh database has
// no users and every admin endpoint is gated, so without this there is no
// way in.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.New(email, hash, []string{user.RoleAdmin})

	_, err = pool.Exec(ctx,
		`INSERT INTO users(id, email, password_hash, roles, status, session, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Email, u.PasswordHash, u.Roles, u.Status, u.Session, u.CreatedAt,
	)

	return err
}
