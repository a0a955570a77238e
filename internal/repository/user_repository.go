package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vastralabs/photoshoot/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, plan, credits, created_at, updated_at FROM users WHERE id = ?`, userID)
	var u models.User
	if err := row.Scan(&u.ID, &u.Plan, &u.Credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Ensure returns the user, creating it on first sight. The identity
// provider owns authentication; ids arriving here are trusted.
func (r *UserRepository) Ensure(ctx context.Context, userID string) (*models.User, bool, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, plan, credits) VALUES (?, ?, 0)`, userID, models.PlanFree)
	if err != nil {
		if isDuplicateEntry(err) {
			// Lost a creation race; the other writer's row is fine.
			user, err := r.FindByID(ctx, userID)
			if err != nil {
				return nil, false, err
			}
			return user, false, nil
		}
		return nil, false, fmt.Errorf("insert user: %w", err)
	}

	user, err = r.FindByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (r *UserRepository) SetPlan(ctx context.Context, userID string, plan models.PlanTier) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET plan = ?, updated_at = NOW() WHERE id = ?`, plan, userID); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
