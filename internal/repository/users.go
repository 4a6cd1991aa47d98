package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/feichai0017/correspondence-tracker/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO usuarios (username, password_hash, nombre, activo, fecha_creacion) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Nombre, u.Activo, formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	u.FechaCreacion = now.UTC()
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var (
		u       models.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, nombre, activo, fecha_creacion FROM usuarios WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nombre, &u.Activo, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("failed to get user: %w", err)
	}
	u.FechaCreacion = parseTime(created)
	return u, nil
}
