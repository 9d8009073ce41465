package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// UserRepo stores application users.
type UserRepo struct {
	db pools
}

// NewUserRepo creates a UserRepo. readDB may be nil.
func NewUserRepo(writeDB, readDB *sql.DB) *UserRepo {
	return &UserRepo{db: newPools(writeDB, readDB)}
}

const userColumns = `id, username, email, display_name, is_admin, created_at`

// Create inserts a new user with a generated id.
func (r *UserRepo) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	u := &domain.User{
		ID:          domain.NewID(),
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		IsAdmin:     req.IsAdmin,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.w.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.DisplayName, boolToInt(u.IsAdmin), formatTime(u.CreatedAt))
	if err != nil {
		return nil, mapDBError(err)
	}
	return u, nil
}

// GetByID returns the user with the given id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.r.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return u, nil
}

// GetByUsername returns the user with the given username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.r.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return u, nil
}

// List returns all users ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.r.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u       domain.User
		isAdmin int64
		created string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &isAdmin, &created); err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}
