package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/barwethereyet/checkin-api/internal/model"
	"github.com/barwethereyet/checkin-api/internal/utils"
)

// UserRepo provides data access to the 'users' table.  It backs both
// permanent accounts (email + bcrypt hash) and anonymous sessions
// (credential-less rows flagged is_anonymous).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a permanent user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, is_anonymous) VALUES (?,?,0)",
		email, hash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateAnonymous inserts a credential-less anonymous user row and
// returns its ID.  Anonymous rows exist so that every check-in can
// reference a users.id even when the caller never registered.
func (r *UserRepo) CreateAnonymous(ctx context.Context) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, is_anonymous) VALUES (NULL, '', 1)")
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = "id, email, password_hash, display_name, total_points, is_anonymous, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u     model.User
		email sql.NullString
		name  sql.NullString
	)
	err := row.Scan(&u.ID, &email, &u.PasswordHash, &name, &u.TotalPoints, &u.IsAnonymous, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if email.Valid {
		e := email.String
		u.Email = &e
	}
	if name.Valid {
		n := name.String
		u.DisplayName = &n
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// IncrementPoints credits lifetime points as a single conditional
// statement so concurrent check-ins from multiple service instances
// never lose updates.  Best-effort from the caller's perspective.
func (r *UserRepo) IncrementPoints(ctx context.Context, userID uint64, points uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET total_points = total_points + ? WHERE id = ?", points, userID)
	return err
}
