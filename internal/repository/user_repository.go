package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmarcu/contacts-api/internal/model"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, subscription, avatar_url, verification_token, verified, token, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Subscription, &u.AvatarURL,
		&u.VerificationToken, &u.Verified, &u.Token, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new unverified user and populates its ID. The caller
// supplies the password hash, the derived avatar URL and a fresh
// verification token; verified defaults to false in the schema.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, subscription, avatar_url, verification_token) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.Subscription, u.AvatarURL, u.VerificationToken)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by exact email match.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetSessionToken overwrites the user's single session token slot. Login
// stores the freshly signed token here, logout stores NULL; either way any
// previously issued token stops matching and is effectively revoked.
func (r *UserRepo) SetSessionToken(ctx context.Context, id uint64, token sql.NullString) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET token=? WHERE id=?", token, id)
	return err
}

// ConfirmByToken flips a user to verified and clears the verification token
// in a single statement. The compound predicate makes the exchange
// single-use: zero affected rows means no user currently holds the token,
// whether it never existed or was already spent.
func (r *UserRepo) ConfirmByToken(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET verified=1, verification_token=NULL WHERE verification_token=?", token)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateSubscription changes the user's tier and returns the fresh record.
func (r *UserRepo) UpdateSubscription(ctx context.Context, id uint64, subscription string) (*model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET subscription=? WHERE id=?", subscription, id)
	if err != nil {
		return nil, err
	}
	if _, err := res.RowsAffected(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateAvatar records the public URL of a freshly processed avatar.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET avatar_url=? WHERE id=?", url, id)
	return err
}
