package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/filmfest/catalogue-api/internal/model"
	"github.com/filmfest/catalogue-api/internal/utils"
)

const userColumns = "id,email,first_name,last_name,password,image_filename,auth_token"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.ImageFilename, &u.AuthToken)
	return u, err
}

// Create hashes the password and inserts a new user, returning its ID.
// A duplicate email surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName, password string, cost int) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user (email, first_name, last_name, password) VALUES (?,?,?,?)",
		email, firstName, lastName, hash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM user WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM user WHERE id=? LIMIT 1", id))
}

// GetByToken resolves the caller's identity from an opaque session token.
// The lookup is fresh per request; there is no session cache.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM user WHERE auth_token=? LIMIT 1", token))
}

// SetToken stores a new session token for the user, replacing any
// previous session.
func (r *UserRepo) SetToken(ctx context.Context, id int64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET auth_token=? WHERE id=?", token, id)
	return err
}

// ClearToken logs the user out by nulling the stored token.
func (r *UserRepo) ClearToken(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET auth_token=NULL WHERE id=?", id)
	return err
}

// UpdateEmail changes the user's email. A collision with another account
// surfaces as ErrEmailExists.
func (r *UserRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET email=? WHERE id=?", email, id)
	if isDuplicateKey(err) {
		return ErrEmailExists
	}
	return err
}

func (r *UserRepo) UpdateFirstName(ctx context.Context, id int64, firstName string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET first_name=? WHERE id=?", firstName, id)
	return err
}

func (r *UserRepo) UpdateLastName(ctx context.Context, id int64, lastName string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET last_name=? WHERE id=?", lastName, id)
	return err
}

// UpdatePassword stores a new bcrypt hash. Verification of the current
// password happens in the pipeline before this is called.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET password=? WHERE id=?", hash, id)
	return err
}

// SetImage records the stored profile image filename.
func (r *UserRepo) SetImage(ctx context.Context, id int64, filename string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET image_filename=? WHERE id=?", filename, id)
	return err
}

// ClearImage removes the profile image reference.
func (r *UserRepo) ClearImage(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user SET image_filename=NULL WHERE id=?", id)
	return err
}
