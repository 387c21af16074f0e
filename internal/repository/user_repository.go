package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/vuongdq/game-platform/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

const userColumns = "id,username,email,password_hash,role,created_at,updated_at"

// UserRepo is the credential store backed by the MySQL `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and sets u.ID.  The unique keys on username and email
// are the authority on uniqueness; a violation is reported as
// ErrUsernameExists or ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return classifyWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update rewrites email and role of one user and, when passwordHash is
// non-empty, its password hash.
func (r *UserRepo) Update(ctx context.Context, id uint64, email string, role model.Role, passwordHash string) error {
	now := time.Now().UTC()
	var err error
	if passwordHash == "" {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET email=?, role=?, updated_at=? WHERE id=?",
			normalizeEmail(email), string(role), now, id)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET email=?, role=?, password_hash=?, updated_at=? WHERE id=?",
			normalizeEmail(email), string(role), passwordHash, now, id)
	}
	if err != nil {
		return classifyWriteErr(err)
	}
	return nil
}

// Delete removes the user permanently.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// HasAdmin reports whether at least one Admin row exists.
func (r *UserRepo) HasAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE role=?)", string(model.RoleAdmin)).Scan(&exists)
	return exists, err
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx, query, arg), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner, u *model.User) error {
	var role string
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Role = model.Role(role)
	return nil
}

// classifyWriteErr turns a MySQL duplicate-key error into the matching
// sentinel.  The index name appears in the server message, e.g.
// "Duplicate entry 'alice' for key 'users.uq_users_username'".
func classifyWriteErr(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	switch {
	case strings.Contains(me.Message, "uq_users_username"):
		return ErrUsernameExists
	case strings.Contains(me.Message, "uq_users_email"):
		return ErrEmailExists
	}
	return ErrDuplicate
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
