package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/centa/return-tracker/internal/model"
)

// UserRepo persists application users.  Accounts are created inactive with
// an invitation hash; activation sets the password and clears the invite.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, role, first_name, last_name, is_active,
	notify_enabled, invite_hash, invite_expiry, last_login, created_at, updated_at`

// CreateInvited inserts a new inactive user carrying an invitation hash and
// expiry.  The generated id is populated on the struct.
func (r *UserRepo) CreateInvited(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, first_name, last_name, is_active,
			notify_enabled, invite_hash, invite_expiry)
		 VALUES (?, '', ?, ?, ?, FALSE, ?, ?, ?)`,
		normalizeEmail(u.Email), string(u.Role), u.FirstName, u.LastName,
		u.NotifyEnabled, u.InviteHash, u.InviteExpiry)
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

// Activate redeems an invitation: it sets the password hash, flips the
// account active and clears the invite columns.  Expired or unknown tokens
// return ErrInviteInvalid.
func (r *UserRepo) Activate(ctx context.Context, inviteHash, passwordHash string) (*model.User, error) {
	var u model.User
	err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE invite_hash = ? LIMIT 1`, inviteHash), &u)
	if err == sql.ErrNoRows {
		return nil, ErrInviteInvalid
	}
	if err != nil {
		return nil, err
	}
	if u.IsActive || u.InviteExpiry == nil || time.Now().UTC().After(*u.InviteExpiry) {
		return nil, ErrInviteInvalid
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, is_active = TRUE, invite_hash = NULL, invite_expiry = NULL
		 WHERE id = ? AND invite_hash = ? AND is_active = FALSE`,
		passwordHash, u.ID, inviteHash)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Lost a race with another redemption of the same token.
		return nil, ErrInviteInvalid
	}
	u.PasswordHash = passwordHash
	u.IsActive = true
	u.InviteHash = nil
	u.InviteExpiry = nil
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, normalizeEmail(email)), &u)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id), &u)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := r.scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes a user by email.
func (r *UserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE email = ?`, normalizeEmail(email))
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

// SetNotifyEnabled updates a user's notification preference.
func (r *UserRepo) SetNotifyEnabled(ctx context.Context, id uint64, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET notify_enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// RecipientsFor returns the emails of active users of the given roles who
// opted into notifications.  The notifier consumer uses it to address the
// stage-advanced messages.
func (r *UserRepo) RecipientsFor(ctx context.Context, roles []model.Role) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")
	args := make([]any, len(roles))
	for i, ro := range roles {
		args[i] = string(ro)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT email FROM users WHERE is_active = TRUE AND notify_enabled = TRUE AND role IN (`+ph+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (r *UserRepo) scanUser(row rowScanner, u *model.User) error {
	var (
		role         string
		inviteHash   sql.NullString
		inviteExpiry sql.NullTime
		lastLogin    sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.FirstName, &u.LastName,
		&u.IsActive, &u.NotifyEnabled, &inviteHash, &inviteExpiry, &lastLogin,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return err
	}
	u.Role = model.Role(role)
	if inviteHash.Valid {
		s := inviteHash.String
		u.InviteHash = &s
	}
	if inviteExpiry.Valid {
		t := inviteExpiry.Time
		u.InviteExpiry = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
