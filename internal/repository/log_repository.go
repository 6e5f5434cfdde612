package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/centa/return-tracker/internal/model"
)

// ActionLog is one audit entry: who did what, optionally to which case.
// UserName is denormalized from the users table at read time so the list
// view can show a display name even for long-gone accounts.
type ActionLog struct {
	ID        uint64       `json:"id"`
	UserEmail string       `json:"user_email"`
	UserName  string       `json:"user_name"`
	CaseID    *uint64      `json:"case_id"`
	Action    model.Action `json:"action"`
	Detail    string       `json:"detail"`
	CreatedAt time.Time    `json:"created_at"`
}

// LogQuery filters the audit trail.  Search matches the actor's email and
// name plus the detail text, case-insensitively.
type LogQuery struct {
	Search   string
	Page     int
	PageSize int
}

// LogRepo appends to and reads the audit trail.
type LogRepo struct {
	db *sql.DB
}

// NewLogRepo returns a LogRepo bound to the given database.
func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

// Record appends one audit entry.
func (r *LogRepo) Record(ctx context.Context, entry ActionLog) error {
	var caseID any
	if entry.CaseID != nil {
		caseID = *entry.CaseID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_logs (user_email, case_id, action, detail) VALUES (?, ?, ?, ?)`,
		entry.UserEmail, caseID, string(entry.Action), entry.Detail)
	return err
}

// List returns a page of audit entries, newest first, plus the total number
// of rows matching the same filter across all pages.
func (r *LogRepo) List(ctx context.Context, q LogQuery) ([]ActionLog, int, error) {
	cond := "1=1"
	args := []any{}
	if q.Search != "" {
		cond = `(LOWER(l.user_email) LIKE ? OR LOWER(u.first_name) LIKE ?
			OR LOWER(u.last_name) LIKE ? OR LOWER(l.detail) LIKE ?)`
		pat := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, pat, pat, pat, pat)
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM action_logs l
		LEFT JOIN users u ON u.email = l.user_email
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = 20
	}
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, `SELECT l.id, l.user_email,
			TRIM(CONCAT(COALESCE(u.first_name, ''), ' ', COALESCE(u.last_name, ''))),
			l.case_id, l.action, l.detail, l.created_at
		FROM action_logs l
		LEFT JOIN users u ON u.email = l.user_email
		WHERE `+cond+`
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []ActionLog{}
	for rows.Next() {
		var (
			e      ActionLog
			caseID sql.NullInt64
			action string
		)
		if err := rows.Scan(&e.ID, &e.UserEmail, &e.UserName, &caseID, &action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if caseID.Valid {
			id := uint64(caseID.Int64)
			e.CaseID = &id
		}
		e.Action = model.Action(action)
		if e.UserName == "" {
			e.UserName = e.UserEmail
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}
