package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/centa/return-tracker/internal/model"
)

// CustomerRepo provides CRUD operations for the customer catalog.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = `id, name, representative, contact_info, address, created_at, updated_at`

// Create inserts a customer and populates the generated id.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (name, representative, contact_info, address) VALUES (?, ?, ?, ?)`,
		c.Name, c.Representative, c.ContactInfo, c.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Get fetches one customer by id.
func (r *CustomerRepo) Get(ctx context.Context, id uint64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Representative, &c.ContactInfo, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update overwrites the mutable fields of a customer.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, representative = ?, contact_info = ?, address = ? WHERE id = ?`,
		c.Name, c.Representative, c.ContactInfo, c.Address, c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-op update, so confirm existence.
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, c.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrCustomerNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a customer.  Customers referenced by cases cannot be
// deleted; the foreign key restriction surfaces as ErrConflict.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases WHERE customer_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// List returns a paginated, name-filtered page of customers plus the total
// page count.
func (r *CustomerRepo) List(ctx context.Context, search string, page, size int) ([]model.Customer, int, error) {
	cond := "1=1"
	args := []any{}
	if search != "" {
		cond = "LOWER(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+cond+` ORDER BY name ASC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Representative, &c.ContactInfo, &c.Address,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return out, totalPages, nil
}
