package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/centa/return-tracker/internal/model"
)

// ProductRepo provides CRUD operations for the product-model catalog.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// Create inserts a product model and populates the generated id.
func (r *ProductRepo) Create(ctx context.Context, p *model.ProductModel) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO product_models (name, product_type) VALUES (?, ?)`,
		p.Name, string(p.ProductType))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Get fetches one product model by id.
func (r *ProductRepo) Get(ctx context.Context, id uint64) (*model.ProductModel, error) {
	var (
		p  model.ProductModel
		pt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, product_type, created_at, updated_at FROM product_models WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &pt, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ProductType = model.ProductType(pt)
	return &p, nil
}

// Update overwrites name and type of a product model.
func (r *ProductRepo) Update(ctx context.Context, p *model.ProductModel) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE product_models SET name = ?, product_type = ? WHERE id = ?`,
		p.Name, string(p.ProductType), p.ID)
	return err
}

// Delete removes a product model unless case items still reference it.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM case_items WHERE product_model_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_models WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// List returns product models filtered by name substring and/or type.
func (r *ProductRepo) List(ctx context.Context, search string, ptype model.ProductType) ([]model.ProductModel, error) {
	where := []string{}
	args := []any{}
	if search != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	if ptype != "" {
		where = append(where, "product_type = ?")
		args = append(args, string(ptype))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, product_type, created_at, updated_at
		 FROM product_models WHERE `+cond+` ORDER BY name ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ProductModel{}
	for rows.Next() {
		var (
			p  model.ProductModel
			pt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &pt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.ProductType = model.ProductType(pt)
		out = append(out, p)
	}
	return out, rows.Err()
}
