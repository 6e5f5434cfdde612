package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/centa/return-tracker/internal/model"
)

// CaseRepo provides persistence for return cases and their items.  Items
// are owned by the case (ownership-by-id): they are read and replaced as a
// batch keyed by case id and the schema cascade-deletes them with their
// parent, so no separate item repository exists.
//
// Every mutating method is guarded by the stage the caller read: the
// UPDATE/DELETE carries "AND workflow_status = ?" and zero affected rows
// means the case moved on underneath the caller (ErrStaleCase).  That is
// the whole concurrency story; no row is ever half-written.
type CaseRepo struct {
	db *sql.DB
}

// NewCaseRepo returns a CaseRepo bound to the given database.
func NewCaseRepo(db *sql.DB) *CaseRepo { return &CaseRepo{db: db} }

// DB exposes the underlying handle for transaction scoping by callers that
// need it (seeding, tests).
func (r *CaseRepo) DB() *sql.DB { return r.db }

const caseColumns = `id, workflow_status, customer_id, arrival_date, receipt_method, notes,
	parts_cost_cents, maintenance_cost_cents, labor_cost_cents, performed_service,
	payment_status, shipping_info, tracking_number, shipping_date, created_at, updated_at`

// Create inserts a new case in DELIVERED and populates the generated id
// and timestamps on the provided struct.
func (r *CaseRepo) Create(ctx context.Context, c *model.Case) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cases (workflow_status, customer_id, arrival_date, receipt_method, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		string(c.WorkflowStatus), nullableID(c.CustomerID), nullableDate(c.ArrivalDate),
		nullableStr(string(c.ReceiptMethod)), c.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	loaded, err := r.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// Get fetches one case by id.
func (r *CaseRepo) Get(ctx context.Context, id uint64) (*model.Case, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, ErrCaseNotFound
	}
	return c, err
}

// Items returns the items belonging to a case, oldest first.
func (r *CaseRepo) Items(ctx context.Context, caseID uint64) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_id, product_model_id, quantity, production_period, warranty_status,
				fault_source, resolution, has_control_unit, cable_checked, profile_checked,
				packaged, created_at
		 FROM case_items WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.CaseID, &it.ProductModelID, &it.Quantity,
			&it.ProductionPeriod, &it.WarrantyStatus, &it.FaultSource, &it.Resolution,
			&it.HasControlUnit, &it.CableChecked, &it.ProfileChecked, &it.Packaged,
			&it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateStageFields persists only the columns owned by the given stage,
// guarded by the case still being in that stage. The technical review
// stage goes through SaveReview instead because its columns and items
// must land together.
func (r *CaseRepo) UpdateStageFields(ctx context.Context, c *model.Case, stage model.Stage) error {
	var (
		set  string
		args []any
	)
	switch stage {
	case model.StageDelivered:
		set = `customer_id = ?, arrival_date = ?, receipt_method = ?, notes = ?`
		args = []any{nullableID(c.CustomerID), nullableDate(c.ArrivalDate),
			nullableStr(string(c.ReceiptMethod)), c.Notes}
	case model.StagePaymentCollection:
		set = `payment_status = ?`
		args = []any{nullableStr(string(c.PaymentStatus))}
	case model.StageShipping:
		set = `shipping_info = ?, tracking_number = ?, shipping_date = ?`
		args = []any{c.ShippingInfo, c.TrackingNumber, nullableDate(c.ShippingDate)}
	default:
		return ErrStaleCase
	}
	args = append(args, c.ID, string(stage))
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET `+set+` WHERE id = ? AND workflow_status = ?`, args...)
	if err != nil {
		return err
	}
	return r.checkGuard(ctx, res, c.ID)
}

// SaveReview persists the technical review in one transaction: the cost
// and service columns plus, when replaceItems is set, the whole item list.
// The row lock taken by the stage check keeps a concurrent completion from
// advancing the case mid-save, and a failed item write rolls back the
// column update with it so the case never carries half an edit.
func (r *CaseRepo) SaveReview(ctx context.Context, c *model.Case, items []model.Item, replaceItems bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT workflow_status FROM cases WHERE id = ? FOR UPDATE`, c.ID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrCaseNotFound
	}
	if err != nil {
		return err
	}
	if model.Stage(status) != model.StageTechnicalReview {
		return ErrStaleCase
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE cases SET parts_cost_cents = ?, maintenance_cost_cents = ?,
			labor_cost_cents = ?, performed_service = ? WHERE id = ?`,
		c.PartsCostCents, c.MaintenanceCostCents, c.LaborCostCents,
		c.PerformedService, c.ID)
	if err != nil {
		return err
	}

	if replaceItems {
		if _, err := tx.ExecContext(ctx, `DELETE FROM case_items WHERE case_id = ?`, c.ID); err != nil {
			return err
		}
		if len(items) > 0 {
			query := `INSERT INTO case_items (case_id, product_model_id, quantity, production_period,
				warranty_status, fault_source, resolution, has_control_unit, cable_checked,
				profile_checked, packaged) VALUES `
			args := make([]any, 0, len(items)*11)
			for i, it := range items {
				if i > 0 {
					query += ","
				}
				query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
				args = append(args, c.ID, it.ProductModelID, it.Quantity, it.ProductionPeriod,
					string(it.WarrantyStatus), string(it.FaultSource), string(it.Resolution),
					it.HasControlUnit, it.CableChecked, it.ProfileChecked, it.Packaged)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Advance moves workflow_status from one stage to the next as a single
// compare-and-set.  A lost race surfaces as ErrStaleCase.
func (r *CaseRepo) Advance(ctx context.Context, id uint64, from, to model.Stage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET workflow_status = ? WHERE id = ? AND workflow_status = ?`,
		string(to), id, string(from))
	if err != nil {
		return err
	}
	return r.checkGuard(ctx, res, id)
}

// DeleteInStage removes a case while it is still in the given stage.  Items
// go with it via the schema's ON DELETE CASCADE.
func (r *CaseRepo) DeleteInStage(ctx context.Context, id uint64, stage model.Stage) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cases WHERE id = ? AND workflow_status = ?`, id, string(stage))
	if err != nil {
		return err
	}
	return r.checkGuard(ctx, res, id)
}

// checkGuard turns a zero-row guarded write into the right sentinel: the
// case either vanished or changed stage.
func (r *CaseRepo) checkGuard(ctx context.Context, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM cases WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrCaseNotFound
	}
	if err != nil {
		return err
	}
	return ErrStaleCase
}

// ----- listing -----

// CaseQuery defines filters and pagination for the case list.
type CaseQuery struct {
	Customer      string // substring match on customer name
	Status        model.Stage
	ArrivalFrom   *time.Time
	ArrivalTo     *time.Time
	ReceiptMethod model.ReceiptMethod
	ProductModel  uint64            // match cases containing an item of this model
	ProductType   model.ProductType // match cases containing an item of this type
	Page          int
	PageSize      int
}

// CaseRow is one row of the case list, joined with the customer name for
// display.
type CaseRow struct {
	ID             uint64    `json:"id"`
	WorkflowStatus string    `json:"workflow_status"`
	CustomerID     uint64    `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	ArrivalDate    *string   `json:"arrival_date"`
	ReceiptMethod  *string   `json:"receipt_method"`
	PaymentStatus  *string   `json:"payment_status"`
	ItemCount      uint32    `json:"item_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// List returns a filtered, paginated page of cases plus the total number of
// rows matching the same filters across all pages.
func (r *CaseRepo) List(ctx context.Context, q CaseQuery) ([]CaseRow, int, error) {
	where := []string{}
	args := []any{}

	if q.Customer != "" {
		where = append(where, "LOWER(cu.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Customer)+"%")
	}
	if q.Status != "" {
		where = append(where, "c.workflow_status = ?")
		args = append(args, string(q.Status))
	}
	if q.ArrivalFrom != nil {
		where = append(where, "c.arrival_date >= ?")
		args = append(args, q.ArrivalFrom.Format("2006-01-02"))
	}
	if q.ArrivalTo != nil {
		where = append(where, "c.arrival_date <= ?")
		args = append(args, q.ArrivalTo.Format("2006-01-02"))
	}
	if q.ReceiptMethod != "" {
		where = append(where, "c.receipt_method = ?")
		args = append(args, string(q.ReceiptMethod))
	}
	if q.ProductModel != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM case_items ci WHERE ci.case_id = c.id AND ci.product_model_id = ?)")
		args = append(args, q.ProductModel)
	}
	if q.ProductType != "" {
		where = append(where, `EXISTS (SELECT 1 FROM case_items ci
			JOIN product_models pm ON pm.id = ci.product_model_id
			WHERE ci.case_id = c.id AND pm.product_type = ?)`)
		args = append(args, string(q.ProductType))
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM cases c
		LEFT JOIN customers cu ON cu.id = c.customer_id
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
	limit := size
	offset := (page - 1) * size

	dataSQL := `SELECT
			c.id,
			c.workflow_status,
			COALESCE(c.customer_id, 0),
			COALESCE(cu.name, ''),
			DATE_FORMAT(c.arrival_date, '%Y-%m-%d'),
			c.receipt_method,
			c.payment_status,
			(SELECT COUNT(*) FROM case_items ci WHERE ci.case_id = c.id),
			c.created_at,
			c.updated_at
		FROM cases c
		LEFT JOIN customers cu ON cu.id = c.customer_id
		WHERE ` + cond + `
		ORDER BY c.id DESC
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)
	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]CaseRow, 0, limit)
	for rows.Next() {
		var (
			row           CaseRow
			arrival       sql.NullString
			receipt       sql.NullString
			paymentStatus sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.WorkflowStatus, &row.CustomerID, &row.CustomerName,
			&arrival, &receipt, &paymentStatus, &row.ItemCount, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if arrival.Valid {
			row.ArrivalDate = &arrival.String
		}
		if receipt.Valid {
			row.ReceiptMethod = &receipt.String
		}
		if paymentStatus.Valid {
			row.PaymentStatus = &paymentStatus.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, int(total), nil
}

// ----- scan helpers -----

type rowScanner interface{ Scan(dest ...any) error }

func scanCase(row rowScanner) (*model.Case, error) {
	var (
		c          model.Case
		status     string
		customerID sql.NullInt64
		arrival    sql.NullTime
		receipt    sql.NullString
		payment    sql.NullString
		shipDate   sql.NullTime
	)
	err := row.Scan(&c.ID, &status, &customerID, &arrival, &receipt, &c.Notes,
		&c.PartsCostCents, &c.MaintenanceCostCents, &c.LaborCostCents, &c.PerformedService,
		&payment, &c.ShippingInfo, &c.TrackingNumber, &shipDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.WorkflowStatus = model.Stage(status)
	if customerID.Valid {
		c.CustomerID = uint64(customerID.Int64)
	}
	if arrival.Valid {
		d := arrival.Time
		c.ArrivalDate = &d
	}
	if receipt.Valid {
		c.ReceiptMethod = model.ReceiptMethod(receipt.String)
	}
	if payment.Valid {
		c.PaymentStatus = model.PaymentStatus(payment.String)
	}
	if shipDate.Valid {
		d := shipDate.Time
		c.ShippingDate = &d
	}
	return &c, nil
}

func nullableID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
