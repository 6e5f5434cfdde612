package workflow

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/repository"
)

// CaseStore is the persistence boundary the engine drives.  Mutating calls
// are stage-guarded compare-and-set operations: the implementation must
// apply them only while the row still sits in the expected stage and return
// repository.ErrStaleCase otherwise, so that two concurrent completions of
// the same case can never both succeed.
type CaseStore interface {
	Get(ctx context.Context, id uint64) (*model.Case, error)
	Items(ctx context.Context, caseID uint64) ([]model.Item, error)
	Create(ctx context.Context, c *model.Case) error
	UpdateStageFields(ctx context.Context, c *model.Case, stage model.Stage) error
	SaveReview(ctx context.Context, c *model.Case, items []model.Item, replaceItems bool) error
	Advance(ctx context.Context, id uint64, from, to model.Stage) error
	DeleteInStage(ctx context.Context, id uint64, stage model.Stage) error
}

// Authorizer decides whether a role holds a permission.  *rbac.Table
// satisfies it.
type Authorizer interface {
	Allowed(role model.Role, perm model.Permission) bool
}

// Notifier is informed after a successful state change.  Calls happen only
// once the change is durably committed; errors are logged by the engine and
// never surface to the caller.
type Notifier interface {
	CaseCreated(ctx context.Context, c *model.Case) error
	CaseAdvanced(ctx context.Context, c *model.Case, from, to model.Stage) error
}

// Engine owns the case workflow.  All operations take the caller's role as
// an explicit argument, never pulled from ambient request state, and
// authorize before loading or mutating anything.
type Engine struct {
	store CaseStore
	auth  Authorizer
	notif Notifier
	now   func() time.Time
}

// New constructs an Engine.  All dependencies must be non-nil.
func New(store CaseStore, auth Authorizer, notif Notifier) *Engine {
	if store == nil || auth == nil || notif == nil {
		panic("nil dependency passed to workflow.New")
	}
	return &Engine{store: store, auth: auth, notif: notif, now: time.Now}
}

// ----- stage patches -----
//
// Each patch carries only the fields its stage owns.  Nil pointer fields
// mean "leave unchanged", so departments can save drafts incrementally.

// IntakePatch edits the DELIVERED stage.
type IntakePatch struct {
	CustomerID    *uint64
	ArrivalDate   *time.Time
	ReceiptMethod *model.ReceiptMethod
	Notes         *string
}

// ReviewPatch edits the TECHNICAL_REVIEW stage.  A non-nil Items slice
// replaces the whole item list; the previous items are discarded.
type ReviewPatch struct {
	Items                []model.Item
	PartsCostCents       *int64
	MaintenanceCostCents *int64
	LaborCostCents       *int64
	PerformedService     *string
}

// CollectionPatch edits the PAYMENT_COLLECTION stage.
type CollectionPatch struct {
	PaymentStatus *model.PaymentStatus
}

// ShippingPatch edits the SHIPPING stage.
type ShippingPatch struct {
	ShippingInfo   *string
	TrackingNumber *string
	ShippingDate   *time.Time
}

// ----- operations -----

// Create opens a new case in DELIVERED with the given intake data.  Only
// roles holding CASE_CREATE (support) may call it.
func (e *Engine) Create(ctx context.Context, role model.Role, patch IntakePatch) (*model.Case, error) {
	if !e.auth.Allowed(role, model.PermCaseCreate) {
		return nil, ErrDenied
	}
	c := &model.Case{WorkflowStatus: model.StageDelivered}
	applyIntake(c, patch)
	if err := e.store.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := e.notif.CaseCreated(ctx, c); err != nil {
		log.Printf("workflow: case %d created notification failed: %v", c.ID, err)
	}
	return c, nil
}

// Get returns one case with its items.
func (e *Engine) Get(ctx context.Context, role model.Role, id uint64) (*model.Case, []model.Item, error) {
	if !e.auth.Allowed(role, model.PermCaseGet) {
		return nil, nil, ErrDenied
	}
	c, err := e.loadCase(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := e.store.Items(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return c, items, nil
}

// EditDelivered updates the intake fields.  The case must currently be in
// DELIVERED; edits to a stage the case has left (or not reached) are
// rejected without touching the row.
func (e *Engine) EditDelivered(ctx context.Context, role model.Role, id uint64, patch IntakePatch) (*model.Case, error) {
	c, err := e.loadForEdit(ctx, role, id, model.StageDelivered)
	if err != nil {
		return nil, err
	}
	applyIntake(c, patch)
	if err := e.saveStage(ctx, c, model.StageDelivered); err != nil {
		return nil, err
	}
	return c, nil
}

// EditTechnicalReview updates the review fields and, when the patch carries
// items, replaces the whole item list in the same write. The store commits
// fields and items together, so a rejected item list leaves the cost
// columns untouched.
func (e *Engine) EditTechnicalReview(ctx context.Context, role model.Role, id uint64, patch ReviewPatch) (*model.Case, error) {
	c, err := e.loadForEdit(ctx, role, id, model.StageTechnicalReview)
	if err != nil {
		return nil, err
	}
	if patch.PartsCostCents != nil {
		c.PartsCostCents = patch.PartsCostCents
	}
	if patch.MaintenanceCostCents != nil {
		c.MaintenanceCostCents = patch.MaintenanceCostCents
	}
	if patch.LaborCostCents != nil {
		c.LaborCostCents = patch.LaborCostCents
	}
	if patch.PerformedService != nil {
		c.PerformedService = *patch.PerformedService
	}
	if err := e.store.SaveReview(ctx, c, patch.Items, patch.Items != nil); err != nil {
		return nil, e.mapStoreErr(err)
	}
	return c, nil
}

// EditPaymentCollection updates the payment status while the case is in
// PAYMENT_COLLECTION.
func (e *Engine) EditPaymentCollection(ctx context.Context, role model.Role, id uint64, patch CollectionPatch) (*model.Case, error) {
	c, err := e.loadForEdit(ctx, role, id, model.StagePaymentCollection)
	if err != nil {
		return nil, err
	}
	if patch.PaymentStatus != nil {
		c.PaymentStatus = *patch.PaymentStatus
	}
	if err := e.saveStage(ctx, c, model.StagePaymentCollection); err != nil {
		return nil, err
	}
	return c, nil
}

// EditShipping updates the shipping fields while the case is in SHIPPING.
func (e *Engine) EditShipping(ctx context.Context, role model.Role, id uint64, patch ShippingPatch) (*model.Case, error) {
	c, err := e.loadForEdit(ctx, role, id, model.StageShipping)
	if err != nil {
		return nil, err
	}
	if patch.ShippingInfo != nil {
		c.ShippingInfo = *patch.ShippingInfo
	}
	if patch.TrackingNumber != nil {
		c.TrackingNumber = *patch.TrackingNumber
	}
	if patch.ShippingDate != nil {
		c.ShippingDate = patch.ShippingDate
	}
	if err := e.saveStage(ctx, c, model.StageShipping); err != nil {
		return nil, err
	}
	return c, nil
}

// CompleteStage closes the given stage and advances the case to the next
// one.  It requires the stage's completion permission, the case to be in
// exactly that stage, and the stage gate to pass.  COMPLETED is terminal:
// completing it always fails with a state conflict.  The advance itself is
// a compare-and-set on workflow_status, so a concurrent completion loses
// with ErrStateConflict instead of double-advancing.
func (e *Engine) CompleteStage(ctx context.Context, role model.Role, id uint64, stage model.Stage) (model.Stage, error) {
	perm, ok := model.CompletePermission(stage)
	if !ok {
		return "", ErrStateConflict
	}
	if !e.auth.Allowed(role, perm) {
		return "", ErrDenied
	}
	c, err := e.loadCase(ctx, id)
	if err != nil {
		return "", err
	}
	if c.WorkflowStatus != stage {
		return "", ErrStateConflict
	}
	next, ok := stage.Next()
	if !ok {
		return "", ErrStateConflict
	}
	items, err := e.store.Items(ctx, id)
	if err != nil {
		return "", err
	}
	if ok, missing := CanComplete(c, items, stage, e.now()); !ok {
		return "", &ValidationError{Stage: string(stage), Missing: missing}
	}
	if err := e.store.Advance(ctx, id, stage, next); err != nil {
		return "", e.mapStoreErr(err)
	}
	c.WorkflowStatus = next
	if err := e.notif.CaseAdvanced(ctx, c, stage, next); err != nil {
		log.Printf("workflow: case %d advance notification failed: %v", id, err)
	}
	return next, nil
}

// Delete removes a case and, through the cascade, its items.  Deletion is
// allowed only for support and only while the case is still in DELIVERED;
// once downstream departments have invested work the case is permanent.
func (e *Engine) Delete(ctx context.Context, role model.Role, id uint64) error {
	if role != model.RoleSupport || !e.auth.Allowed(role, model.PermCaseDelete) {
		return ErrDenied
	}
	c, err := e.loadCase(ctx, id)
	if err != nil {
		return err
	}
	if c.WorkflowStatus != model.StageDelivered {
		return ErrStateConflict
	}
	if err := e.store.DeleteInStage(ctx, id, model.StageDelivered); err != nil {
		return e.mapStoreErr(err)
	}
	return nil
}

// ----- helpers -----

func (e *Engine) loadForEdit(ctx context.Context, role model.Role, id uint64, stage model.Stage) (*model.Case, error) {
	perm, ok := model.EditPermission(stage)
	if !ok {
		return nil, ErrStateConflict
	}
	if !e.auth.Allowed(role, perm) {
		return nil, ErrDenied
	}
	c, err := e.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.WorkflowStatus != stage {
		return nil, ErrStateConflict
	}
	return c, nil
}

func (e *Engine) loadCase(ctx context.Context, id uint64) (*model.Case, error) {
	c, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, e.mapStoreErr(err)
	}
	return c, nil
}

func (e *Engine) saveStage(ctx context.Context, c *model.Case, stage model.Stage) error {
	if err := e.store.UpdateStageFields(ctx, c, stage); err != nil {
		return e.mapStoreErr(err)
	}
	return nil
}

// mapStoreErr translates repository sentinels into workflow errors so that
// handlers only ever deal with the workflow taxonomy.
func (e *Engine) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrCaseNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleCase):
		return ErrStateConflict
	default:
		return err
	}
}

func applyIntake(c *model.Case, patch IntakePatch) {
	if patch.CustomerID != nil {
		c.CustomerID = *patch.CustomerID
	}
	if patch.ArrivalDate != nil {
		c.ArrivalDate = patch.ArrivalDate
	}
	if patch.ReceiptMethod != nil {
		c.ReceiptMethod = *patch.ReceiptMethod
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
}
