package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/rbac"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/workflow"
)

// fakeStore is an in-memory CaseStore with the same stage-guard semantics
// as the MySQL repository: guarded writes fail with ErrStaleCase when the
// case is no longer in the expected stage.
type fakeStore struct {
	nextID   uint64
	cases    map[uint64]*model.Case
	items    map[uint64][]model.Item
	itemsErr error // injected failure for the item write inside SaveReview
}

func newFakeStore() *fakeStore {
	return &fakeStore{cases: map[uint64]*model.Case{}, items: map[uint64][]model.Item{}}
}

func (s *fakeStore) Get(_ context.Context, id uint64) (*model.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return nil, repository.ErrCaseNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) Items(_ context.Context, caseID uint64) ([]model.Item, error) {
	return append([]model.Item(nil), s.items[caseID]...), nil
}

func (s *fakeStore) Create(_ context.Context, c *model.Case) error {
	s.nextID++
	c.ID = s.nextID
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateStageFields(_ context.Context, c *model.Case, stage model.Stage) error {
	cur, ok := s.cases[c.ID]
	if !ok {
		return repository.ErrCaseNotFound
	}
	if cur.WorkflowStatus != stage {
		return repository.ErrStaleCase
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

// SaveReview mirrors the repository's all-or-nothing transaction: when the
// item write fails, the field update is not applied either.
func (s *fakeStore) SaveReview(_ context.Context, c *model.Case, items []model.Item, replaceItems bool) error {
	cur, ok := s.cases[c.ID]
	if !ok {
		return repository.ErrCaseNotFound
	}
	if cur.WorkflowStatus != model.StageTechnicalReview {
		return repository.ErrStaleCase
	}
	if replaceItems && s.itemsErr != nil {
		return s.itemsErr
	}
	cp := *c
	s.cases[c.ID] = &cp
	if replaceItems {
		s.items[c.ID] = append([]model.Item(nil), items...)
	}
	return nil
}

func (s *fakeStore) Advance(_ context.Context, id uint64, from, to model.Stage) error {
	cur, ok := s.cases[id]
	if !ok {
		return repository.ErrCaseNotFound
	}
	if cur.WorkflowStatus != from {
		return repository.ErrStaleCase
	}
	cur.WorkflowStatus = to
	return nil
}

func (s *fakeStore) DeleteInStage(_ context.Context, id uint64, stage model.Stage) error {
	cur, ok := s.cases[id]
	if !ok {
		return repository.ErrCaseNotFound
	}
	if cur.WorkflowStatus != stage {
		return repository.ErrStaleCase
	}
	delete(s.cases, id)
	delete(s.items, id)
	return nil
}

// recordingNotifier records the transitions it was told about and can be
// told to fail, which must never break the operation that triggered it.
type recordingNotifier struct {
	created  []uint64
	advanced []string
	fail     bool
}

func (n *recordingNotifier) CaseCreated(_ context.Context, c *model.Case) error {
	n.created = append(n.created, c.ID)
	if n.fail {
		return errors.New("broker down")
	}
	return nil
}

func (n *recordingNotifier) CaseAdvanced(_ context.Context, _ *model.Case, from, to model.Stage) error {
	n.advanced = append(n.advanced, string(from)+">"+string(to))
	if n.fail {
		return errors.New("broker down")
	}
	return nil
}

func newEngine() (*workflow.Engine, *fakeStore, *recordingNotifier) {
	store := newFakeStore()
	notif := &recordingNotifier{}
	return workflow.New(store, rbac.Defaults(), notif), store, notif
}

// seedIntake creates a case with complete intake data, as support would.
func seedIntake(t *testing.T, e *workflow.Engine) *model.Case {
	t.Helper()
	cust := uint64(7)
	arrival := testNow.AddDate(0, 0, -2)
	method := model.ReceiptHandDelivered
	c, err := e.Create(context.Background(), model.RoleSupport, workflow.IntakePatch{
		CustomerID:    &cust,
		ArrivalDate:   &arrival,
		ReceiptMethod: &method,
	})
	require.NoError(t, err)
	return c
}

// fillReview brings a TECHNICAL_REVIEW case to a gate-passing state.
func fillReview(t *testing.T, e *workflow.Engine, id uint64) {
	t.Helper()
	service := "swapped control board"
	_, err := e.EditTechnicalReview(context.Background(), model.RoleTechnician, id, workflow.ReviewPatch{
		Items:                []model.Item{reviewedItem()},
		PartsCostCents:       ptrI64(5000),
		MaintenanceCostCents: ptrI64(1500),
		LaborCostCents:       ptrI64(2500),
		PerformedService:     &service,
	})
	require.NoError(t, err)
}

func TestEngineCreate(t *testing.T) {
	t.Run("support opens a case in the first stage", func(t *testing.T) {
		e, _, notif := newEngine()
		c := seedIntake(t, e)
		assert.Equal(t, model.StageDelivered, c.WorkflowStatus)
		assert.Equal(t, []uint64{c.ID}, notif.created)
	})

	t.Run("technician cannot open cases", func(t *testing.T) {
		e, _, _ := newEngine()
		_, err := e.Create(context.Background(), model.RoleTechnician, workflow.IntakePatch{})
		assert.ErrorIs(t, err, workflow.ErrDenied)
	})

	t.Run("notifier failure does not fail the create", func(t *testing.T) {
		e, _, notif := newEngine()
		notif.fail = true
		c := seedIntake(t, e)
		assert.NotZero(t, c.ID)
	})
}

func TestEngineFullWalkthrough(t *testing.T) {
	e, _, notif := newEngine()
	ctx := context.Background()
	c := seedIntake(t, e)

	next, err := e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.StageTechnicalReview, next)

	fillReview(t, e, c.ID)
	next, err = e.CompleteStage(ctx, model.RoleTechnician, c.ID, model.StageTechnicalReview)
	require.NoError(t, err)
	assert.Equal(t, model.StagePaymentCollection, next)

	paid := model.PaymentPaid
	_, err = e.EditPaymentCollection(ctx, model.RoleSales, c.ID, workflow.CollectionPatch{PaymentStatus: &paid})
	require.NoError(t, err)
	next, err = e.CompleteStage(ctx, model.RoleSales, c.ID, model.StagePaymentCollection)
	require.NoError(t, err)
	assert.Equal(t, model.StageShipping, next)

	info := "UPS ground, padded crate"
	tracking := "1Z999AA10123456784"
	shipDate := testNow
	_, err = e.EditShipping(ctx, model.RoleLogistics, c.ID, workflow.ShippingPatch{
		ShippingInfo:   &info,
		TrackingNumber: &tracking,
		ShippingDate:   &shipDate,
	})
	require.NoError(t, err)
	next, err = e.CompleteStage(ctx, model.RoleLogistics, c.ID, model.StageShipping)
	require.NoError(t, err)
	assert.Equal(t, model.StageCompleted, next)

	assert.Equal(t, []string{
		"DELIVERED>TECHNICAL_REVIEW",
		"TECHNICAL_REVIEW>PAYMENT_COLLECTION",
		"PAYMENT_COLLECTION>SHIPPING",
		"SHIPPING>COMPLETED",
	}, notif.advanced)

	// COMPLETED is terminal even for roles holding its completion grant.
	_, err = e.CompleteStage(ctx, model.RoleManager, c.ID, model.StageCompleted)
	assert.ErrorIs(t, err, workflow.ErrStateConflict)
}

func TestEngineGateBlocksCompletion(t *testing.T) {
	e, store, notif := newEngine()
	ctx := context.Background()
	c, err := e.Create(ctx, model.RoleSupport, workflow.IntakePatch{})
	require.NoError(t, err)

	_, err = e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
	var ve *workflow.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{"customer", "arrival_date", "receipt_method"}, ve.Missing)

	// The case did not move and nothing was announced.
	got, _ := store.Get(ctx, c.ID)
	assert.Equal(t, model.StageDelivered, got.WorkflowStatus)
	assert.Empty(t, notif.advanced)
}

func TestEngineStageScoping(t *testing.T) {
	e, _, _ := newEngine()
	ctx := context.Background()
	c := seedIntake(t, e)

	t.Run("editing a stage the case has not reached conflicts", func(t *testing.T) {
		paid := model.PaymentPaid
		_, err := e.EditPaymentCollection(ctx, model.RoleSales, c.ID, workflow.CollectionPatch{PaymentStatus: &paid})
		assert.ErrorIs(t, err, workflow.ErrStateConflict)
	})

	t.Run("completing a stage the case is not in conflicts", func(t *testing.T) {
		_, err := e.CompleteStage(ctx, model.RoleTechnician, c.ID, model.StageTechnicalReview)
		assert.ErrorIs(t, err, workflow.ErrStateConflict)
	})

	t.Run("technician cannot edit the payment stage", func(t *testing.T) {
		_, err := e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
		require.NoError(t, err)
		fillReview(t, e, c.ID)
		_, err = e.CompleteStage(ctx, model.RoleTechnician, c.ID, model.StageTechnicalReview)
		require.NoError(t, err)

		paid := model.PaymentPaid
		_, err = e.EditPaymentCollection(ctx, model.RoleTechnician, c.ID, workflow.CollectionPatch{PaymentStatus: &paid})
		assert.ErrorIs(t, err, workflow.ErrDenied)
	})

	t.Run("authorization is checked before existence", func(t *testing.T) {
		_, err := e.EditPaymentCollection(ctx, model.RoleTechnician, 9999, workflow.CollectionPatch{})
		assert.ErrorIs(t, err, workflow.ErrDenied)
	})
}

func TestEngineConcurrentCompletion(t *testing.T) {
	e, store, _ := newEngine()
	ctx := context.Background()
	c := seedIntake(t, e)

	// Simulate the loser of a race: between the load and the advance the
	// case has already moved on.
	_, err := e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
	require.NoError(t, err)
	got, _ := store.Get(ctx, c.ID)
	require.Equal(t, model.StageTechnicalReview, got.WorkflowStatus)

	_, err = e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
	assert.ErrorIs(t, err, workflow.ErrStateConflict)
}

func TestEngineItemReplacement(t *testing.T) {
	e, store, _ := newEngine()
	ctx := context.Background()
	c := seedIntake(t, e)
	_, err := e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
	require.NoError(t, err)

	first := reviewedItem()
	_, err = e.EditTechnicalReview(ctx, model.RoleTechnician, c.ID, workflow.ReviewPatch{Items: []model.Item{first, first}})
	require.NoError(t, err)
	items, _ := store.Items(ctx, c.ID)
	require.Len(t, items, 2)

	// A later save with one item discards the previous two.
	second := reviewedItem()
	second.Quantity = 9
	_, err = e.EditTechnicalReview(ctx, model.RoleTechnician, c.ID, workflow.ReviewPatch{Items: []model.Item{second}})
	require.NoError(t, err)
	items, _ = store.Items(ctx, c.ID)
	require.Len(t, items, 1)
	assert.Equal(t, uint32(9), items[0].Quantity)

	// A save without an items field leaves the list untouched.
	cost := ptrI64(100)
	_, err = e.EditTechnicalReview(ctx, model.RoleTechnician, c.ID, workflow.ReviewPatch{PartsCostCents: cost})
	require.NoError(t, err)
	items, _ = store.Items(ctx, c.ID)
	assert.Len(t, items, 1)
}

func TestEngineReviewEditRollsBackOnItemFailure(t *testing.T) {
	e, store, _ := newEngine()
	ctx := context.Background()
	c := seedIntake(t, e)
	_, err := e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
	require.NoError(t, err)

	store.itemsErr = errors.New("item write rejected")
	service := "swapped control board"
	_, err = e.EditTechnicalReview(ctx, model.RoleTechnician, c.ID, workflow.ReviewPatch{
		Items:            []model.Item{reviewedItem()},
		PartsCostCents:   ptrI64(5000),
		PerformedService: &service,
	})
	require.Error(t, err)

	// Cost fields must not survive the failed edit.
	got, items, err := e.Get(ctx, model.RoleTechnician, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PartsCostCents)
	assert.Empty(t, got.PerformedService)
	assert.Empty(t, items)
}

func TestEngineDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("support deletes a case still in intake", func(t *testing.T) {
		e, store, _ := newEngine()
		c := seedIntake(t, e)
		require.NoError(t, e.Delete(ctx, model.RoleSupport, c.ID))
		_, err := store.Get(ctx, c.ID)
		assert.ErrorIs(t, err, repository.ErrCaseNotFound)
	})

	t.Run("delete after intake is a conflict", func(t *testing.T) {
		e, _, _ := newEngine()
		c := seedIntake(t, e)
		_, err := e.CompleteStage(ctx, model.RoleSupport, c.ID, model.StageDelivered)
		require.NoError(t, err)
		assert.ErrorIs(t, e.Delete(ctx, model.RoleSupport, c.ID), workflow.ErrStateConflict)
	})

	t.Run("only support may delete", func(t *testing.T) {
		e, _, _ := newEngine()
		c := seedIntake(t, e)
		assert.ErrorIs(t, e.Delete(ctx, model.RoleAdmin, c.ID), workflow.ErrDenied)
	})

	t.Run("deleting an unknown case is not found", func(t *testing.T) {
		e, _, _ := newEngine()
		assert.ErrorIs(t, e.Delete(ctx, model.RoleSupport, 404), workflow.ErrNotFound)
	})
}

func TestEngineGetMapsNotFound(t *testing.T) {
	e, _, _ := newEngine()
	_, _, err := e.Get(context.Background(), model.RoleSupport, 12345)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}
