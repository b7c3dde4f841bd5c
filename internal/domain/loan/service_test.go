package loan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/config"
	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/domain/schedule"
	"lending-engine/internal/pkg/apperrors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, l *Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Loan), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, l *Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context) ([]*Loan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*Loan), args.Error(1)
}

func (m *MockRepository) ListByCustomer(ctx context.Context, customerID string) ([]*Loan, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]*Loan), args.Error(1)
}

func (m *MockRepository) ListByStatus(ctx context.Context, status Status) ([]*Loan, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]*Loan), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, name, email, phone, address, reference string) (*customer.Customer, error) {
	args := m.Called(ctx, name, email, phone, address, reference)
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Get(ctx context.Context, customerID string) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, customerID string, updates customer.UpdateInput) (*customer.Customer, error) {
	args := m.Called(ctx, customerID, updates)
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) ToggleStatus(ctx context.Context, customerID string) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(*customer.Customer), args.Error(1)
}

type stubAuditRepo struct{}

func (stubAuditRepo) Append(context.Context, audit.Entry) error { return nil }
func (stubAuditRepo) List(context.Context) ([]audit.Entry, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, repo Repository, customers customer.Service) Service {
	t.Helper()
	catalog, err := pricing.NewCatalog([]config.ProductConfig{
		{Code: "REGULAR", Label: "Regular Loan", Rate: 3, Cap: 300000},
		{Code: "MULTI", Label: "Multi-Purpose Loan", Rate: 0, Cap: 15000, FeePercent: 2.5},
	})
	require.NoError(t, err)
	calculator, err := schedule.NewCalculator(4.345)
	require.NoError(t, err)

	recorder := audit.NewRecorder(stubAuditRepo{}, testLogger())
	t.Cleanup(recorder.Close)

	return NewService(repo, customers, catalog, calculator, recorder, nil, testLogger())
}

func activeCustomer(id string) *customer.Customer {
	return &customer.Customer{ID: id, Name: "Maria Santos", Status: customer.StatusActive}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	mockCustomers := new(MockCustomerService)
	svc := newTestService(t, mockRepo, mockCustomers)

	mockCustomers.On("Get", ctx, "cust-1").Return(activeCustomer("cust-1"), nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*loan.Loan")).Return(nil)

	created, err := svc.Create(ctx, "cust-1", "regular", decimal.NewFromInt(25000), 12)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "REGULAR", created.ProductCode)

	mockRepo.AssertExpectations(t)
	mockCustomers.AssertExpectations(t)
}

func TestService_Create_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	mockCustomers := new(MockCustomerService)
	svc := newTestService(t, mockRepo, mockCustomers)

	mockCustomers.On("Get", ctx, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Create(ctx, "ghost", "REGULAR", decimal.NewFromInt(1000), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "unknown customer is a validation error, got %v", err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_DisabledCustomer(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	mockCustomers := new(MockCustomerService)
	svc := newTestService(t, mockRepo, mockCustomers)

	disabled := &customer.Customer{ID: "cust-2", Name: "Jose Cruz", Status: customer.StatusDisabled}
	mockCustomers.On("Get", ctx, "cust-2").Return(disabled, nil)

	_, err := svc.Create(ctx, "cust-2", "REGULAR", decimal.NewFromInt(1000), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestService_Create_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	mockCustomers := new(MockCustomerService)
	svc := newTestService(t, mockRepo, mockCustomers)

	mockCustomers.On("Get", ctx, "cust-1").Return(activeCustomer("cust-1"), nil)

	_, err := svc.Create(ctx, "cust-1", "PAYDAY", decimal.NewFromInt(1000), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestService_HasActiveLoan(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	mockRepo.On("ListByCustomer", ctx, "cust-1").Return([]*Loan{
		{ID: "l1", Status: StatusPaid},
		{ID: "l2", Status: StatusActive},
	}, nil).Once()

	has, err := svc.HasActiveLoan(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, has)

	mockRepo.On("ListByCustomer", ctx, "cust-2").Return([]*Loan{
		{ID: "l3", Status: StatusPending},
	}, nil).Once()

	has, err = svc.HasActiveLoan(ctx, "cust-2")
	require.NoError(t, err)
	assert.False(t, has, "Pending loans do not count as active")
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	pending, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(1000), 4)
	require.NoError(t, err)

	mockRepo.On("GetByID", ctx, pending.ID).Return(pending, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*loan.Loan")).Return(nil)

	approved, err := svc.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, approved.Status)
	mockRepo.AssertExpectations(t)
}

func TestService_Approve_NotPending(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	active, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(1000), 4)
	require.NoError(t, err)
	require.NoError(t, active.Approve())

	mockRepo.On("GetByID", ctx, active.ID).Return(active, nil)

	_, err = svc.Approve(ctx, active.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_ApplyPayment_HookFailureRestoresBalance(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	active, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(1000), 4)
	require.NoError(t, err)
	require.NoError(t, active.Approve())

	mockRepo.On("GetByID", ctx, active.ID).Return(active, nil)
	var persisted []decimal.Decimal
	mockRepo.On("Update", ctx, mock.AnythingOfType("*loan.Loan")).Run(func(args mock.Arguments) {
		persisted = append(persisted, args.Get(1).(*Loan).RemainingBalance)
	}).Return(nil)

	hookErr := errors.New("ledger append failed")
	_, err = svc.ApplyPayment(ctx, active.ID, decimal.NewFromInt(400), func(*Loan) error {
		return hookErr
	})
	require.ErrorIs(t, err, hookErr)

	// The decremented balance was written and then written back.
	require.Len(t, persisted, 2)
	assert.True(t, persisted[0].Equal(decimal.NewFromInt(600)))
	assert.True(t, persisted[1].Equal(decimal.NewFromInt(1000)))
}

func TestService_ApplyPayment_PersistFailureSkipsHook(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	active, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(1000), 4)
	require.NoError(t, err)
	require.NoError(t, active.Approve())

	mockRepo.On("GetByID", ctx, active.ID).Return(active, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*loan.Loan")).Return(errors.New("connection reset"))

	hookRan := false
	_, err = svc.ApplyPayment(ctx, active.ID, decimal.NewFromInt(400), func(*Loan) error {
		hookRan = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInternalServer))
	assert.False(t, hookRan, "side effect must not run when the balance write fails")
}

func TestService_ApplyPayment_HookSeesProspectiveState(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	active, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(1000), 4)
	require.NoError(t, err)
	require.NoError(t, active.Approve())

	mockRepo.On("GetByID", ctx, active.ID).Return(active, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*loan.Loan")).Return(nil)

	var seenBalance decimal.Decimal
	var seenStatus Status
	updated, err := svc.ApplyPayment(ctx, active.ID, decimal.NewFromInt(1000), func(prospective *Loan) error {
		seenBalance = prospective.RemainingBalance
		seenStatus = prospective.Status
		return nil
	})
	require.NoError(t, err)

	assert.True(t, seenBalance.IsZero(), "hook must observe the post-payment balance")
	assert.Equal(t, StatusPaid, seenStatus)
	assert.Equal(t, StatusPaid, updated.Status)
	mockRepo.AssertExpectations(t)
}

func TestService_EditTerms_RepricesPendingLoan(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	pending, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(25000), 12)
	require.NoError(t, err)

	mockRepo.On("GetByID", ctx, pending.ID).Return(pending, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*loan.Loan")).Return(nil)

	newProduct := "MULTI"
	newPrincipal := decimal.NewFromInt(10000)
	newTerm := 8
	updated, err := svc.EditTerms(ctx, pending.ID, EditTermsInput{
		ProductCode: &newProduct,
		Principal:   &newPrincipal,
		TermWeeks:   &newTerm,
	})
	require.NoError(t, err)

	assert.Equal(t, "MULTI", updated.ProductCode)
	assert.True(t, updated.OriginationFee.Equal(decimal.NewFromInt(250)), "fee must be re-derived")
	assert.True(t, updated.NetProceeds.Equal(decimal.NewFromInt(9750)))
	assert.True(t, updated.RemainingBalance.Equal(newPrincipal))
	assert.Equal(t, StatusPending, updated.Status)
}

func TestService_EditTerms_RejectsNonPending(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	active, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(1000), 4)
	require.NoError(t, err)
	require.NoError(t, active.Approve())

	mockRepo.On("GetByID", ctx, active.ID).Return(active, nil)

	newTerm := 8
	_, err = svc.EditTerms(ctx, active.ID, EditTermsInput{TermWeeks: &newTerm})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_EditTerms_RejectsCapViolation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	pending, err := NewLoan("cust-1", regularProduct, decimal.NewFromInt(10000), 12)
	require.NoError(t, err)

	mockRepo.On("GetByID", ctx, pending.ID).Return(pending, nil)

	newProduct := "MULTI"
	newPrincipal := decimal.NewFromInt(20000)
	_, err = svc.EditTerms(ctx, pending.ID, EditTermsInput{ProductCode: &newProduct, Principal: &newPrincipal})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestService_ScheduleFor_UsesStoredTerms(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	l, err := NewLoan("cust-1", multiProduct, decimal.NewFromInt(6000), 6)
	require.NoError(t, err)
	mockRepo.On("GetByID", ctx, l.ID).Return(l, nil)

	rows, err := svc.ScheduleFor(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.True(t, rows[0].InterestPortion.IsZero(), "zero-rate product amortizes flat")
	assert.True(t, rows[5].BalanceAfter.IsZero())
}

func TestService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	svc := newTestService(t, mockRepo, new(MockCustomerService))

	mockRepo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
