package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/infrastructure/memory"
	"lending-engine/internal/pkg/apperrors"
)

func newCustomerService(t *testing.T) customer.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(memory.NewAuditRepository(), logger)
	t.Cleanup(recorder.Close)
	return customer.NewService(memory.NewCustomerRepository(), recorder, logger)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService(t)

	cust, err := svc.Create(ctx, "  Maria Santos  ", "maria@example.com", "0917-555-0101", "Brgy. San Isidro", "Fr. Domingo")
	require.NoError(t, err)

	assert.NotEmpty(t, cust.ID)
	assert.Equal(t, "Maria Santos", cust.Name, "names are trimmed")
	assert.Equal(t, customer.StatusActive, cust.Status)

	fetched, err := svc.Get(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, cust.ID, fetched.ID)
}

func TestService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService(t)

	_, err := svc.Create(ctx, "", "", "", "", "Fr. Domingo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.Create(ctx, "Maria Santos", "", "", "", "  ")
	require.Error(t, err, "a reference is mandatory")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService(t)

	_, err := svc.Get(ctx, "no-such-customer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService(t)

	cust, err := svc.Create(ctx, "Maria Santos", "maria@example.com", "", "", "Fr. Domingo")
	require.NoError(t, err)

	phone := "0917-555-0202"
	updated, err := svc.Update(ctx, cust.ID, customer.UpdateInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "0917-555-0202", updated.Phone)
	assert.Equal(t, "Maria Santos", updated.Name, "fields not in the input stay untouched")
	assert.Equal(t, "maria@example.com", updated.Email)
}

func TestService_Update_RejectsEmptyRequiredFields(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService(t)

	cust, err := svc.Create(ctx, "Maria Santos", "", "", "", "Fr. Domingo")
	require.NoError(t, err)

	empty := "  "
	_, err = svc.Update(ctx, cust.ID, customer.UpdateInput{Name: &empty})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.Update(ctx, cust.ID, customer.UpdateInput{Reference: &empty})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestService_ToggleStatus(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService(t)

	cust, err := svc.Create(ctx, "Maria Santos", "", "", "", "Fr. Domingo")
	require.NoError(t, err)

	disabled, err := svc.ToggleStatus(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusDisabled, disabled.Status)

	restored, err := svc.ToggleStatus(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusActive, restored.Status)
}
