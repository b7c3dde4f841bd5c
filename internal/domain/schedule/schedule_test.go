package schedule

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/pkg/apperrors"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(4.345)
	require.NoError(t, err)
	return calc
}

func TestNewCalculator_RejectsNonPositiveWeeksPerMonth(t *testing.T) {
	_, err := NewCalculator(0)
	require.Error(t, err)

	_, err = NewCalculator(-1)
	require.Error(t, err)
}

func TestCalculator_Build_FlatSchedule(t *testing.T) {
	calc := newTestCalculator(t)

	rows, err := calc.Build(decimal.NewFromInt(5000), decimal.Zero, 6, true)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	// 5000 / 6 = 833.33 with the remainder settled on the final row.
	for _, row := range rows[:5] {
		assert.True(t, row.Payment.Equal(decimal.RequireFromString("833.33")),
			"period %d payment %s", row.Period, row.Payment)
		assert.True(t, row.InterestPortion.IsZero())
	}

	last := rows[5]
	assert.True(t, last.BalanceAfter.IsZero(), "final balance %s", last.BalanceAfter)

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Payment)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(5000)), "total %s", total)
}

func TestCalculator_Build_ReducingSchedule(t *testing.T) {
	calc := newTestCalculator(t)

	principal := decimal.NewFromInt(25000)
	rows, err := calc.Build(principal, decimal.NewFromInt(3), 12, false)
	require.NoError(t, err)
	require.Len(t, rows, 12)

	prev := principal
	for _, row := range rows {
		assert.True(t, row.BalanceAfter.LessThan(prev),
			"period %d balance did not decrease: %s -> %s", row.Period, prev, row.BalanceAfter)
		assert.True(t, row.Payment.Equal(row.PrincipalPortion.Add(row.InterestPortion)),
			"period %d payment does not split cleanly", row.Period)
		prev = row.BalanceAfter
	}

	last := rows[len(rows)-1]
	assert.True(t, last.BalanceAfter.IsZero(), "final balance %s", last.BalanceAfter)

	// Interest accrues on the outstanding balance, so it declines over time.
	assert.True(t, rows[0].InterestPortion.GreaterThan(last.InterestPortion))
}

func TestCalculator_Build_ZeroRateFallsBackToFlat(t *testing.T) {
	calc := newTestCalculator(t)

	rows, err := calc.Build(decimal.NewFromInt(9000), decimal.Zero, 3, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.True(t, row.InterestPortion.IsZero())
	}
	assert.True(t, rows[2].BalanceAfter.IsZero())
}

func TestCalculator_Build_Deterministic(t *testing.T) {
	calc := newTestCalculator(t)

	first, err := calc.Build(decimal.NewFromInt(123457), decimal.RequireFromString("2.5"), 36, false)
	require.NoError(t, err)
	second, err := calc.Build(decimal.NewFromInt(123457), decimal.RequireFromString("2.5"), 36, false)
	require.NoError(t, err)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Payment.Equal(second[i].Payment))
		assert.True(t, first[i].BalanceAfter.Equal(second[i].BalanceAfter))
	}
}

func TestCalculator_Build_Validation(t *testing.T) {
	calc := newTestCalculator(t)

	cases := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		term      int
	}{
		{"zero term", decimal.NewFromInt(1000), decimal.NewFromInt(3), 0},
		{"negative term", decimal.NewFromInt(1000), decimal.NewFromInt(3), -4},
		{"zero principal", decimal.Zero, decimal.NewFromInt(3), 12},
		{"negative principal", decimal.NewFromInt(-50), decimal.NewFromInt(3), 12},
		{"negative rate", decimal.NewFromInt(1000), decimal.NewFromInt(-1), 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Build(tc.principal, tc.rate, tc.term, false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation), "got %v", err)
		})
	}
}
