package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

// PeriodRow is one line of an amortization schedule. Amounts are rounded to
// two decimal places; BalanceAfter of the final row is always exactly zero.
type PeriodRow struct {
	Period           int             `json:"period"`
	Payment          decimal.Decimal `json:"payment"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	BalanceAfter     decimal.Decimal `json:"balanceAfter"`
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Calculator builds repayment schedules. Stored product rates are treated as
// monthly figures and divided by weeksPerMonth to obtain the per-period rate;
// the factor comes from configuration because the source data does not pin
// down whether rates are weekly or monthly.
type Calculator struct {
	weeksPerMonth decimal.Decimal
}

func NewCalculator(weeksPerMonth float64) (*Calculator, error) {
	if weeksPerMonth <= 0 {
		return nil, fmt.Errorf("%w: weeksPerMonth must be positive", apperrors.ErrInvalidArgument)
	}
	return &Calculator{weeksPerMonth: decimal.NewFromFloat(weeksPerMonth)}, nil
}

// Build computes the full schedule for a loan. A zero rate always takes the
// flat-division path regardless of the flat flag. Identical inputs produce
// identical schedules.
func (c *Calculator) Build(principal, ratePercent decimal.Decimal, termWeeks int, flat bool) ([]PeriodRow, error) {
	if termWeeks <= 0 {
		return nil, fmt.Errorf("%w: term must be at least one period", apperrors.ErrValidation)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", apperrors.ErrValidation)
	}
	if ratePercent.IsNegative() {
		return nil, fmt.Errorf("%w: rate cannot be negative", apperrors.ErrValidation)
	}

	if flat || ratePercent.IsZero() {
		return c.buildFlat(principal, termWeeks), nil
	}
	return c.buildReducing(principal, ratePercent, termWeeks), nil
}

// buildFlat divides the principal evenly; the final period settles whatever
// rounding left over so the payments sum to the principal exactly.
func (c *Calculator) buildFlat(principal decimal.Decimal, termWeeks int) []PeriodRow {
	payment := principal.Div(decimal.NewFromInt(int64(termWeeks))).Round(2)

	rows := make([]PeriodRow, 0, termWeeks)
	balance := principal
	for period := 1; period <= termWeeks; period++ {
		p := payment
		if period == termWeeks || p.GreaterThan(balance) {
			p = balance
		}
		balance = balance.Sub(p)
		rows = append(rows, PeriodRow{
			Period:           period,
			Payment:          p,
			PrincipalPortion: p,
			InterestPortion:  decimal.Zero,
			BalanceAfter:     balance,
		})
	}
	return rows
}

// buildReducing amortizes with a level payment over a reducing balance using
// the standard annuity formula: payment = P*r*(1+r)^n / ((1+r)^n - 1).
func (c *Calculator) buildReducing(principal, ratePercent decimal.Decimal, termWeeks int) []PeriodRow {
	r := ratePercent.Div(hundred).Div(c.weeksPerMonth)
	n := decimal.NewFromInt(int64(termWeeks))
	compound := one.Add(r).Pow(n)
	payment := principal.Mul(r).Mul(compound).Div(compound.Sub(one)).Round(2)

	rows := make([]PeriodRow, 0, termWeeks)
	balance := principal
	for period := 1; period <= termWeeks; period++ {
		interest := balance.Mul(r).Round(2)
		principalPortion := payment.Sub(interest)
		rowPayment := payment
		if period == termWeeks || principalPortion.GreaterThan(balance) {
			// Final period settles the exact remainder.
			principalPortion = balance
			rowPayment = principalPortion.Add(interest)
		}
		balance = balance.Sub(principalPortion)
		rows = append(rows, PeriodRow{
			Period:           period,
			Payment:          rowPayment,
			PrincipalPortion: principalPortion,
			InterestPortion:  interest,
			BalanceAfter:     balance,
		})
	}
	return rows
}
