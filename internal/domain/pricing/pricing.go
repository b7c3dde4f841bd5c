package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"lending-engine/internal/config"
	"lending-engine/internal/pkg/apperrors"
)

// Product describes one entry of the loan product table. Rate is a percentage
// applied per repayment period; a zero rate means the product is repaid by
// flat division with no interest.
type Product struct {
	Code                  string
	Label                 string
	RatePercent           decimal.Decimal
	PrincipalCap          decimal.Decimal
	OriginationFeePercent decimal.Decimal
}

// IsFlat reports whether the product amortizes without interest.
func (p Product) IsFlat() bool {
	return p.RatePercent.IsZero()
}

// OriginationFee computes the upfront fee deducted from the disbursed amount.
// The borrower still owes the full principal; only fee-bearing products
// deduct anything.
func (p Product) OriginationFee(principal decimal.Decimal) decimal.Decimal {
	if p.OriginationFeePercent.IsZero() {
		return decimal.Zero
	}
	return principal.Mul(p.OriginationFeePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Catalog is the static loan product table. It is immutable after construction.
type Catalog struct {
	products map[string]Product
}

func NewCatalog(cfgs []config.ProductConfig) (*Catalog, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("%w: product table is empty", apperrors.ErrInvalidArgument)
	}
	products := make(map[string]Product, len(cfgs))
	for _, c := range cfgs {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			return nil, fmt.Errorf("%w: product code cannot be empty", apperrors.ErrInvalidArgument)
		}
		if _, exists := products[code]; exists {
			return nil, fmt.Errorf("%w: duplicate product code %s", apperrors.ErrInvalidArgument, code)
		}
		if c.Cap <= 0 {
			return nil, fmt.Errorf("%w: product %s has non-positive principal cap", apperrors.ErrInvalidArgument, code)
		}
		products[code] = Product{
			Code:                  code,
			Label:                 c.Label,
			RatePercent:           decimal.NewFromFloat(c.Rate),
			PrincipalCap:          decimal.NewFromFloat(c.Cap),
			OriginationFeePercent: decimal.NewFromFloat(c.FeePercent),
		}
	}
	return &Catalog{products: products}, nil
}

// Get looks up a product by code (case-insensitive).
func (c *Catalog) Get(code string) (Product, error) {
	p, ok := c.products[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Product{}, fmt.Errorf("%w: unknown loan product %q", apperrors.ErrValidation, code)
	}
	return p, nil
}

// List returns all products ordered by code.
func (c *Catalog) List() []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
