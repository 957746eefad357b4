// Package contract decodes absolute contract codes such as "debm07_25"
// into ContractSpec values.
package contract

import (
	"strings"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// MinCodeLength is the shortest well-formed contract code.
const MinCodeLength = 6

// threeLetterMarkets lists market codes that take three characters.
// Anything else is a two-letter market.
var threeLetterMarkets = map[string]struct{}{
	"ttf": {},
	"nbp": {},
	"peg": {},
	"zee": {},
	"gas": {},
}

var products = map[byte]types.Product{
	'b': types.ProductBase,
	'p': types.ProductPeak,
}

var tenors = map[byte]types.Tenor{
	'd': types.TenorDay,
	'w': types.TenorWeek,
	'm': types.TenorMonth,
	'q': types.TenorQuarter,
	'y': types.TenorYear,
}

// Parse decodes an absolute contract code. Layout is
// <market><product><tenor><period code>, where market is three letters for
// the known three-letter markets and two letters otherwise.
func Parse(code string) (types.ContractSpec, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) < MinCodeLength {
		return types.ContractSpec{}, errors.Newf(errors.ErrCodeInvalidContractFormat,
			"invalid contract format %q: need at least %d characters", code, MinCodeLength)
	}

	marketLen := 2
	if _, ok := threeLetterMarkets[code[:3]]; ok && len(code) >= MinCodeLength+1 {
		marketLen = 3
	}

	product, ok := products[code[marketLen]]
	if !ok {
		return types.ContractSpec{}, errors.Newf(errors.ErrCodeUnknownProductCode,
			"unknown product code %q in contract %q", code[marketLen], code)
	}

	tenor, ok := tenors[code[marketLen+1]]
	if !ok {
		return types.ContractSpec{}, errors.Newf(errors.ErrCodeUnknownTenor,
			"unknown tenor code %q in contract %q", code[marketLen+1], code)
	}

	period := code[marketLen+2:]
	if period == "" {
		return types.ContractSpec{}, errors.Newf(errors.ErrCodeInvalidContractFormat,
			"invalid contract format %q: missing period code", code)
	}

	delivery, err := DeliveryDate(tenor, period)
	if err != nil {
		return types.ContractSpec{}, err
	}

	return types.ContractSpec{
		Market:       code[:marketLen],
		Product:      product,
		Tenor:        tenor,
		Contract:     period,
		DeliveryDate: delivery,
	}, nil
}

// ParseAll parses every code, failing on the first malformed one.
func ParseAll(codes []string) ([]types.ContractSpec, error) {
	specs := make([]types.ContractSpec, 0, len(codes))
	for _, code := range codes {
		spec, err := Parse(code)
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// Format renders spec back into its absolute contract code.
func Format(spec types.ContractSpec) string {
	return spec.Code()
}
