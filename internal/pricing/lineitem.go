package pricing

import (
	"math"

	"craftbid/internal/domain"
)

// ResolvedInputs is the flat pricing input produced by the catalog resolver:
// one item's configuration reduced to the numbers the calculator needs. The
// resolution (material override vs base price, subtype/color factors,
// accessory lookup, freeform carve-out) happens once, upstream.
type ResolvedInputs struct {
	Mode          domain.MeasurementMode
	Freeform      bool // distinguished "other" product: never priced
	PricePerUnit  float64
	AccessoryCost float64
	Dimensions    Dimensions
	Quantity      int
}

// ItemResult is the computed outcome for one line item.
type ItemResult struct {
	Measure      float64
	PricePerUnit float64
	Total        int64
}

// CalculateItem computes one line item's total in integer currency units:
//
//	round(max(0, measure*pricePerUnit + accessoryCost) * max(1, quantity))
//
// Freeform items always total zero regardless of dimensions or accessories.
// Negative intermediates are floored at zero before rounding, and a
// non-finite price per unit is treated as absent.
func CalculateItem(in ResolvedInputs) ItemResult {
	measure := Measure(in.Mode, in.Dimensions)

	if in.Freeform {
		return ItemResult{Measure: measure}
	}

	pricePerUnit := in.PricePerUnit
	if math.IsNaN(pricePerUnit) || math.IsInf(pricePerUnit, 0) || pricePerUnit < 0 {
		pricePerUnit = 0
	}

	accessoryCost := in.AccessoryCost
	if math.IsNaN(accessoryCost) || math.IsInf(accessoryCost, 0) || accessoryCost < 0 {
		accessoryCost = 0
	}

	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	unitAmount := measure*pricePerUnit + accessoryCost
	if unitAmount < 0 {
		unitAmount = 0
	}

	return ItemResult{
		Measure:      measure,
		PricePerUnit: pricePerUnit,
		Total:        int64(math.Round(unitAmount * float64(quantity))),
	}
}

// AccessoryCost sums the fixed prices of the selected accessories. Prices are
// per unit, never scaled by the measure. Unknown ids contribute nothing; the
// resolver validates references before pricing.
func AccessoryCost(accessories []domain.Accessory, selected []string) float64 {
	if len(selected) == 0 {
		return 0
	}
	byID := make(map[string]float64, len(accessories))
	for _, a := range accessories {
		byID[a.ID] = a.Price
	}
	var sum float64
	for _, id := range selected {
		sum += byID[id]
	}
	return sum
}
