package catalog

import (
	"math"

	"craftbid/internal/domain"
	"craftbid/internal/pricing"
)

// ItemSpec is a caller-supplied line-item configuration awaiting resolution
// against the catalog. It carries no resolved prices; those come out of
// Resolve.
type ItemSpec struct {
	ProductID    string
	SubtypeID    string
	MaterialID   string
	ColorID      string
	Width        float64
	Height       float64
	Length       float64
	Quantity     int
	AccessoryIDs []string
	Description  string
}

// Resolve validates the item's catalog references and flattens them into the
// pure calculator's inputs. The price-per-unit priority is: material fixed
// price when present and finite, otherwise the product base price scaled by
// the subtype and color factors (defaulting to 1.0 when unknown). Freeform
// products resolve to a degenerate zero-priced input.
func Resolve(catalog *domain.Catalog, spec ItemSpec) (pricing.ResolvedInputs, error) {
	product, ok := catalog.Product(spec.ProductID)
	if !ok {
		return pricing.ResolvedInputs{}, &domain.NotFoundError{Entity: "product", ID: spec.ProductID}
	}

	dims := pricing.Dimensions{Width: spec.Width, Height: spec.Height, Length: spec.Length}

	if isFreeform(product) {
		return pricing.ResolvedInputs{
			Mode:       product.Mode,
			Freeform:   true,
			Dimensions: dims,
			Quantity:   spec.Quantity,
		}, nil
	}

	if err := checkRequiredDimensions(product, spec); err != nil {
		return pricing.ResolvedInputs{}, err
	}

	subtype := findSubtype(product, spec.SubtypeID)
	if subtype == nil {
		return pricing.ResolvedInputs{}, &domain.NotFoundError{Entity: "subtype", ID: spec.SubtypeID}
	}

	material := findMaterial(subtype, spec.MaterialID)
	if material == nil {
		return pricing.ResolvedInputs{}, &domain.NotFoundError{Entity: "material", ID: spec.MaterialID}
	}

	for _, id := range spec.AccessoryIDs {
		if !hasAccessory(product, id) {
			return pricing.ResolvedInputs{}, &domain.NotFoundError{Entity: "accessory", ID: id}
		}
	}

	return pricing.ResolvedInputs{
		Mode:          product.Mode,
		PricePerUnit:  resolvePricePerUnit(product, subtype, spec.ColorID, material),
		AccessoryCost: pricing.AccessoryCost(product.Accessories, spec.AccessoryIDs),
		Dimensions:    dims,
		Quantity:      spec.Quantity,
	}, nil
}

func isFreeform(p *domain.CatalogProduct) bool {
	return p.Freeform || p.Mode == domain.MeasureOtherFreeform
}

func resolvePricePerUnit(p *domain.CatalogProduct, sub *domain.Subtype, colorID string, mat *domain.Material) float64 {
	if mat.PricePerM2 != nil && isFinite(*mat.PricePerM2) {
		return *mat.PricePerM2
	}

	var base float64
	if p.BasePricePerM2 != nil && isFinite(*p.BasePricePerM2) {
		base = *p.BasePricePerM2
	}

	subtypeFactor := 1.0
	if sub.Factor > 0 {
		subtypeFactor = sub.Factor
	}

	colorFactor := 1.0
	for _, c := range p.Colors {
		if c.ID == colorID && c.Factor > 0 {
			colorFactor = c.Factor
			break
		}
	}

	return base * subtypeFactor * colorFactor
}

func checkRequiredDimensions(p *domain.CatalogProduct, spec ItemSpec) error {
	required := []struct {
		name     string
		required bool
		value    float64
	}{
		{"width", p.Dimensions.Width, spec.Width},
		{"height", p.Dimensions.Height, spec.Height},
		{"length", p.Dimensions.Length, spec.Length},
	}
	for _, d := range required {
		if d.required && (math.IsNaN(d.value) || d.value <= 0) {
			return &domain.ValidationError{
				Field:  d.name,
				Reason: "missing_required_dimension",
				Value:  d.value,
				Min:    0,
			}
		}
	}
	return nil
}

func findSubtype(p *domain.CatalogProduct, id string) *domain.Subtype {
	for i := range p.Subtypes {
		if p.Subtypes[i].ID == id {
			return &p.Subtypes[i]
		}
	}
	return nil
}

func findMaterial(s *domain.Subtype, id string) *domain.Material {
	for i := range s.Materials {
		if s.Materials[i].ID == id {
			return &s.Materials[i]
		}
	}
	return nil
}

func hasAccessory(p *domain.CatalogProduct, id string) bool {
	for _, a := range p.Accessories {
		if a.ID == id {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
