package domain

// MeasurementMode determines how raw dimensions collapse into the scalar
// measure used by the pricing calculator.
type MeasurementMode string

const (
	MeasureAreaWidthHeight   MeasurementMode = "area_width_height"
	MeasureAreaWidthLength   MeasurementMode = "area_width_length"
	MeasureHeightOnly        MeasurementMode = "height_only"
	MeasureLengthOnly        MeasurementMode = "length_only"
	MeasureCustomWidthHeight MeasurementMode = "custom_width_height"
	MeasureOtherFreeform     MeasurementMode = "other_freeform"
)

// ValidMeasurementMode reports whether m is one of the known modes.
func ValidMeasurementMode(m MeasurementMode) bool {
	switch m {
	case MeasureAreaWidthHeight, MeasureAreaWidthLength, MeasureHeightOnly,
		MeasureLengthOnly, MeasureCustomWidthHeight, MeasureOtherFreeform:
		return true
	default:
		return false
	}
}

// DimensionFlags marks which raw dimensions a product requires from the
// customer. Dimensions not flagged are ignored by the calculator.
type DimensionFlags struct {
	Width  bool `json:"width"`
	Height bool `json:"height"`
	Length bool `json:"length"`
}

// CatalogProduct is one configurable product type as served by the external
// catalog store. Immutable within a pricing computation.
type CatalogProduct struct {
	ID             string          `json:"id"`
	LabelAr        string          `json:"ar"`
	LabelEn        string          `json:"en"`
	Mode           MeasurementMode `json:"measurementMode"`
	BasePricePerM2 *float64        `json:"basePricePerM2,omitempty"`
	Dimensions     DimensionFlags  `json:"dimensions"`
	Subtypes       []Subtype       `json:"subtypes"`
	Colors         []Color         `json:"colors"`
	Accessories    []Accessory     `json:"accessories"`
	Freeform       bool            `json:"freeform,omitempty"`
}

// Subtype groups the materials available for a product variant.
type Subtype struct {
	ID        string     `json:"id"`
	LabelAr   string     `json:"ar"`
	LabelEn   string     `json:"en"`
	Factor    float64    `json:"factor,omitempty"`
	Materials []Material `json:"materials"`
}

// Material optionally overrides the product's base price per unit area.
type Material struct {
	ID         string   `json:"id"`
	LabelAr    string   `json:"ar"`
	LabelEn    string   `json:"en"`
	PricePerM2 *float64 `json:"pricePerM2,omitempty"`
}

type Color struct {
	ID      string  `json:"id"`
	LabelAr string  `json:"ar"`
	LabelEn string  `json:"en"`
	Factor  float64 `json:"factor,omitempty"`
}

// Accessory carries a fixed price added once per unit, never scaled by the
// measure.
type Accessory struct {
	ID      string  `json:"id"`
	LabelAr string  `json:"ar"`
	LabelEn string  `json:"en"`
	Price   float64 `json:"price"`
}

// Catalog is the full product listing served by the catalog store.
type Catalog struct {
	Products []CatalogProduct `json:"products"`
}

// Product looks up a product by id.
func (c *Catalog) Product(id string) (*CatalogProduct, bool) {
	for i := range c.Products {
		if c.Products[i].ID == id {
			return &c.Products[i], true
		}
	}
	return nil, false
}
