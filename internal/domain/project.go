package domain

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is one priced configuration of a catalog product. It is a value
// object: the resolved unit price and total are snapshotted at computation
// time, so later catalog changes never re-price a stored item.
type LineItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ProjectID    uuid.UUID `json:"project_id" db:"project_id"`
	ProductID    string    `json:"product_id" db:"product_id"`
	SubtypeID    string    `json:"subtype_id" db:"subtype_id"`
	MaterialID   string    `json:"material_id" db:"material_id"`
	ColorID      string    `json:"color_id" db:"color_id"`
	Width        float64   `json:"width" db:"width"`
	Height       float64   `json:"height" db:"height"`
	Length       float64   `json:"length" db:"length"`
	Quantity     int       `json:"quantity" db:"quantity"`
	AccessoryIDs []string  `json:"accessory_ids" db:"accessory_ids"`
	Description  string    `json:"description" db:"description"`
	Main         bool      `json:"main" db:"main"`
	Position     int       `json:"position" db:"position"`
	PricePerUnit float64   `json:"price_per_unit" db:"price_per_unit"`
	Total        int64     `json:"total" db:"total"`
}

// Project is the single authoritative record of a customer engagement. It is
// never deleted; it only moves through status transitions, ending in
// Completed or Cancelled.
type Project struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	CustomerID      uuid.UUID     `json:"customer_id" db:"customer_id"`
	Status          ProjectStatus `json:"status" db:"status"`
	BaselineTotal   int64         `json:"baseline_total" db:"baseline_total"`
	RequestedDays   int           `json:"requested_days" db:"requested_days"`
	AssignedVendor  *uuid.UUID    `json:"assigned_vendor,omitempty" db:"assigned_vendor"`
	AgreedPrice     int64         `json:"agreed_price" db:"agreed_price"`
	Commission      int64         `json:"commission" db:"commission"`
	VendorEarnings  int64         `json:"vendor_earnings" db:"vendor_earnings"`
	DeliveryNote    string        `json:"delivery_note" db:"delivery_note"`
	DeliveryFiles   []string      `json:"delivery_files" db:"delivery_files"`
	RejectionReason string        `json:"rejection_reason" db:"rejection_reason"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`

	Items []LineItem `json:"items" db:"-"`
}

// MainItem returns the project's main line item, or nil if the item list has
// not been loaded or is empty.
func (p *Project) MainItem() *LineItem {
	for i := range p.Items {
		if p.Items[i].Main {
			return &p.Items[i]
		}
	}
	return nil
}

// Bid is a vendor's priced, timed proposal against a project. At most one
// non-terminal bid per (project, vendor) pair exists at a time; a bid is
// immutable once accepted or rejected.
type Bid struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	VendorID  uuid.UUID `json:"vendor_id" db:"vendor_id"`
	Price     int64     `json:"price" db:"price"`
	Days      int       `json:"days" db:"days"`
	Message   string    `json:"message" db:"message"`
	Status    BidStatus `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VendorReview is the optional 1-5 rating a customer leaves when accepting
// delivery. Capture is best-effort and never blocks completion.
type VendorReview struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProjectID  uuid.UUID `json:"project_id" db:"project_id"`
	VendorID   uuid.UUID `json:"vendor_id" db:"vendor_id"`
	CustomerID uuid.UUID `json:"customer_id" db:"customer_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
