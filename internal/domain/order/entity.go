// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"
)

// Status represents the order lifecycle status
type Status string

const (
	StatusCreated   Status = "created"
	StatusPaid      Status = "paid"
	StatusFulfilled Status = "fulfilled"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ReturnStatus represents the admin-side status of a return request
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusInReview ReturnStatus = "in_review"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRefunded ReturnStatus = "refunded"
	ReturnStatusDeclined ReturnStatus = "declined"
)

// Customer is the checkout contact, embedded in Order.
type Customer struct {
	Name    string `gorm:"size:255" json:"name" binding:"required"`
	Email   string `gorm:"size:255;index" json:"email" binding:"required,email"`
	Phone   string `gorm:"size:50" json:"phone"`
	Address string `gorm:"size:500" json:"address"`
	Country string `gorm:"size:100" json:"country"`
}

// Order is the aggregate created once at checkout and mutated only through
// lifecycle transitions. Items and Events are owned exclusively by the
// order: nothing mutates them after creation except the operations in this
// package and the return workflow.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	Status      Status `gorm:"not null;default:'created';index" json:"status"`

	// Financial snapshot, integer cents, frozen from the quote
	SubtotalCents         int64 `gorm:"not null" json:"subtotal_cents"`
	DiscountCents         int64 `gorm:"default:0" json:"discount_cents"`
	ShippingCents         int64 `gorm:"default:0" json:"shipping_cents"`
	ShippingDiscountCents int64 `gorm:"default:0" json:"shipping_discount_cents"`
	TaxCents              int64 `gorm:"default:0" json:"tax_cents"`
	TotalCents            int64 `gorm:"not null" json:"total_cents"`

	Customer Customer `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`

	DiscountCode string `gorm:"size:50" json:"discount_code,omitempty"`
	ShippingCode string `gorm:"size:50" json:"shipping_code,omitempty"`

	// Lifecycle timestamps
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	FulfilledAt  *time.Time `json:"fulfilled_at,omitempty"`
	ShippedAt    *time.Time `json:"shipped_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `gorm:"size:500" json:"cancel_reason,omitempty"`

	// Return sub-workflow, active only once the order has shipped
	ReturnRequestedAt      *time.Time   `json:"return_requested_at,omitempty"`
	ReturnReason           string       `gorm:"size:500" json:"return_reason,omitempty"`
	ReturnAdminStatus      ReturnStatus `gorm:"size:20" json:"return_admin_status,omitempty"`
	ReturnAdminNotes       string       `gorm:"type:text" json:"return_admin_notes,omitempty"`
	ReturnUsageNotes       string       `gorm:"type:text" json:"return_usage_notes,omitempty"`
	ReturnAdminRespondedAt *time.Time   `json:"return_admin_responded_at,omitempty"`

	// Relationships
	Items  []OrderItem  `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Events []OrderEvent `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"events,omitempty"`
}

// OrderItem is a line frozen at order creation. Later catalog edits never
// change a persisted order.
type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"`
	ProductID      uint      `gorm:"not null;index" json:"product_id"`
	VariantID      *uint     `gorm:"index" json:"variant_id,omitempty"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	TitleSnapshot  string    `gorm:"not null;size:512" json:"title_snapshot"`
	TotalCents     int64     `gorm:"not null" json:"total_cents"` // Quantity * UnitPriceCents
	CreatedAt      time.Time `json:"created_at"`
}

// OrderEvent is one entry in the append-only lifecycle log: exactly one per
// transition, monotonically non-decreasing in time.
type OrderEvent struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	OrderID uint      `gorm:"not null;index" json:"order_id"`
	Status  Status    `gorm:"not null" json:"status"`
	At      time.Time `gorm:"not null" json:"at"`
	Note    string    `gorm:"size:500" json:"note,omitempty"`
	Actor   string    `gorm:"size:255" json:"actor,omitempty"`
}

// TableName overrides
func (Order) TableName() string      { return "orders" }
func (OrderItem) TableName() string  { return "order_items" }
func (OrderEvent) TableName() string { return "order_events" }

// transitions is the allowed main-lifecycle edge set. Cancel is handled
// separately because it carries a required reason.
var transitions = map[Status]Status{
	StatusCreated:   StatusPaid,
	StatusPaid:      StatusFulfilled,
	StatusFulfilled: StatusShipped,
	StatusShipped:   StatusCompleted,
}

// CanTransition reports whether the order may move from its current status
// to the target one.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return from == StatusCreated || from == StatusPaid || from == StatusFulfilled
	}
	return transitions[from] == to
}

// CanBeCancelled reports whether the order may still be cancelled. Shipped
// orders cannot; they go through the return workflow instead.
func (o *Order) CanBeCancelled() bool {
	return CanTransition(o.Status, StatusCancelled)
}

// Terminal reports whether the main lifecycle has ended. Terminal orders
// keep their record forever.
func (o *Order) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// ReturnRequested reports whether a return has been opened on the order.
func (o *Order) ReturnRequested() bool {
	return o.ReturnRequestedAt != nil
}

// GenerateOrderNumber builds the ORD-YYYYMMDD-XXXXX order number.
func GenerateOrderNumber(id uint, at time.Time) string {
	return fmt.Sprintf("ORD-%s-%05d", at.Format("20060102"), id)
}

// timestampColumn maps a status to its orders-table timestamp column.
func timestampColumn(status Status) string {
	switch status {
	case StatusPaid:
		return "paid_at"
	case StatusFulfilled:
		return "fulfilled_at"
	case StatusShipped:
		return "shipped_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelled:
		return "cancelled_at"
	}
	return ""
}
