// internal/domain/returns/entity.go
package returns

import (
	"time"
)

// Reason is a customer-selectable return reason.
type Reason string

const (
	ReasonBrokenItem     Reason = "Broken item"
	ReasonWrongItem      Reason = "Wrong item"
	ReasonPackageDropped Reason = "Package dropped"
	ReasonWrongPrice     Reason = "Wrong price"
	ReasonMissingParts   Reason = "Missing parts"
	ReasonOther          Reason = "Other" // Requires free text
)

// ValidReason reports whether the reason is one of the enumerated set.
func ValidReason(r Reason) bool {
	switch r {
	case ReasonBrokenItem, ReasonWrongItem, ReasonPackageDropped,
		ReasonWrongPrice, ReasonMissingParts, ReasonOther:
		return true
	}
	return false
}

// AuthorRole identifies which side of the return thread wrote a message.
type AuthorRole string

const (
	RoleAdmin    AuthorRole = "admin"
	RoleCustomer AuthorRole = "customer"
)

// Message is one entry in the per-order return thread. The thread is
// append-only and ordered by CreatedAt; messages are never edited or
// deleted.
type Message struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OrderID    uint       `gorm:"not null;index" json:"order_id"`
	AuthorRole AuthorRole `gorm:"not null;size:20" json:"author_role"`
	AuthorName string     `gorm:"size:255" json:"author_name"`
	Body       string     `gorm:"not null;type:text" json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName overrides the table name
func (Message) TableName() string {
	return "refund_messages"
}
