// internal/domain/returns/service.go
package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/gorm"
)

var (
	// ErrNotAvailable is returned when a return is requested on an order
	// that has not shipped, or that already has an open request.
	ErrNotAvailable = errors.New("return not available for this order")

	// ErrNotRequested is returned when responding to or messaging an order
	// with no return request.
	ErrNotRequested = errors.New("no return requested on this order")

	// ErrBackwardStatus is returned when an admin response would move the
	// return status backwards without an explicit reopen.
	ErrBackwardStatus = errors.New("return status cannot move backwards without reopen")
)

// ValidationError reports malformed return input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// statusRank orders the admin statuses for the forward-progression guard.
// Refunded and declined share the top rank: both close the case.
var statusRank = map[order.ReturnStatus]int{
	order.ReturnStatusPending:  0,
	order.ReturnStatusInReview: 1,
	order.ReturnStatusApproved: 2,
	order.ReturnStatusRefunded: 3,
	order.ReturnStatusDeclined: 3,
}

// Service drives the return/refund sub-workflow: an orthogonal state
// machine on shipped orders plus a bidirectional message thread.
type Service struct {
	db *gorm.DB
}

// NewService creates a new returns service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RequestReturn opens a return on a shipped (or completed) order. The
// reason must come from the enumerated set; "Other" requires free text.
// Only the order's customer may open a return.
func (s *Service) RequestReturn(ctx context.Context, orderID uint, email string, reason Reason, otherText string) (*order.Order, error) {
	if !ValidReason(reason) {
		return nil, &ValidationError{Field: "reason", Reason: "unknown return reason"}
	}

	stored := string(reason)
	if reason == ReasonOther {
		if strings.TrimSpace(otherText) == "" {
			return nil, &ValidationError{Field: "reason", Reason: "free text is required for Other"}
		}
		stored = fmt.Sprintf("Other: %s", strings.TrimSpace(otherText))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}

		if !strings.EqualFold(email, ord.Customer.Email) {
			return order.ErrUnauthorized
		}
		if ord.Status != order.StatusShipped && ord.Status != order.StatusCompleted {
			return ErrNotAvailable
		}
		if ord.ReturnRequested() {
			return ErrNotAvailable
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"return_requested_at": now,
			"return_reason":       stored,
			"return_admin_status": order.ReturnStatusPending,
		}
		if err := tx.Model(ord).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to request return: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getOrder(ctx, orderID)
}

// RespondRequest represents an admin response to a return request.
type RespondRequest struct {
	Status     order.ReturnStatus `json:"status" binding:"required"`
	UsageNotes string             `json:"usage_notes,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	Message    string             `json:"message,omitempty"`
	// Reopen permits moving the status backwards, e.g. refunded back to
	// in_review when support reopens a case.
	Reopen bool `json:"reopen,omitempty"`
}

// RespondToReturn atomically updates the admin status and notes, stamps the
// response time, and appends an admin message to the thread when one is
// supplied. Status moves forward only, unless Reopen is set.
func (s *Service) RespondToReturn(ctx context.Context, orderID uint, req *RespondRequest, adminName string) (*order.Order, error) {
	if _, ok := statusRank[req.Status]; !ok {
		return nil, &ValidationError{Field: "status", Reason: "unknown return status"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}

		if !ord.ReturnRequested() {
			return ErrNotRequested
		}
		if !req.Reopen && statusRank[req.Status] < statusRank[ord.ReturnAdminStatus] {
			return ErrBackwardStatus
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"return_admin_status":       req.Status,
			"return_usage_notes":        req.UsageNotes,
			"return_admin_notes":        req.Notes,
			"return_admin_responded_at": now,
		}
		if err := tx.Model(ord).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update return status: %w", err)
		}

		if strings.TrimSpace(req.Message) != "" {
			msg := Message{
				OrderID:    orderID,
				AuthorRole: RoleAdmin,
				AuthorName: adminName,
				Body:       req.Message,
				CreatedAt:  now,
			}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("failed to append return message: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getOrder(ctx, orderID)
}

// PostMessage appends one message to the return thread without touching the
// admin status. Either party may post once a return is open.
func (s *Service) PostMessage(ctx context.Context, orderID uint, role AuthorRole, authorName, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &ValidationError{Field: "body", Reason: "message body is required"}
	}
	if role != RoleAdmin && role != RoleCustomer {
		return nil, &ValidationError{Field: "author_role", Reason: "unknown author role"}
	}

	var msg Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !ord.ReturnRequested() {
			return ErrNotRequested
		}

		msg = Message{
			OrderID:    orderID,
			AuthorRole: role,
			AuthorName: authorName,
			Body:       body,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to append return message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

// ListMessages returns the thread for an order, ordered by creation time.
func (s *Service) ListMessages(ctx context.Context, orderID uint) ([]Message, error) {
	var messages []Message
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list return messages: %w", err)
	}
	return messages, nil
}

func loadOrder(tx *gorm.DB, orderID uint) (*order.Order, error) {
	var ord order.Order
	if err := tx.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &ord, nil
}

func (s *Service) getOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	var ord order.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("at ASC, id ASC")
		}).
		First(&ord, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &ord, nil
}
