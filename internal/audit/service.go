package audit

import (
	"fmt"
	"log"

	"github.com/openshelf/circulation/internal/database/audit"
	"github.com/openshelf/circulation/internal/entities"
)

// Service provides high-level audit logging for circulation events.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogBorrow records a borrow attempt and its outcome.
func (s *Service) LogBorrow(userID, bookID uint, loanID *uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBorrow,
		Action:      "book_borrow",
		Description: fmt.Sprintf("borrow book %d", bookID),
		EntityType:  "loan",
		EntityID:    loanID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogReturn records a return attempt and its outcome, fine included.
func (s *Service) LogReturn(bookID uint, loanID *uint, fine int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: fmt.Sprintf("return book %d (fine %d)", bookID, fine),
		EntityType:  "loan",
		EntityID:    loanID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogReserve records a reserve attempt. immediate is true when the book
// was free and borrowed on the spot.
func (s *Service) LogReserve(userID, bookID uint, entityID *uint, immediate bool, err error) {
	description := fmt.Sprintf("reserve book %d", bookID)
	if immediate {
		description = fmt.Sprintf("reserve book %d (borrowed immediately)", bookID)
	}
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventReserve,
		Action:      "book_reserve",
		Description: description,
		EntityType:  "reservation",
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogExpiry records a reservation expiry sweep that retired entries.
func (s *Service) LogExpiry(expired int64) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventExpiry,
		Action:      "reservation_expiry",
		Description: fmt.Sprintf("expired %d reservations", expired),
		EntityType:  "reservation",
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves paginated audit events, most recent first.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
