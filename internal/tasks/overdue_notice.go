package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openshelf/circulation/internal/entities"
)

// OverdueNoticeQueueName is the backlite queue name for overdue notice tasks.
const OverdueNoticeQueueName = "overdue_notices"

// OverdueScanner provides the open loans that are past their due date.
type OverdueScanner interface {
	ListOverdue(now time.Time) ([]entities.Loan, error)
}

// NoticeRecorder persists the notice for each overdue loan.
type NoticeRecorder interface {
	LogEvent(event *entities.AuditEvent) error
}

// OverdueNoticeTask scans for overdue open loans and records a notice for
// each, so the front desk has a daily list of borrowers to chase.
type OverdueNoticeTask struct{}

// Config returns the queue configuration for overdue notice tasks.
func (t OverdueNoticeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        OverdueNoticeQueueName,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueNoticeProcessor creates a processor function for OverdueNoticeTask.
func OverdueNoticeProcessor(scanner OverdueScanner, recorder NoticeRecorder) backlite.QueueProcessor[OverdueNoticeTask] {
	return func(ctx context.Context, task OverdueNoticeTask) error {
		if scanner == nil || recorder == nil {
			return fmt.Errorf("overdue notice task not configured")
		}

		now := time.Now().UTC()
		overdue, err := scanner.ListOverdue(now)
		if err != nil {
			return fmt.Errorf("scan overdue loans: %w", err)
		}

		for i := range overdue {
			loan := &overdue[i]
			event := &entities.AuditEvent{
				UserID:      loan.UserID,
				EventType:   entities.AuditEventOverdue,
				Action:      "overdue_notice",
				Description: fmt.Sprintf("loan %d for book %d is %d days overdue", loan.ID, loan.BookID, loan.OverdueDays(now)),
				EntityType:  "loan",
				EntityID:    &loan.ID,
				Status:      entities.AuditStatusSuccess,
			}
			if err := recorder.LogEvent(event); err != nil {
				return fmt.Errorf("record overdue notice for loan %d: %w", loan.ID, err)
			}
		}

		if len(overdue) > 0 {
			log.Printf("[TASK] Recorded %d overdue notices", len(overdue))
		}
		return nil
	}
}

// NewOverdueNoticeQueue creates a backlite queue for overdue notice tasks.
func NewOverdueNoticeQueue(scanner OverdueScanner, recorder NoticeRecorder) backlite.Queue {
	return backlite.NewQueue(OverdueNoticeProcessor(scanner, recorder))
}
