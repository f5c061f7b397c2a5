package service

import (
	"context"

	"github.com/httplouis/TraveLink-sub009/internal/application/dispatcher"
	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	"github.com/httplouis/TraveLink-sub009/internal/domain/event"
)

// TransitionNotifier subscribes to workflow events and records one outbox
// entry per transition for the delivery collaborator. The engine itself
// never sends notifications.
type TransitionNotifier struct {
	notificationRepo port.NotificationRepository
	logger           Logger
}

// NewTransitionNotifier creates a new TransitionNotifier
func NewTransitionNotifier(notificationRepo port.NotificationRepository, logger Logger) *TransitionNotifier {
	return &TransitionNotifier{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Register subscribes the notifier to all transition event types
func (n *TransitionNotifier) Register(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeRequestSubmitted,
		event.TypeStatusChanged,
		event.TypeRequestApproved,
		event.TypeRequestRejected,
		event.TypeRequestCompleted,
	} {
		d.Subscribe(t, "transition-notifier", n.Handle)
	}
}

// Handle records an outbox entry for a transition event
func (n *TransitionNotifier) Handle(ctx context.Context, evt *event.Event) error {
	notification := &entity.TransitionNotification{
		RequestID:   evt.RequestID,
		RequestCode: evt.RequestCode,
		NotifyRole:  evt.GetPayloadString("notify_role"),
		NotifyUser:  evt.GetPayloadString("notify_user"),
		NewStatus:   evt.GetPayloadString("new_status"),
	}

	if err := n.notificationRepo.Create(ctx, notification); err != nil {
		n.logger.Error("Failed to record transition notification",
			"request_code", evt.RequestCode,
			"error", err,
		)
		return err
	}

	return nil
}
