package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httplouis/TraveLink-sub009/internal/application/dispatcher"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	"github.com/httplouis/TraveLink-sub009/internal/domain/event"
)

type mockNotificationRepo struct {
	created   []*entity.TransitionNotification
	createErr error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.TransitionNotification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListPending(ctx context.Context, limit int) ([]*entity.TransitionNotification, error) {
	return m.created, nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64) error {
	return nil
}

func TestTransitionNotifier_RecordsOutboxEntry(t *testing.T) {
	repo := &mockNotificationRepo{}
	notifier := NewTransitionNotifier(repo, mockLogger{})

	evt := event.NewEvent(event.TypeStatusChanged, 7, "TR-007", map[string]interface{}{
		"new_status":  "pending_admin",
		"notify_role": "admin",
		"notify_user": "",
	})

	err := notifier.Handle(context.Background(), evt)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	n := repo.created[0]
	assert.Equal(t, int64(7), n.RequestID)
	assert.Equal(t, "TR-007", n.RequestCode)
	assert.Equal(t, "pending_admin", n.NewStatus)
	assert.Equal(t, "admin", n.NotifyRole)
}

func TestTransitionNotifier_PropagatesRepositoryError(t *testing.T) {
	repo := &mockNotificationRepo{createErr: errors.New("disk full")}
	notifier := NewTransitionNotifier(repo, mockLogger{})

	err := notifier.Handle(context.Background(), event.NewEvent(event.TypeRequestApproved, 1, "TR-001", nil))
	assert.Error(t, err)
}

func TestTransitionNotifier_RegisterSubscribesAllTransitionTypes(t *testing.T) {
	repo := &mockNotificationRepo{}
	notifier := NewTransitionNotifier(repo, mockLogger{})

	d := dispatcher.NewDispatcher()
	defer d.Close()
	notifier.Register(d)

	for _, typ := range []event.Type{
		event.TypeRequestSubmitted,
		event.TypeStatusChanged,
		event.TypeRequestApproved,
		event.TypeRequestRejected,
		event.TypeRequestCompleted,
	} {
		err := d.Dispatch(context.Background(), event.NewEvent(typ, 1, "TR-001", nil))
		require.NoError(t, err)
	}

	assert.Len(t, repo.created, 5)
}
