package service

import (
	"context"
	"encoding/json"

	"github.com/pavelchamgl/analog-threads/internal/middleware"
	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/observability"
	"github.com/pavelchamgl/analog-threads/internal/repository"
	"github.com/pavelchamgl/analog-threads/internal/tasks"
)

// TaskNotificationDispatch is the background job kind for notification delivery.
const TaskNotificationDispatch = "notification.dispatch"

// RealtimePublisher pushes a payload to a user's realtime channel.
type RealtimePublisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// NotificationService persists notifications and publishes them to the
// owner's realtime channel. Delivery normally runs through the background
// queue; it falls back to inline dispatch when enqueueing fails, so every
// event is delivered at least once.
type NotificationService struct {
	repo      repository.NotificationRepository
	queue     *tasks.Queue
	publisher RealtimePublisher
}

// NewNotificationService returns a NotificationService and registers its
// job handler on the queue.
func NewNotificationService(repo repository.NotificationRepository, queue *tasks.Queue, publisher RealtimePublisher) *NotificationService {
	s := &NotificationService{
		repo:      repo,
		queue:     queue,
		publisher: publisher,
	}
	if queue != nil {
		queue.Handle(TaskNotificationDispatch, s.handleDispatch)
	}
	return s
}

// Notify implements Notifier.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	if s.queue == nil {
		s.dispatch(ctx, n)
		return
	}
	if err := s.queue.Enqueue(ctx, TaskNotificationDispatch, n); err != nil {
		middleware.Logger.Error("enqueue notification failed, dispatching inline",
			"type", string(n.Type), "owner_id", n.OwnerID, "error", err)
		s.dispatch(ctx, n)
	}
}

func (s *NotificationService) handleDispatch(ctx context.Context, payload []byte) error {
	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return err
	}
	s.dispatch(ctx, &n)
	return nil
}

// dispatch persists the notification and publishes it. A publish failure
// does not roll the row back; the owner still sees it in their listing.
func (s *NotificationService) dispatch(ctx context.Context, n *models.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		middleware.Logger.Error("persist notification failed",
			"type", string(n.Type), "owner_id", n.OwnerID, "error", err)
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		middleware.Logger.Error("marshal notification failed", "type", string(n.Type), "error", err)
		return
	}
	if s.publisher != nil {
		if err := s.publisher.PublishUser(ctx, n.OwnerID, string(payload)); err != nil {
			middleware.Logger.Error("publish notification failed",
				"type", string(n.Type), "owner_id", n.OwnerID, "error", err)
		}
	}
	observability.NotificationsDispatched.WithLabelValues(string(n.Type)).Inc()
}

// List returns the owner's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, ownerID uint, limit int, selectedID uint) ([]models.Notification, int64, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, selectedID)
}

// SendTest delivers a test notification to the owner.
func (s *NotificationService) SendTest(ctx context.Context, ownerID uint, text string) {
	if text == "" {
		text = "Test notification"
	}
	s.Notify(ctx, &models.Notification{
		OwnerID: ownerID,
		Type:    models.NotificationTest,
		Text:    text,
	})
}
