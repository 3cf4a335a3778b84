package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/member-auth/internal/events"
)

const (
	// DefaultNotificationBuffer is how many events may wait for the broker.
	DefaultNotificationBuffer = 256
	forwardTimeout            = 10 * time.Second
)

// NotificationService handles emitting notifications for member events.
// Handlers only log and enqueue; Run forwards to the broker off the request path.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  events.Publisher
	logger     *zap.Logger
	queue      chan events.Event
}

// NewNotificationService creates the service. A nil publisher only logs.
func NewNotificationService(dispatcher events.Dispatcher, publisher events.Publisher, logger *zap.Logger) *NotificationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		queue:      make(chan events.Event, DefaultNotificationBuffer),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMemberSignedUp, n.handleMemberSignedUp)
	n.dispatcher.Subscribe(events.EventMemberDeleted, n.handleMemberDeleted)
}

// Run forwards queued events to the broker until ctx is done. Events still
// queued at that point are dropped.
func (n *NotificationService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if pending := len(n.queue); pending > 0 {
				n.logger.Warn("dropping queued events on shutdown", zap.Int("pending", pending))
			}
			return
		case event := <-n.queue:
			n.forward(ctx, event)
		}
	}
}

func (n *NotificationService) handleMemberSignedUp(_ context.Context, event events.Event) error {
	n.logger.Info("MemberSignedUp", zap.String("member_id", event.MemberID), zap.String("event_id", event.ID))
	n.enqueue(event)
	return nil
}

func (n *NotificationService) handleMemberDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("MemberDeleted",
		zap.String("member_id", event.MemberID),
		zap.String("actor_id", event.ActorID),
		zap.String("event_id", event.ID))
	n.enqueue(event)
	return nil
}

// enqueue never blocks: a full buffer drops the event.
func (n *NotificationService) enqueue(event events.Event) {
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
}

// forward hands the event to the broker. Broker failures are logged only.
func (n *NotificationService) forward(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("forward event to broker failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
