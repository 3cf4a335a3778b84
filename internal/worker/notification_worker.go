package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/member-auth/internal/events"
	"github.com/spec-kit/member-auth/internal/service"
)

// StartNotificationWorker registers notification handlers and starts the
// goroutine that forwards events to the broker. The publisher is closed
// once ctx is done and the forwarder has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, publisher events.Publisher, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil {
		close(done)
		return done
	}
	notificationService.RegisterHandlers()

	go func() {
		defer close(done)
		notificationService.Run(ctx)
		if publisher == nil {
			return
		}
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", zap.Error(err))
		}
	}()
	return done
}
