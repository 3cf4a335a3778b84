package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/events"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
	block  chan struct{}
}

func (p *capturePublisher) Publish(ctx context.Context, e events.Event) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func startNotifications(t *testing.T, dispatcher events.Dispatcher, publisher events.Publisher) {
	t.Helper()
	notifications := NewNotificationService(dispatcher, publisher, nil)
	notifications.RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		notifications.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestNotificationServiceForwardsMemberEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	publisher := &capturePublisher{}
	startNotifications(t, dispatcher, publisher)

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventMemberSignedUp, "1", nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventMemberDeleted, "1", nil)))

	require.Eventually(t, func() bool { return len(publisher.published()) == 2 }, time.Second, 10*time.Millisecond)
	got := publisher.published()
	assert.Equal(t, events.EventMemberSignedUp, got[0].Type)
	assert.Equal(t, events.EventMemberDeleted, got[1].Type)
}

func TestNotificationServiceSwallowsBrokerErrors(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	publisher := &capturePublisher{err: errors.New("broker down")}
	startNotifications(t, dispatcher, publisher)

	err := dispatcher.Publish(context.Background(), events.NewEvent(events.EventMemberDeleted, "1", nil))
	assert.NoError(t, err)
	assert.Eventually(t, func() bool { return len(publisher.published()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestNotificationHandlersDoNotWaitForBroker(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	publisher := &capturePublisher{block: make(chan struct{})}
	startNotifications(t, dispatcher, publisher)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventMemberDeleted, "1", nil)))
	}
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	close(publisher.block)
	assert.Eventually(t, func() bool { return len(publisher.published()) == 5 }, time.Second, 10*time.Millisecond)
}

func TestNotificationQueueDropsWhenFull(t *testing.T) {
	publisher := &capturePublisher{}
	notifications := NewNotificationService(nil, publisher, nil)

	for i := 0; i < DefaultNotificationBuffer+10; i++ {
		notifications.enqueue(events.NewEvent(events.EventMemberDeleted, "1", nil))
	}
	assert.Len(t, notifications.queue, DefaultNotificationBuffer)
}

func TestSignUpWithUnresponsiveBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher(nil)
	publisher := events.NewPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", "member.events", nil)
	startNotifications(t, dispatcher, publisher)

	// Accept connections and never answer the AMQP handshake. Registered after
	// the notification cleanup so the listener closes first and the dial fails fast.
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	svc := NewSignService(SignDependencies{
		Members:    newMemoryMembers(),
		Tokens:     newTestTokens(t),
		Hasher:     auth.NewPasswordHasher(bcrypt.MinCost),
		Dispatcher: dispatcher,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
