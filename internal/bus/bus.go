// Package bus implements a typed in-process publish/subscribe broker.
//
// The bus is the coordination point between source monitors (which publish
// discovery events), the reconciler (which subscribes to them), and
// observability collaborators like the activity log (which fan out from the
// same events). Delivery is synchronous on the publisher's goroutine so that
// a single hostname's events are always processed in publish order.
package bus

import (
	"log/slog"
	"sync"
)

// Well-known topic names recognized by the core components.
const (
	TopicRoutersUpdated      = "ROUTERS_UPDATED"
	TopicLabelsUpdated       = "LABELS_UPDATED"
	TopicContainerStarted    = "CONTAINER_STARTED"
	TopicContainerStopped    = "CONTAINER_STOPPED"
	TopicContainerDestroyed  = "CONTAINER_DESTROYED"
	TopicPollStarted         = "POLL_STARTED"
	TopicPollCompleted       = "POLL_COMPLETED"
	TopicDNSRecordsUpdated   = "DNS_RECORDS_UPDATED"
	TopicDNSRecordCreated    = "DNS_RECORD_CREATED"
	TopicDNSRecordUpdated    = "DNS_RECORD_UPDATED"
	TopicDNSRecordDeleted    = "DNS_RECORD_DELETED"
	TopicOperationModeChange = "OPERATION_MODE_CHANGED"
	TopicErrorOccurred       = "ERROR_OCCURRED"
)

// Handler processes a payload published on a topic.
// A Handler that returns an error does not stop sibling handlers from
// running; the error is logged and republished on TopicErrorOccurred.
type Handler func(payload any) error

// ErrorPayload is the payload published on TopicErrorOccurred.
type ErrorPayload struct {
	Source string
	Error  error
}

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a typed, synchronous, in-process publish/subscribe broker.
//
// Handlers for the same topic run in subscription order, on the calling
// goroutine of Publish. A handler wanting to offload work must spawn its own
// goroutine.
type Bus struct {
	logger *slog.Logger

	mu        sync.RWMutex
	subs      map[string][]subscription
	lastEvent map[string]any
	nextID    uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a new Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		logger:    slog.Default(),
		subs:      make(map[string][]subscription),
		lastEvent: make(map[string]any),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler to run whenever topic is published.
// Handlers are invoked in the order they were subscribed. The returned
// Unsubscribe removes the handler; it is safe to call more than once.
func (b *Bus) Subscribe(topic string, handler Handler) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[topic]
			for i, sub := range list {
				if sub.id == id {
					b.subs[topic] = append(list[:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers payload to every handler subscribed to topic, in
// subscription order, on the calling goroutine. It records payload as the
// topic's last event. A handler error is logged and republished on
// TopicErrorOccurred rather than propagated to the caller or to sibling
// handlers.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	b.lastEvent[topic] = payload
	handlers := make([]subscription, len(b.subs[topic]))
	copy(handlers, b.subs[topic])
	b.mu.Unlock()

	for _, sub := range handlers {
		if err := sub.handler(payload); err != nil {
			b.logger.Error("event handler failed",
				slog.String("topic", topic),
				slog.String("error", err.Error()),
			)
			// Avoid infinite recursion if an ERROR_OCCURRED handler itself errors.
			if topic != TopicErrorOccurred {
				b.Publish(TopicErrorOccurred, ErrorPayload{Source: topic, Error: err})
			}
		}
	}
}

// LastEvent returns the most recent payload published on topic, if any.
// This lets delayed cleanup logic consult the latest known hostname set
// without re-subscribing.
func (b *Bus) LastEvent(topic string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	payload, ok := b.lastEvent[topic]
	return payload, ok
}

// SubscriberCount returns the number of handlers currently subscribed to
// topic. Primarily useful for tests and diagnostics.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
