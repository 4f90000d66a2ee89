// Package events provides a publish/subscribe event bus for
// operational observability. Events flow from components (MQTT
// transport, watcher pipelines, the notification dispatcher) to
// subscribers (the /events WebSocket stream, future metrics
// collectors). The bus is nil-safe: calling Publish on a nil *Bus is a
// no-op, so components do not need guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceTransport identifies events from the MQTT transport
	// (connect, disconnect, reconnect backoff).
	SourceTransport = "transport"
	// SourceWatcher identifies events from a watcher's pipeline.
	SourceWatcher = "watcher"
	// SourceDispatcher identifies events from the notification
	// dispatcher.
	SourceDispatcher = "dispatcher"
)

// Kind constants describe the type of event within a source.
const (
	// KindConnected signals the MQTT transport reached SUBSCRIBED.
	// Data: client_id.
	KindConnected = "connected"
	// KindDisconnected signals the MQTT transport dropped its
	// connection and entered BACKOFF.
	// Data: reason (client error) or reason_code (server disconnect).
	KindDisconnected = "disconnected"
	// KindReconnecting signals a failed connection attempt; the
	// transport retries after the backoff delay.
	// Data: reason.
	KindReconnecting = "reconnecting"

	// KindMessageDropped signals a delivered payload failed to decode
	// as JSON and was dropped silently per §4.2 step 1.
	// Data: watcher_id, topic.
	KindMessageDropped = "message_dropped"
	// KindConditionMatched signals a ConditionSpec matched its event.
	// Data: watcher_id, event_subject, condition_index.
	KindConditionMatched = "condition_matched"
	// KindConditionSuppressed signals a match was suppressed by the
	// Suppression Core (§4.4) or legacy duplicate suppression (§4.2f).
	// Data: watcher_id, event_subject, condition_index, reason.
	KindConditionSuppressed = "condition_suppressed"

	// KindNotificationSent signals a notification was delivered to at
	// least one recipient.
	// Data: list_id, recipients.
	KindNotificationSent = "notification_sent"
	// KindNotificationFailed signals a delivery failure to one
	// recipient; it does not stop delivery to the rest (§4.6).
	// Data: list_id, method, err.
	KindNotificationFailed = "notification_failed"
)

// Event represents a single operational event published by a
// component.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`
	// Source identifies the component that published the event.
	Source string `json:"source"`
	// Kind describes the type of event within the source.
	Kind string `json:"kind"`
	// Data holds event-specific key/value pairs.
	Data map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive
// events on buffered channels; slow subscribers miss events rather
// than blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe
	// back to the bidirectional channel stored in subs, so Unsubscribe
	// can accept <-chan Event (the caller's view) without an illegal
	// type conversion.
	recvToSend map[<-chan Event]chan Event
}

// New creates a new event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full — drop the event rather than block.
		}
	}
}

// Subscribe returns a channel that receives published events. The
// caller must eventually call Unsubscribe to avoid resource leaks.
// bufSize controls the channel buffer; 64 is a reasonable default for
// the WebSocket observability stream.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
