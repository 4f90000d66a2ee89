// Package notify implements the Notification Dispatcher of §4.6:
// per-list recipient registries and the LOG/MAIL/SMS delivery methods.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thornlake/wardenmq/internal/config"
	"github.com/thornlake/wardenmq/internal/events"
)

// sendTimeout bounds one outbound MAIL or SMS delivery attempt.
const sendTimeout = 15 * time.Second

// Dispatcher holds every notification list built at startup and
// fans a send call out to each admitted recipient. The list registry
// is populated once during construction and is read-only thereafter
// (§5: "the Notification Dispatcher's recipient map is built at
// startup and read-only thereafter; delivery calls may run
// concurrently") — the mutex exists for defensive safety against
// concurrent readers, not because the map is expected to mutate.
type Dispatcher struct {
	mu    sync.RWMutex
	lists map[string][]Recipient

	mail   config.MailConfig
	sms    config.SMSConfig
	logger *slog.Logger
	bus    *events.Bus
	now    func() time.Time
}

// NewDispatcher builds a Dispatcher from the configured notification
// lists and outbound transport settings.
func NewDispatcher(lists []config.NotificationList, mail config.MailConfig, sms config.SMSConfig, bus *events.Bus, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		lists:  make(map[string][]Recipient, len(lists)),
		mail:   mail,
		sms:    sms,
		logger: logger.With("component", "notify"),
		bus:    bus,
		now:    time.Now,
	}
	for _, list := range lists {
		for _, r := range list.Recipients {
			if !r.Enabled {
				continue
			}
			d.addRecipient(list.ID, Recipient{Method: r.Type, Address: r.Recipient, MinSeverity: r.MinSeverity})
		}
	}
	return d
}

func (d *Dispatcher) addRecipient(listID string, r Recipient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lists[listID] = append(d.lists[listID], r)
}

// Send implements the internal/rules.Dispatcher contract: deliver
// message to listID's recipients admitted by severity (§4.6's first
// sendNotifications form). This is the only entry point the watcher
// pipeline uses.
func (d *Dispatcher) Send(listID, message, severity string) {
	d.SendNotifications(listID, message, Filter{Severity: severity})
}

// SendNotifications implements §4.6's sendNotifications: it prefixes
// message with a local timestamp, then delivers to every recipient of
// listID admitted by filter. A recipient's delivery failure is logged
// and does not block the rest.
func (d *Dispatcher) SendNotifications(listID, message string, filter Filter) {
	d.mu.RLock()
	recipients := d.lists[listID]
	d.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	prefixed := fmt.Sprintf("%s %s", d.now().Format("2006-01-02 15:04:05"), message)

	delivered := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if !filter.admits(r) {
			continue
		}
		delivered = append(delivered, r.Method)
		d.dispatchOne(listID, r, prefixed)
	}

	if len(delivered) > 0 {
		d.bus.Publish(events.Event{
			Timestamp: d.now(), Source: events.SourceDispatcher, Kind: events.KindNotificationSent,
			Data: map[string]any{"list_id": listID, "recipients": delivered},
		})
	}
}

// dispatchOne sends one notification via r's method. LOG runs inline
// since it cannot block; MAIL and SMS are offloaded to their own
// goroutines (§5: "these must be offloaded so they do not block
// message processing") with a bounded send timeout.
func (d *Dispatcher) dispatchOne(listID string, r Recipient, message string) {
	switch r.Method {
	case "LOG":
		logNotification(d.logger, listID, message)
	case "MAIL":
		go d.deliverMail(listID, r.Address, message)
	case "SMS":
		go d.deliverSMS(listID, r.Address, message)
	default:
		d.logger.Warn("unknown notification method", "list_id", listID, "method", r.Method)
	}
}

func (d *Dispatcher) deliverMail(listID, to, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := sendMail(ctx, d.mail, to, message); err != nil {
		d.logger.Warn("mail notification failed", "list_id", listID, "to", to, "error", err)
		d.bus.Publish(events.Event{
			Timestamp: d.now(), Source: events.SourceDispatcher, Kind: events.KindNotificationFailed,
			Data: map[string]any{"list_id": listID, "method": "MAIL", "err": err.Error()},
		})
	}
}

func (d *Dispatcher) deliverSMS(listID, to, message string) {
	if !d.sms.Configured() {
		d.logger.Warn("sms notification skipped: gateway not configured", "list_id", listID, "to", to)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := sendSMS(ctx, d.sms, to, message); err != nil {
		d.logger.Warn("sms notification failed", "list_id", listID, "to", to, "error", err)
		d.bus.Publish(events.Event{
			Timestamp: d.now(), Source: events.SourceDispatcher, Kind: events.KindNotificationFailed,
			Data: map[string]any{"list_id": listID, "method": "SMS", "err": err.Error()},
		})
	}
}
