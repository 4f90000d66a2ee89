package notify

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/thornlake/wardenmq/internal/config"
	"github.com/thornlake/wardenmq/internal/events"
)

func newTestDispatcher(lists []config.NotificationList, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := NewDispatcher(lists, config.MailConfig{}, config.SMSConfig{}, nil, logger)
	d.now = func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDispatcher_SkipsDisabledRecipients(t *testing.T) {
	d := newTestDispatcher([]config.NotificationList{
		{ID: "door", Recipients: []config.NotificationRecipient{
			{Type: "LOG", Recipient: "x", Enabled: false, MinSeverity: "debug"},
		}},
	}, nil)
	if len(d.lists["door"]) != 0 {
		t.Errorf("disabled recipients should not be registered, got %v", d.lists["door"])
	}
}

func TestDispatcher_Send_SeverityFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	d := newTestDispatcher([]config.NotificationList{
		{ID: "door", Recipients: []config.NotificationRecipient{
			{Type: "LOG", Recipient: "low", Enabled: true, MinSeverity: "critical"},
			{Type: "LOG", Recipient: "high", Enabled: true, MinSeverity: "debug"},
		}},
	}, logger)

	d.Send("door", "Door open!", "info")

	out := buf.String()
	if strings.Count(out, "Door open!") != 1 {
		t.Errorf("expected exactly one LOG delivery at info severity (critical recipient excluded), got:\n%s", out)
	}
}

func TestDispatcher_SendNotifications_PrefixesTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	d := newTestDispatcher([]config.NotificationList{
		{ID: "door", Recipients: []config.NotificationRecipient{
			{Type: "LOG", Recipient: "x", Enabled: true, MinSeverity: "debug"},
		}},
	}, logger)

	d.SendNotifications("door", "Door open!", Filter{})

	if want := "2026-07-29 12:00:00 Door open!"; !strings.Contains(buf.String(), want) {
		t.Errorf("log output should contain the timestamp-prefixed message %q, got:\n%s", want, buf.String())
	}
}

func TestDispatcher_UnknownListIsNoop(t *testing.T) {
	d := newTestDispatcher(nil, nil)
	d.SendNotifications("nonexistent", "hi", Filter{})
}

func TestDispatcher_Send_PublishesNotificationSent(t *testing.T) {
	bus := events.New()
	d := newTestDispatcher([]config.NotificationList{
		{ID: "door", Recipients: []config.NotificationRecipient{
			{Type: "LOG", Recipient: "x", Enabled: true, MinSeverity: "debug"},
		}},
	}, nil)
	d.bus = bus

	ch := bus.Subscribe(4)
	defer bus.Unsubscribe(ch)

	d.Send("door", "Door open!", "info")

	select {
	case ev := <-ch:
		if ev.Kind != events.KindNotificationSent {
			t.Errorf("kind = %q, want %q", ev.Kind, events.KindNotificationSent)
		}
	default:
		t.Fatal("expected a notification_sent event to be published")
	}
}

func TestDispatcher_UnknownMethodLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	d := newTestDispatcher(nil, logger)
	d.lists["door"] = []Recipient{{Method: "CARRIER_PIGEON", MinSeverity: "debug"}}

	d.SendNotifications("door", "hi", Filter{})

	if !strings.Contains(buf.String(), "unknown notification method") {
		t.Errorf("expected a warning about the unknown method, got:\n%s", buf.String())
	}
}
