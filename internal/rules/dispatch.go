package rules

// Dispatcher is the narrow notification contract the watcher pipeline
// needs from the Notification Dispatcher (§4.6). It is defined here,
// not imported from internal/notify, so that internal/rules stays free
// of internal/notify's dependency on internal/config (mail/SMS
// settings) — internal/notify.Dispatcher satisfies this interface
// structurally.
type Dispatcher interface {
	// Send delivers message at severity to every recipient on listID
	// whose minSeverity the severity clears (§4.6). listID is the
	// owning watcher's id.
	Send(listID, message, severity string)
}
