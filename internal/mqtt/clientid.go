package mqtt

import "github.com/google/uuid"

// newClientID generates a process-scoped MQTT client identifier.
// Persisted state is explicitly out of scope (§6: "Persisted state:
// none"), so unlike a device-registry identifier this is not written
// to disk — a fresh one is minted on every Transport.Connect call and
// reused by autopaho's automatic reconnects.
func newClientID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the system clock/entropy source is
		// broken; fall back to a fixed prefix rather than panicking.
		return "wardenmq-fallback"
	}
	return "wardenmq-" + id.String()[:8]
}
