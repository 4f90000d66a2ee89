// Package mqtt implements the transport contract of §4.6/§6: a single
// broker connection delivering raw message payloads to watcher
// callbacks.
//
// The transport uses Eclipse Paho v2's [autopaho] package for
// connection management with automatic reconnection. Unlike a
// publish-oriented HA integration, this package is subscribe-only: it
// has no discovery payloads, no availability topic, and no periodic
// state loop. On every (re-)connect it (re-)subscribes to every
// configured watcher's topic, since autopaho does not resubscribe on
// its own.
package mqtt
