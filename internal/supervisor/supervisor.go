// Package supervisor wires the configuration, MQTT transport, watcher
// set, and notification dispatcher together and owns their shared
// lifetime.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thornlake/wardenmq/internal/config"
	"github.com/thornlake/wardenmq/internal/events"
	"github.com/thornlake/wardenmq/internal/mqtt"
	"github.com/thornlake/wardenmq/internal/notify"
	"github.com/thornlake/wardenmq/internal/rules"
	"github.com/thornlake/wardenmq/internal/store"
)

// shutdownTimeout bounds how long Run waits for the transport to
// disconnect cleanly once its context is cancelled.
const shutdownTimeout = 5 * time.Second

// Supervisor owns the Global Store, the watcher set, the notification
// dispatcher, and the MQTT transport for one configuration. Grounded
// on connwatch.Manager's "registry of watchers, stop fans out to all
// of them" shape, generalized from service-health watchers to rule
// watchers.
type Supervisor struct {
	logger     *slog.Logger
	bus        *events.Bus
	store      *store.Store
	dispatcher *notify.Dispatcher
	watchers   []*rules.Watcher
	transport  *mqtt.Transport
}

// New builds a Supervisor from a fully loaded, validated config. Every
// watcher with enabled == false is skipped entirely — it neither
// receives messages nor appears in Status().
func New(cfg *config.Config, bus *events.Bus, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	st := store.New()
	dispatcher := notify.NewDispatcher(cfg.NotificationList, cfg.MessageService.Mail, cfg.MessageService.SMS, bus, logger)

	watchers := make([]*rules.Watcher, 0, len(cfg.WatchList))
	subs := make([]mqtt.Subscription, 0, len(cfg.WatchList))
	for _, spec := range cfg.WatchList {
		if !spec.Enabled {
			continue
		}
		w := rules.NewWatcher(spec, st, dispatcher, bus, logger)
		watchers = append(watchers, w)
		subs = append(subs, mqtt.Subscription{Topic: spec.Topic, Handler: w.HandleMessage})
	}

	transport := mqtt.NewTransport(cfg.MQTT, subs, bus, logger)

	return &Supervisor{
		logger:     logger,
		bus:        bus,
		store:      st,
		dispatcher: dispatcher,
		watchers:   watchers,
		transport:  transport,
	}
}

// Run connects the MQTT transport and starts every watcher's rate
// limiter reset loop, then blocks until ctx is cancelled. On
// cancellation it disconnects the transport and waits for the rate
// limiter goroutines to exit before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, w := range s.watchers {
		wg.Add(1)
		go func(w *rules.Watcher) {
			defer wg.Done()
			w.RunRateLimiter(ctx)
		}(w)
	}

	if err := s.transport.Connect(ctx); err != nil {
		return fmt.Errorf("connect mqtt transport: %w", err)
	}

	<-ctx.Done()
	s.logger.Info("supervisor shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.transport.Disconnect(shutdownCtx); err != nil {
		s.logger.Warn("mqtt disconnect error during shutdown", "error", err)
	}

	wg.Wait()
	return nil
}

// Status reports a point-in-time snapshot for the observability
// server's GET /status endpoint.
func (s *Supervisor) Status() any {
	watchers := make([]map[string]any, 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, map[string]any{
			"id":    w.ID(),
			"topic": w.Topic(),
		})
	}
	return map[string]any{
		"transport_state": string(s.transport.State()),
		"watchers":        watchers,
	}
}
