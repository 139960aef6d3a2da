package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sweeney/pinscan/internal/clock"
	"github.com/sweeney/pinscan/internal/metrics"
	"github.com/sweeney/pinscan/internal/mqtt"
	"github.com/sweeney/pinscan/internal/pins"
	"github.com/sweeney/pinscan/internal/status"
)

var (
	scanDuration = metrics.MustRegisterHistogram("loop",
		"scan_duration_seconds",
		"Time spent in one sensor scan and output trigger pass",
		prometheus.ExponentialBuckets(0.00001, 4, 8))
	scansWithChanges = metrics.MustRegisterCounter("loop",
		"scans_with_changes_total",
		"Number of scans in which at least one sensor changed")
)

// tickClock is the debounce clock used by loop: it advances only when a
// tick is observed.
type tickClock interface {
	clock.Clock
	Observe(t time.Time)
}

// loop owns the elements and drives them from a single goroutine.
type loop struct {
	elements   []pins.Element
	debounce   bool
	clk        tickClock
	publisher  mqtt.Publisher        // nil without a broker
	mqttStatus mqtt.ConnectionStatus // nil without a broker
	tracker    *status.Tracker
	heartbeat  time.Duration // 0 disables
	now        func() time.Time
	log        zerolog.Logger

	lastHeartbeat time.Time
}

// startup records the initial element state and publishes STARTUP.
func (l *loop) startup() {
	l.tracker.Update(l.elements, false)
	l.refreshMQTT()
	snap := l.tracker.Snapshot()
	l.lastHeartbeat = l.now()
	l.publishSystem(mqtt.SystemEvent{
		Timestamp:  l.lastHeartbeat,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})
}

// run scans on every tick until a signal arrives or ctx is cancelled,
// then publishes SHUTDOWN.
func (l *loop) run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			l.log.Info().Str("signal", s.String()).Msg("shutting down")
			l.shutdown(signalName(s))
			return nil
		case <-ctx.Done():
			l.shutdown("CANCELLED")
			return nil
		case t := <-tick:
			l.scan(t)
		}
	}
}

// scan runs one CheckSensors/TriggerOutputs pass at tick time t.
func (l *loop) scan(t time.Time) {
	started := time.Now()
	l.clk.Observe(t)
	changed := pins.CheckSensors(l.elements, l.debounce, l.clk)
	pins.TriggerOutputs(l.elements)
	scanDuration.Observe(time.Since(started).Seconds())

	if changed {
		scansWithChanges.Inc()
		l.log.Debug().Msg("sensor state changed")
	}
	l.tracker.Update(l.elements, changed)
	l.refreshMQTT()

	now := l.now()
	if l.heartbeat > 0 && now.Sub(l.lastHeartbeat) >= l.heartbeat {
		l.lastHeartbeat = now
		snap := l.tracker.Snapshot()
		l.log.Info().
			Dur("uptime", snap.Uptime()).
			Uint64("scans", snap.Scans).
			Int("transitions", snap.Transitions()).
			Msg("heartbeat")
		l.publishSystem(mqtt.SystemEvent{
			Timestamp:  now,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
		})
	}
}

func (l *loop) shutdown(reason string) {
	l.refreshMQTT()
	snap := l.tracker.Snapshot()
	l.publishSystem(mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	})
}

func (l *loop) refreshMQTT() {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) publishSystem(event mqtt.SystemEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn().Err(err).Str("event", event.Event).Msg("failed to publish system event")
		return
	}
	l.log.Debug().Str("event", event.Event).Msg("published system event")
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
