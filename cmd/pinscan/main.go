// Command pinscan polls the sensors of a pin layout, drives its outputs and
// publishes confirmed sensor transitions to MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/pinscan/internal/clock"
	"github.com/sweeney/pinscan/internal/config"
	"github.com/sweeney/pinscan/internal/gpio"
	"github.com/sweeney/pinscan/internal/mqtt"
	"github.com/sweeney/pinscan/internal/status"
	"github.com/sweeney/pinscan/internal/web"
)

// ErrUnknownBackend is returned for an unsupported --backend value.
var ErrUnknownBackend = errors.New("unknown backend")

type options struct {
	layout     string
	backend    string
	chip       string
	i2cBus     uint8
	i2cAddr    uint8
	poll       time.Duration
	debounce   time.Duration
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	level      string
	printState bool
}

func main() {
	var opts options
	pflag.StringVar(&opts.layout, "layout", "/etc/pinscan/layout.json", "Pin layout file")
	pflag.StringVar(&opts.backend, "backend", "cdev", "Channel backend (cdev, periph, mcp23017, fake)")
	pflag.StringVar(&opts.chip, "chip", "gpiochip0", "GPIO chip for the cdev backend")
	pflag.Uint8Var(&opts.i2cBus, "i2c-bus", 1, "I2C bus for the mcp23017 backend")
	pflag.Uint8Var(&opts.i2cAddr, "i2c-addr", 0, "Address offset (A2..A0) for the mcp23017 backend")
	pflag.DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Scan interval")
	pflag.DurationVar(&opts.debounce, "debounce", 50*time.Millisecond, "Default debounce delay (0 scans raw samples; mirrored outputs hold)")
	pflag.StringVar(&opts.broker, "broker", "", "MQTT broker address (empty to disable)")
	pflag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	pflag.StringVar(&opts.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	pflag.StringVar(&opts.level, "level", "info", "Log level")
	pflag.BoolVar(&opts.printState, "print-state", false, "Print the raw state of every sensor and exit")
	pflag.Parse()

	log := newLogger(os.Stderr, opts.level)
	if err := run(opts, log); err != nil {
		log.Fatal().Err(err).Msg("pinscan failed")
	}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	log := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	return log.Level(lvl)
}

func openBackend(opts options) (gpio.IO, error) {
	switch opts.backend {
	case "cdev":
		return gpio.NewCdevIO(opts.chip)
	case "periph":
		return gpio.NewPeriphIO()
	case "mcp23017":
		return gpio.NewMCPIO(opts.i2cBus, opts.i2cAddr)
	case "fake":
		return gpio.NewFakeIO(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", opts.backend)
	}
}

func run(opts options, log zerolog.Logger) error {
	file, err := config.Load(opts.layout)
	if err != nil {
		return err
	}

	hw, err := openBackend(opts)
	if err != nil {
		return errors.Wrap(err, "open backend")
	}
	defer hw.Close()

	if opts.printState {
		return printState(os.Stdout, hw, file, log)
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if opts.broker != "" {
		hostname, _ := os.Hostname()
		p, err := mqtt.NewRealPublisher(opts.broker, "pinscan-"+hostname, log.With().Str("component", "mqtt").Logger())
		if err != nil {
			return errors.Wrap(err, "connect mqtt")
		}
		defer p.Close()
		publisher = p
		mqttStatus = p
	}

	layout, err := config.Build(hw, file, config.Options{
		Publisher:       publisher,
		Print:           os.Stdout,
		DefaultDebounce: clock.FromDuration(opts.debounce),
		Now:             time.Now,
		Log:             log.With().Str("component", "pins").Logger(),
	})
	if err != nil {
		return errors.Wrap(err, "build layout")
	}

	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		Backend:     opts.backend,
		Layout:      opts.layout,
		PollMs:      opts.poll.Milliseconds(),
		DebounceMs:  opts.debounce.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
	})

	l := &loop{
		elements:   layout.Elements,
		debounce:   opts.debounce > 0,
		clk:        clock.NewWall(start),
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  opts.heartbeat,
		now:        time.Now,
		log:        log.With().Str("component", "loop").Logger(),
	}
	l.startup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if opts.httpAddr != "" {
		ln, err := net.Listen("tcp", opts.httpAddr)
		if err != nil {
			return errors.Wrap(err, "listen http")
		}
		srv := web.New(tracker)
		log.Info().Str("addr", ln.Addr().String()).Msg("http status server listening")
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info().
		Str("backend", opts.backend).
		Int("elements", len(layout.Elements)).
		Dur("poll", opts.poll).
		Dur("debounce", opts.debounce).
		Msg("started")

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		defer cancel()
		return l.run(ctx, ticker.C, sigCh)
	})
	return g.Wait()
}

// printState prints one raw sample of every sensor in the layout. Only
// sensor channels are configured: no output is driven and nothing is
// published.
func printState(w io.Writer, hw gpio.IO, file *config.File, log zerolog.Logger) error {
	layout, err := config.BuildSensors(hw, file, config.Options{Log: log})
	if err != nil {
		return errors.Wrap(err, "build sensors")
	}
	for _, s := range layout.SensorList() {
		fmt.Fprintf(w, "%s (channel %d): %d\n", s.Name(), s.Channel(), s.Read())
	}
	return nil
}
