// Command tempwatch monitors a microcontroller's temperature telemetry
// over a serial link, keeps bounded recent history, and enforces the
// tiered alert and emergency-shutdown policy.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/tempwatch/internal/alert"
	"github.com/luki/tempwatch/internal/announce"
	"github.com/luki/tempwatch/internal/config"
	"github.com/luki/tempwatch/internal/history"
	"github.com/luki/tempwatch/internal/ingest"
	"github.com/luki/tempwatch/internal/logbook"
	"github.com/luki/tempwatch/internal/metrics"
	"github.com/luki/tempwatch/internal/monitor"
	"github.com/luki/tempwatch/internal/serialport"
	"github.com/luki/tempwatch/internal/watchdog"
	"github.com/luki/tempwatch/internal/wire"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	grammar, err := wire.ParseGrammar(cfg.Protocol)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	port, err := openPort(cfg)
	if err != nil {
		log.Fatalf("No usable serial port: %v", err)
	}
	defer port.Close()

	book, err := logbook.New()
	if err != nil {
		log.Fatalf("Failed to open log book: %v", err)
	}
	defer book.Close()

	series := history.NewSeries(cfg.Sensors, cfg.Capacity())
	wd := watchdog.New(cfg.StaleAfter, nil)
	engine := alert.NewEngine(engineConfig(cfg), nil)

	speaker := announce.DefaultSpeaker()
	if cfg.SpeechCommand != "" {
		speaker = announce.NewSpeaker(cfg.SpeechCommand)
	}
	host := announce.NewHostShutdown(nil)

	// The shutdown sink quits the UI, and the UI polls the loop's status;
	// the program variable closes that cycle.
	var program *tea.Program
	quitUI := func() {
		if program != nil {
			program.Quit()
		}
	}

	loop := ingest.New(ingest.Config{
		Source: port,
		Decoder: wire.NewDecoder(wire.Config{
			Sensors:  cfg.Sensors,
			MinValue: cfg.MinValue,
			MaxValue: cfg.MaxValue,
			Grammar:  grammar,
		}),
		Series: series,
		Watch:  wd,
		Engine: engine,
		Sinks:  buildSinks(book, speaker, host, series, quitUI),
	})

	program = tea.NewProgram(
		monitor.New(monitor.Sources{
			Series: series,
			Status: loop.Status,
			Port:   port.Name(),
		}, engineConfig(cfg), cfg.Retention),
		tea.WithAltScreen(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)
	go wd.Run(ctx, cfg.WatchdogPoll, func() {
		metrics.WatchdogTripsTotal.Inc()
		loop.HandleStale()
	})

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				book.Event(logbook.EventTransport, fmt.Sprintf("metrics listener: %v", err), time.Now())
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		log.Fatalf("UI error: %v", err)
	}
}

func engineConfig(cfg *config.Config) alert.Config {
	return alert.Config{
		CautionAt:    cfg.CautionAt,
		WarnAt:       cfg.WarnAt,
		CriticalAt:   cfg.CriticalAt,
		CautionEvery: cfg.CautionEvery,
		WarnEvery:    cfg.WarnEvery,
	}
}

// openPort connects to the configured port, falling back to the last
// used one and then to the first port the system reports. The winner is
// persisted for the next start.
func openPort(cfg *config.Config) (*serialport.Port, error) {
	var candidates []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			candidates = append(candidates, name)
		}
	}

	add(cfg.Port)
	add(serialport.LoadLast())
	if ports, err := serialport.List(); err == nil {
		for _, name := range ports {
			add(name)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no serial ports found")
	}

	var lastErr error
	for _, name := range candidates {
		port, err := serialport.Open(name, cfg.BaudRate, cfg.ReadTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		if err := serialport.SaveLast(name); err != nil {
			log.Printf("Warning: could not persist last port: %v", err)
		}
		return port, nil
	}
	return nil, lastErr
}

// buildSinks fans the core's signals out to the collaborators: the log
// book, Prometheus, the speaker, and the host shutdown path.
func buildSinks(book *logbook.Book, speaker *announce.Speaker, host *announce.HostShutdown, series *history.Series, quitUI func()) ingest.Sinks {
	return ingest.Sinks{
		OnReading: func(sensor int, value float64, at time.Time) {
			book.Reading(sensor, value, at)
			label := strconv.Itoa(sensor)
			metrics.ReadingsTotal.WithLabelValues(label).Inc()
			metrics.Temperature.WithLabelValues(label).Set(value)
			metrics.MaxTemperature.Set(series.Max())
		},
		OnParseError: func(kind wire.ErrKind, raw string) {
			book.Event(logbook.EventParseError, fmt.Sprintf("%s: %q", kind, raw), time.Now())
			metrics.ParseErrorsTotal.WithLabelValues(kind.String()).Inc()
		},
		OnTransportError: func(err error) {
			book.Event(logbook.EventTransport, err.Error(), time.Now())
			metrics.TransportErrorsTotal.Inc()
		},
		OnAlert: func(action alert.Action, msg string) {
			book.Event(logbook.EventAlert, msg, time.Now())
			metrics.AlertsTotal.WithLabelValues(action.String()).Inc()
			if action != alert.ActionCaution {
				speaker.Say(msg)
			}
		},
		OnStale: func(msg string) {
			book.Event(logbook.EventStale, msg, time.Now())
			speaker.Say(msg)
		},
		OnShutdown: func(msg string) {
			book.Event(logbook.EventShutdown, msg, time.Now())
			if err := host.Request(); err != nil {
				book.Event(logbook.EventShutdown, fmt.Sprintf("power-off request failed: %v", err), time.Now())
			}
			quitUI()
		},
	}
}
