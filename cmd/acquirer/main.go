// cmd/acquirer/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/loadcell-acquirer/internal/config"
	"github.com/tamzrod/loadcell-acquirer/internal/poller"
	"github.com/tamzrod/loadcell-acquirer/internal/transport"
	"github.com/tamzrod/loadcell-acquirer/internal/writer"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

const shutdownWait = 5 * time.Second

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the YAML config file")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("loadcell-acquirer v%s (build: %s)\n", Version, BuildTime)
		return
	}

	if *listPorts {
		ports, err := transport.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.Log)
	log.WithFields(logrus.Fields{
		"version": Version,
		"config":  *cfgPath,
		"driver":  cfg.Session.Driver,
		"port":    cfg.Session.Port,
	}).Info("acquirer starting")

	// --------------------
	// Engine
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p, session, err := poller.Build(cfg, poller.WithLogger(log), poller.WithRegisterer(reg))
	if err != nil {
		log.Fatalf("poller build failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --------------------
	// Sinks
	// --------------------

	sinkOpts, closeSinks, err := writer.BuildRunnerOptions(ctx, cfg)
	if err != nil {
		log.Fatalf("sink setup failed: %v", err)
	}
	defer closeSinks()

	rs := &restarter{
		p:       p,
		session: session,
		delay:   time.Duration(cfg.Session.RestartDelayMs) * time.Millisecond,
		log:     log,
	}

	runner := writer.NewRunner(append(sinkOpts,
		writer.WithRunnerLogger(log),
		writer.WithObserver(rs.observe),
	)...)

	// --------------------
	// Monitor
	// --------------------

	var srv *http.Server
	if cfg.Monitor.Enabled {
		srv = startMonitor(cfg.Monitor.MetricsPort, reg, p, log)
	}

	// --------------------
	// Run
	// --------------------

	go p.Run(ctx)

	runnerDone := make(chan struct{})
	go func() {
		// Not bound to ctx: the runner drains the stream until the engine closes it.
		runner.Run(context.Background(), p.Events())
		close(runnerDone)
	}()

	if err := p.Start(session); err != nil {
		log.Fatalf("start failed: %v", err)
	}

	// --------------------
	// Signals
	// --------------------

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for sig := range sigs {
		if sig == syscall.SIGHUP {
			reload(*cfgPath, cfg, p, rs, log)
			continue
		}

		log.WithField("signal", sig).Info("acquirer stopping")
		break
	}

	rs.stop()
	p.Stop()
	cancel()

	select {
	case <-runnerDone:
	case <-time.After(shutdownWait):
		log.Warn("runner did not drain in time")
	}

	if srv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownWait)
		_ = srv.Shutdown(sctx)
		scancel()
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func setupLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch cfg.Output {
	case "stderr":
		log.SetOutput(os.Stderr)
	case "file":
		log.SetOutput(os.Stdout)
		if cfg.FilePath == "" {
			break
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("open log file failed: %v, using stdout", err)
		}
	default:
		log.SetOutput(os.Stdout)
	}

	return log
}

// startMonitor serves /metrics and /health. /health is 200 only while polling.
func startMonitor(port int, reg *prometheus.Registry, p *poller.Poller, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		st := p.State()
		if st != poller.StatePolling {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(st.String()))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.WithField("addr", srv.Addr).Info("metrics server listening")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return srv
}

// reload applies the live-changeable part of a new config file.
// Port, driver and baud changes need a restart of the process.
func reload(path string, cur *config.Config, p *poller.Poller, rs *restarter, log logrus.FieldLogger) {
	next, err := loadConfig(path)
	if err != nil {
		log.WithError(err).Error("reload rejected")
		return
	}

	ns, cs := next.Session, cur.Session
	if ns.Port != cs.Port || ns.Driver != cs.Driver || ns.BaudRate != cs.BaudRate {
		log.Warn("reload: port, driver or baud rate changed; restart the process to apply")
	}

	if ns.SamplingIntervalMs != cs.SamplingIntervalMs {
		if err := p.SetSamplingInterval(time.Duration(ns.SamplingIntervalMs) * time.Millisecond); err != nil {
			log.WithError(err).Error("reload: interval rejected")
		}
	}
	if ns.DeviceAddress != cs.DeviceAddress {
		p.SetDeviceAddress(ns.DeviceAddress)
	}

	cur.Session.SamplingIntervalMs = ns.SamplingIntervalMs
	cur.Session.DeviceAddress = ns.DeviceAddress
	cur.Session.RestartDelayMs = ns.RestartDelayMs

	rs.update(poller.SessionFromConfig(cur.Session), time.Duration(ns.RestartDelayMs)*time.Millisecond)
	log.Info("config reloaded")
}

// restarter starts a fresh session some time after a fault.
// The engine itself never retries; this is the caller-side policy.
type restarter struct {
	p   *poller.Poller
	log logrus.FieldLogger

	mu      sync.Mutex
	session poller.SessionConfig
	delay   time.Duration
	timer   *time.Timer
	stopped bool
}

func (r *restarter) observe(ev poller.Event) {
	if ev.Kind != poller.EventState || ev.State != poller.StateFaulted {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.delay <= 0 {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}

	r.log.WithField("delay", r.delay).Info("session faulted, restart scheduled")
	r.timer = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		sc, stopped := r.session, r.stopped
		r.mu.Unlock()
		if stopped {
			return
		}
		if err := r.p.Start(sc); err != nil {
			r.log.WithError(err).Error("restart failed")
		}
	})
}

func (r *restarter) update(sc poller.SessionConfig, delay time.Duration) {
	r.mu.Lock()
	r.session = sc
	r.delay = delay
	r.mu.Unlock()
}

func (r *restarter) stop() {
	r.mu.Lock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
	r.mu.Unlock()
}
