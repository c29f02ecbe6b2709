package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventcore/internal/algorithms"
	"eventcore/internal/config"
	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
	"eventcore/internal/notify"
	"eventcore/internal/objectstore"
	"eventcore/libs/observability"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	descriptorsDir := flag.String("descriptors", "", "directory of enrollment descriptor JSON files (optional; a built-in demo enrollment is used when empty)")
	redisAddr := flag.String("redis", "", "Redis address for the pub/sub notification sink (optional)")
	redisChannel := flag.String("redis-channel", "event-notifications", "Redis channel notifications are published on")
	metricsAddr := flag.String("metrics-addr", "", "listen address for the /metrics endpoint (optional)")
	flag.Parse()

	log.Printf("starting eventdemo v%s (built: %s)", version, buildTime)

	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	// Object graph: one analog input with its intrinsic event parameters.
	store := objectstore.NewMemoryStore()
	ai := objectstore.NewObject("analog-input-1")
	ai.SetProperty("present-value", domain.RealValue(50))
	ai.SetProperty("high-limit", domain.RealValue(100))
	ai.SetProperty("low-limit", domain.RealValue(0))
	ai.SetProperty("deadband", domain.RealValue(5))
	ai.SetProperty(domain.PropertyEventState, domain.CharacterStringValue(string(domain.EventStateNormal)))
	store.Add(ai)

	var metrics *observability.EventMetrics
	registry := observability.NewRegistry()
	if *metricsAddr != "" {
		metrics = observability.NewEventMetrics(registry)
	}

	// Notification sinks: logging always, Redis when configured, both
	// behind a circuit breaker.
	sinks := []notify.Sink{notify.NewCircuitBreakerSink(notify.NewLoggingSink())}
	if metrics != nil {
		sinks = append(sinks, &metricsSink{metrics: metrics})
	}
	if *redisAddr != "" {
		redisSink, err := notify.NewRedisSink(notify.RedisConfig{Addr: *redisAddr, Channel: *redisChannel})
		if err != nil {
			log.Fatalf("failed to connect redis sink: %v", err)
		}
		defer redisSink.Close()
		sinks = append(sinks, notify.NewCircuitBreakerSink(redisSink))
		log.Printf("redis sink connected to %s (channel %s)", *redisAddr, *redisChannel)
	}
	emitter := notify.NewEmitter(sinks...)

	engine := eventalgorithm.NewEngine(ctx)
	defer engine.Shutdown()

	descriptors := builtinDescriptors()
	if *descriptorsDir != "" {
		loaded, err := config.LoadDescriptors(*descriptorsDir)
		if err != nil {
			log.Fatalf("failed to load descriptors: %v", err)
		}
		descriptors = loaded
		log.Printf("loaded %d descriptors from %s", len(loaded), *descriptorsDir)
	}

	baseCfg := algorithms.Config{
		Store:    store,
		Notifier: emitter,
		Engine:   engine,
	}
	var closers []func()
	for id, d := range descriptors {
		alg, err := assembleAlgorithm(ctx, d, baseCfg)
		if err != nil {
			log.Fatalf("failed to assemble %s: %v", id, err)
		}
		closers = append(closers, alg.Base().Close)
		log.Printf("bound %s (%s) on %s", id, d.Algorithm, d.MonitoredObject)
	}
	defer func() {
		for _, closeAlg := range closers {
			closeAlg()
		}
	}()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			registry.WriteText(w)
		})
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
		log.Printf("metrics on http://%s/metrics", *metricsAddr)
	}

	// Drive the monitored value through a slow sine-ish ramp so transitions
	// actually happen while the demo runs.
	go ramp(ctx, ai)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Printf("received %v, shutting down", s)
}

// metricsSink counts committed transitions into the demo's Prometheus
// registry; it never fails, so it needs no circuit breaker.
type metricsSink struct {
	metrics *observability.EventMetrics
}

func (s *metricsSink) Name() string { return "metrics" }

func (s *metricsSink) Send(ctx context.Context, p notify.Payload) error {
	s.metrics.Transitions.Inc("to_group", p.Group)
	return nil
}

// ramp walks present-value 50 -> 110 -> -10 -> 50 ... on a one-second tick,
// crossing both limits and the deadband on every cycle.
func ramp(ctx context.Context, obj *objectstore.Object) {
	cell, ok := obj.Property("present-value")
	if !ok {
		return
	}
	value, step := 50.0, 10.0
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			value += step
			if value > 110 || value < -10 {
				step = -step
				value += 2 * step
			}
			if err := cell.Set(ctx, domain.RealValue(value)); err != nil {
				log.Printf("write present-value: %v", err)
			}
		}
	}
}

// builtinDescriptors is the enrollment used when no -descriptors directory
// is given: intrinsic OutOfRange over analog-input-1's own properties.
func builtinDescriptors() map[string]config.Descriptor {
	ref := func(prop string) config.ParamSource {
		return config.ParamSource{Ref: &config.PropertyRef{Object: "analog-input-1", Property: prop}}
	}
	return map[string]config.Descriptor{
		"analog-input-1-out-of-range": {
			ID:              "analog-input-1-out-of-range",
			Algorithm:       "out-of-range",
			MonitoredObject: "analog-input-1",
			Parameters: map[string]config.ParamSource{
				"pMonitoredValue": ref("present-value"),
				"pHighLimit":      ref("high-limit"),
				"pLowLimit":       ref("low-limit"),
				"pDeadband":       ref("deadband"),
			},
			MessageTemplates: []string{
				"{eventState}: value {pMonitoredValue} exceeded {pHighLimit}",
				"",
				"back to {eventState} at {timestamp}",
			},
		},
	}
}
