package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"allat.local/gee"
	"allat.local/gee/middleware"
	"allat.local/internal/app/summary"
	"allat.local/internal/app/summary/events"
	"allat.local/internal/app/summary/httpapi"
	"allat.local/internal/app/summary/session"
	"allat.local/internal/app/summary/transcript"
	"allat.local/internal/platform/config"
	"allat.local/internal/platform/httpmiddleware"
	"allat.local/internal/platform/httpserver"
	"allat.local/internal/platform/logging"
	"allat.local/internal/platform/metrics"
	"allat.local/internal/platform/ratelimit"
	"allat.local/internal/platform/redisclient"
	"allat.local/internal/platform/trace"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics.Init()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if err != nil {
			slog.Error("trace init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error("trace shutdown failed", "err", err)
				}
			}()
		}
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	// Redis is only needed for the shared rate limiter.
	var redisClient *redis.Client
	var limiter ratelimit.Limiter
	switch {
	case !cfg.RateLimitEnabled:
		slog.Warn("rate limit disabled by config", "RATELIMIT_ENABLED", false)
	case cfg.RateLimitBackend == "redis":
		rc, err := redisclient.New(stopCtx, cfg.Redis)
		if err != nil {
			log.Fatal(err)
		}
		defer rc.Close()
		redisClient = rc
		limiter = ratelimit.NewRedis(rc)
	default:
		limiter = ratelimit.NewLocal()
	}

	client, err := transcript.NewClient(transcript.Config{
		BaseURL: cfg.SummarizerBaseURL,
		Timeout: cfg.SummarizerTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Submission events: Kafka when enabled, otherwise an in-memory channel
	// drained into the log.
	var collector events.Collector
	var runConsumer func(context.Context)
	if cfg.Kafka.Enabled {
		slog.Info("submission events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		collector = events.NewKafkaCollector(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		kafkaConsumer := events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, events.LogSink)
		defer kafkaConsumer.Close()
		runConsumer = kafkaConsumer.Run
	} else {
		channelCollector := events.NewChannelCollector(cfg.EventBuf)
		collector = channelCollector
		runConsumer = events.NewConsumer(channelCollector.Events(), events.LogSink).Run
	}

	store, err := session.NewStore(session.Config{
		IdleTTL:       cfg.SessionIdleTTL,
		MaxSessions:   cfg.SessionMax,
		SweepInterval: cfg.SessionSweepInterval,
	}, func(sessionID string) *summary.Controller {
		return summary.NewController(client, summary.WithObserver(events.Observer(sessionID, collector)))
	})
	if err != nil {
		log.Fatal(err)
	}

	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())

	httpapi.RegisterWebRoutes(r)
	httpapi.RegisterHealthRoutes(r)
	httpapi.RegisterAPIRoutes(r.Group("/api/v1"), store, limiter, cfg.SubmitRateLimit)

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)
	adminSrv := httpserver.NewAdmin(cfg, adminMux(cfg, redisClient))

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		store.Run(stopCtx)
	}()
	go func() {
		defer workers.Done()
		runConsumer(stopCtx)
	}()

	errch := make(chan error, 2)
	go func() {
		errch <- httpserver.Run(stopCtx, publicSrv, cfg.ShutdownTimeout)
	}()
	go func() {
		errch <- httpserver.Run(stopCtx, adminSrv, cfg.ShutdownTimeout)
	}()

	err = <-errch
	stop()
	select {
	case err2 := <-errch:
		if err == nil {
			err = err2
		}
	case <-time.After(cfg.ShutdownTimeout + time.Second):
	}

	// Sessions close first so no observer fires into a closed collector.
	workers.Wait()
	collector.Close()

	if err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// adminMux serves metrics, readiness, version and optionally pprof. It is
// meant for loopback or the internal network only.
func adminMux(cfg config.Config, redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisclient.Ping(r.Context(), redisClient); err != nil {
				http.Error(w, "redis ping failed", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
