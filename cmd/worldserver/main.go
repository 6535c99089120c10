package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/world-simulator/internal/config"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/observability"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/internal/transport/ws"
	"github.com/signalsfoundry/world-simulator/internal/world"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

const serviceName = "world.Simulator"

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration (defaults to $WORLD_CONFIG)")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error(ctx, "failed to load configuration", logging.Err(err))
		os.Exit(1)
	}
	log := logging.New(logging.Config{
		Level:     cfg.Log.LevelOrEnv(),
		Format:    cfg.Log.FormatOrEnv(),
		AddSource: true,
	})

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	wsLis, err := net.Listen("tcp", cfg.Server.GetListenAddr())
	if err != nil {
		log.Error(ctx, "failed to listen for websockets", logging.String("addr", cfg.Server.GetListenAddr()), logging.Err(err))
		os.Exit(1)
	}
	healthLis, err := net.Listen("tcp", cfg.Server.GetHealthAddr())
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC health", logging.String("addr", cfg.Server.GetHealthAddr()), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(stopCtx, cfg, log, wsLis, healthLis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves the simulation on the given listeners until ctx is done.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, wsLis, healthLis net.Listener) error {
	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return err
	}
	schedCollector, err := observability.NewSchedulerCollector(nil)
	if err != nil {
		return err
	}

	var journal *proxy.Journal
	if dir := cfg.Journal.GetJournalDir(); dir != "" {
		journal = proxy.NewJournal(dir, cfg.Journal.Prefix, timectrl.WallClock{}, log)
		defer func() {
			if err := journal.Close(); err != nil {
				log.Warn(context.Background(), "journal close failed", logging.Err(err))
			}
		}()
		log.Info(ctx, "journaling actions", logging.String("dir", dir))
	}

	deps := world.Deps{
		Log:              log,
		StateMetrics:     collector,
		EngineMetrics:    collector,
		SchedulerMetrics: schedCollector,
	}
	if journal != nil {
		deps.Output = journal
	}
	w, err := world.Build(cfg, deps)
	if err != nil {
		return err
	}

	gw := ws.NewServer(w.Engine, log)
	mux := http.NewServeMux()
	mux.Handle("/ws", gw.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	wsSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			observability.LoggingUnaryServerInterceptor(log),
			collector.UnaryServerInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	metricsSrv := serveMetrics(cfg.Server.GetMetricsAddr(), collector, log)

	g, gctx := errgroup.WithContext(ctx)

	w.Engine.Start()
	g.Go(func() error {
		err := w.Engine.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info(gctx, "serving websockets", logging.String("addr", wsLis.Addr().String()))
		if err := wsSrv.Serve(wsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info(gctx, "serving gRPC health", logging.String("addr", healthLis.Addr().String()))
		return grpcSrv.Serve(healthLis)
	})

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down world server")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = wsSrv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		grpcSrv.GracefulStop()
		return nil
	})

	return g.Wait()
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" || addr == "off" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
