package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"lltree/api/grpcserver"
	"lltree/config"
	"lltree/infra/kafka"
	"lltree/infra/metrics"
	entrywal "lltree/infra/wal/entry"
	exitwal "lltree/infra/wal/exit"
	"lltree/jobs/broadcaster"
	"lltree/service"
	"lltree/snapshot"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Recover state and serve the gRPC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}
			slog.SetDefault(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// ---------------- Metrics ----------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ---------------- Entry WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             cfg.WAL.Dir,
		SegmentSize:     cfg.WAL.SegmentSize,
		SegmentDuration: cfg.WAL.SegmentDuration,
		SyncEachAppend:  cfg.WAL.SyncEachAppend,
		Logger:          log,
	})
	if err != nil {
		return errors.Wrap(err, "entry WAL init failed")
	}
	defer entryWAL.Close()

	// ---------------- Exit WAL ----------------

	outbox, err := exitwal.Open(cfg.Outbox.Dir, exitwal.Options{Logger: log, Sync: cfg.Outbox.Sync})
	if err != nil {
		return errors.Wrap(err, "outbox init failed")
	}
	defer outbox.Close()

	// ---------------- Service ----------------

	svc, err := service.NewOrderService(service.Deps{
		WAL:               entryWAL,
		Outbox:            outbox,
		Metrics:           m,
		Logger:            log,
		RetireRingSize:    cfg.Engine.RetireRingSize,
		VerifyEachCommand: cfg.Engine.VerifyEachCommand,
	})
	if err != nil {
		return err
	}

	// ---------------- Recovery ----------------

	snapWriter := &snapshot.Writer{Dir: cfg.Snapshot.Dir}
	if _, err := svc.Recover(snapWriter.Path()); err != nil {
		return errors.Wrap(err, "recovery failed")
	}

	// ---------------- Publisher & Listener ----------------
	// Everything that can fail is built before the first goroutine starts.

	var pub kafka.Publisher
	if cfg.Kafka.Enabled {
		pub, err = kafka.New(kafka.Config{
			Client:     cfg.Kafka.Client,
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.Topic,
			MaxRetries: int(cfg.Kafka.MaxRetries),
		})
		if err != nil {
			return errors.Wrap(err, "kafka init failed")
		}
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		if pub != nil {
			_ = pub.Close()
		}
		return errors.Wrapf(err, "listen %s", cfg.GRPC.Addr)
	}

	// ---------------- Background Jobs ----------------

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return svc.RunReclaimer(ctx, cfg.Engine.ReclaimInterval) })

	if cfg.Snapshot.Interval > 0 {
		g.Go(func() error { return svc.RunSnapshots(ctx, snapWriter, cfg.Snapshot.Interval) })
	}

	if pub != nil {
		bc := broadcaster.New(outbox, pub, broadcaster.Config{
			Interval:   cfg.Kafka.Interval,
			BatchSize:  cfg.Kafka.BatchSize,
			MaxRetries: cfg.Kafka.MaxRetries,
		}, m, log)
		defer bc.Close()
		g.Go(func() error { return bc.Run(ctx) })
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		hs := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})
	}

	// ---------------- gRPC ----------------

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcserver.LoggingInterceptor(log)))
	grpcserver.RegisterOrderBookServer(grpcSrv, grpcserver.NewServer(svc, log))

	g.Go(func() error {
		log.Info("engine running", "grpc_addr", lis.Addr().String(),
			"wal_dir", cfg.WAL.Dir, "snapshot", filepath.Clean(snapWriter.Path()))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return errors.Wrap(err, "grpc server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		grpcSrv.GracefulStop()
		return nil
	})

	err = g.Wait()

	// A final snapshot shortens the next recovery.
	if _, serr := svc.TakeSnapshot(snapWriter); serr != nil {
		log.Warn("final snapshot failed", "err", serr)
	}
	log.Info("engine stopped")
	return err
}
