package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/platform/config"
	"forkful/internal/platform/httpserver"
	"forkful/internal/platform/logger"
	"forkful/internal/platform/metrics"
	"forkful/internal/platform/postgres"
	"forkful/internal/platform/redis"
	"forkful/internal/state"
	"forkful/internal/tokenstore"
)

// main wires the client stack and dispatches one command. Everything that
// needs closing is closed before exit.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "forkful:", err)
		}
		os.Exit(1)
	}
}

// app is what every command runs against.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	tokens tokenstore.Store
	client *api.Client
	store  *state.Store
	out    io.Writer
}

func newApp(cfg config.Config, log *slog.Logger, m *metrics.Metrics, tokens tokenstore.Store, publisher activity.Publisher, out io.Writer) *app {
	client := api.New(cfg.API.BaseURL, tokens,
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithLogger(log),
		api.WithMetrics(m),
	)
	return &app{
		cfg:    cfg,
		logger: log,
		tokens: tokens,
		client: client,
		store: state.New(state.Deps{Client: client, Tokens: tokens},
			state.WithLogger(log),
			state.WithActivity(publisher),
		),
		out: out,
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return errUsage
	}
	name := args[0]
	args, yes := splitYes(args[1:])
	if len(args) < cmd.minArgs {
		fmt.Fprintf(stderr, "usage: forkful %s %s\n", name, cmd.usage)
		return errUsage
	}
	if cmd.confirm != nil && !yes {
		ok, err := confirm(stdin, stdout, cmd.confirm(args))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "aborted")
			return nil
		}
	}

	cfg := config.FromEnv()
	log := logger.NewWithWriter(stderr, cfg.Log.Level, cfg.Log.Format)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	stopMetrics := serveMetrics(cfg.MetricsAddr, reg, log)
	defer stopMetrics()

	publisher, stopActivity, err := openActivity(ctx, cfg.Activity, log, m)
	if err != nil {
		return err
	}
	defer stopActivity()

	if cmd.standalone != nil {
		return cmd.standalone(ctx, cfg, log, m, publisher, stdout, args)
	}

	tokens, closeBackends, err := openTokenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackends()

	a := newApp(cfg, log, m, tokens, publisher, stdout)
	if _, err := a.store.Auth.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return cmd.run(ctx, a, args)
}

// openTokenStore connects whichever backend the configuration selects.
func openTokenStore(ctx context.Context, cfg config.Config) (tokenstore.Store, func(), error) {
	var backends tokenstore.Backends
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	switch cfg.TokenStore.Backend {
	case config.TokenStoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, closeAll, fmt.Errorf("connect redis: %w", err)
		}
		if client != nil {
			backends.Redis = client.Client
			closers = append(closers, func() { _ = client.Close() })
		}
	case config.TokenStorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, closeAll, fmt.Errorf("connect postgres: %w", err)
		}
		if db != nil {
			backends.Postgres = db
			closers = append(closers, func() { _ = db.Close() })
		}
	}

	store, err := tokenstore.Open(ctx, cfg.TokenStore, backends)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	return store, closeAll, nil
}

// openActivity returns a Kafka-backed buffered publisher when brokers are
// configured and an in-memory trail otherwise. The returned stop func drains
// the buffer before closing the producer.
func openActivity(ctx context.Context, cfg config.ActivityConfig, log *slog.Logger, m *metrics.Metrics) (activity.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		return activity.NewMemoryStore(), func() {}, nil
	}
	sink, err := activity.NewKafkaSink(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 5*time.Second)
	defer cancelEnsure()
	if err := sink.EnsureTopic(ensureCtx, 1, 1); err != nil {
		log.WarnContext(ctx, "could not ensure activity topic", "topic", cfg.Topic, "error", err)
	}

	buffered := activity.NewBuffered(sink,
		activity.WithBufferSize(cfg.BufferSize),
		activity.WithLogger(log),
		activity.WithMetrics(m),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		_ = buffered.Run(runCtx)
	}()
	return buffered, func() {
		cancel()
		<-buffered.Done()
		sink.Close()
	}, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	if addr == "" {
		return func() {}
	}
	srv := httpserver.New(addr, httpserver.MetricsRouter(reg))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "addr", addr, "error", err)
		}
	}()
	log.Info("metrics listener started", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
