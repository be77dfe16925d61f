package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/birthday-reminder/internal/adapters/cache"
	eventadapter "github.com/viralforge/birthday-reminder/internal/adapters/events"
	httpadapter "github.com/viralforge/birthday-reminder/internal/adapters/http"
	"github.com/viralforge/birthday-reminder/internal/adapters/postgres"
	"github.com/viralforge/birthday-reminder/internal/adapters/push"
	"github.com/viralforge/birthday-reminder/internal/adapters/scheduler"
	"github.com/viralforge/birthday-reminder/internal/adapters/security"
	"github.com/viralforge/birthday-reminder/internal/application"
	"github.com/viralforge/birthday-reminder/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcHealth *health.Server
	worker     *eventadapter.ReminderWorker
	scheduler  *scheduler.TimerScheduler
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	logger.Info("bootstrapping birthday reminder service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"cutoff_hours", cfg.CutoffHours,
		"clearance_hours", cfg.ClearanceHours,
	)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	closers = append(closers, func() { _ = sqlDB.Close() })
	if err := postgres.RunMigrations(ctx, db); err != nil {
		cleanup()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	repos := postgres.NewRepositories(db)

	var tickets ports.TicketStore
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		tickets = cacheadapter.NewRedisTicketStore(redisClient)
	} else {
		logger.Warn("REDIS_URL not set, dispatch tickets are kept in process memory")
		tickets = cacheadapter.NewMemoryTicketStore()
	}

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicBatchEvents, nil)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		closers = append(closers, func() { _ = kafkaPublisher.Close() })
		publisher = kafkaPublisher
	} else {
		publisher = eventadapter.NewLoggingPublisher(logger)
	}

	timers := scheduler.NewTimerScheduler(logger)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:       cfg.ServiceID,
			CutoffHours:       cfg.CutoffHours,
			ClearanceHours:    cfg.ClearanceHours,
			ReconcileDelay:    cfg.ReconcileDelay,
			TicketTTL:         cfg.TicketTTL,
			SubmitConcurrency: cfg.SubmitConcurrency,
		},
		Candidates: repos.Candidates,
		Records:    repos.Notifications,
		Gateway:    push.NewExpoClient(cfg.PushGatewayURL, cfg.PushAccessToken, cfg.PushHTTPTimeout),
		Tickets:    tickets,
		Scheduler:  timers,
		Publisher:  publisher,
	})

	var verifier ports.AdminTokenVerifier
	if cfg.AdminJWTSecret != "" {
		adminVerifier, err := security.NewHMACVerifier(cfg.AdminJWTSecret)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("init admin token verifier: %w", err)
		}
		verifier = adminVerifier
	} else {
		logger.Warn("ADMIN_JWT_SECRET not set, admin API is disabled")
	}

	ready := func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
	router := httpadapter.NewRouter(httpadapter.NewHandler(svc, verifier, ready))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcHealth: healthSrv,
		worker:     eventadapter.NewReminderWorker(logger, svc, cfg.RunInterval, cfg.RunOnStart),
		scheduler:  timers,
		cleanupFn: func(context.Context) {
			cleanup()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(context.Background())
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	r.grpcHealth.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.logPendingReconciliations()
	r.cleanupFn(shutdownCtx)
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("reminder worker started", "interval", r.cfg.RunInterval.String(), "run_on_start", r.cfg.RunOnStart)
	err := r.worker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.logPendingReconciliations()
	r.cleanupFn(shutdownCtx)
	return nil
}

// Scheduled reconciliations do not survive the process.
func (r *Runtime) logPendingReconciliations() {
	if pending := r.scheduler.Pending(); pending > 0 {
		r.logger.Warn("dropping pending batch reconciliations on shutdown", "pending", pending)
	}
}
