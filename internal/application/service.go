package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/birthday-reminder/internal/ports"
)

const (
	DefaultCutoffHours    = 96
	DefaultClearanceHours = 24
	DefaultReconcileDelay = 60 * time.Second
)

type Service struct {
	cfg        Config
	candidates ports.EligibilityRepository
	records    ports.NotificationRecordRepository
	gateway    ports.PushGateway
	tickets    ports.TicketStore
	scheduler  ports.Scheduler
	publisher  ports.EventPublisher
	batches    *batchTracker
	nowFn      func() time.Time
	newBatchID func() string
}

type Dependencies struct {
	Config     Config
	Candidates ports.EligibilityRepository
	Records    ports.NotificationRecordRepository
	Gateway    ports.PushGateway
	Tickets    ports.TicketStore
	Scheduler  ports.Scheduler
	Publisher  ports.EventPublisher
	Clock      func() time.Time
	BatchIDs   func() string
}

// DefaultConfig returns the standard reminder windows and timings. NewService
// takes the cutoff and clearance windows as given, since zero is valid for both.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "birthday-reminder-service",
		CutoffHours:       DefaultCutoffHours,
		ClearanceHours:    DefaultClearanceHours,
		ReconcileDelay:    DefaultReconcileDelay,
		TicketTTL:         15 * time.Minute,
		SubmitConcurrency: 4,
	}
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "birthday-reminder-service"
	}
	if cfg.ReconcileDelay <= 0 {
		cfg.ReconcileDelay = DefaultReconcileDelay
	}
	if cfg.TicketTTL < cfg.ReconcileDelay {
		cfg.TicketTTL = 10 * cfg.ReconcileDelay
	}
	if cfg.SubmitConcurrency <= 0 {
		cfg.SubmitConcurrency = 4
	}
	if cfg.BatchStateRetention <= 0 {
		cfg.BatchStateRetention = time.Hour
	}

	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	newBatchID := deps.BatchIDs
	if newBatchID == nil {
		newBatchID = newDispatchBatchID
	}

	return &Service{
		cfg:        cfg,
		candidates: deps.Candidates,
		records:    deps.Records,
		gateway:    deps.Gateway,
		tickets:    deps.Tickets,
		scheduler:  deps.Scheduler,
		publisher:  deps.Publisher,
		batches:    newBatchTracker(cfg.BatchStateRetention),
		nowFn:      nowFn,
		newBatchID: newBatchID,
	}
}

func (s *Service) Config() Config { return s.cfg }

func (s *Service) logger(operation string) *slog.Logger {
	return slog.Default().With(
		"service", s.cfg.ServiceName,
		"module", "application",
		"layer", "application",
		"operation", operation,
	)
}
