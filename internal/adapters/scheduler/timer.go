package scheduler

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// TimerScheduler runs each task once on its own timer. Tasks cannot be
// cancelled and are lost if the process exits first.
type TimerScheduler struct {
	logger  *slog.Logger
	pending atomic.Int64
}

func NewTimerScheduler(logger *slog.Logger) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerScheduler{logger: logger}
}

func (s *TimerScheduler) Schedule(delay time.Duration, task func()) {
	if delay < 0 {
		delay = 0
	}
	s.pending.Add(1)
	time.AfterFunc(delay, func() {
		defer s.pending.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked",
					"module", "scheduler",
					"layer", "adapter",
					"operation", "run_task",
					"outcome", "failure",
					"panic", r,
				)
			}
		}()
		task()
	})
}

// Pending is the number of tasks whose timer has not finished running.
func (s *TimerScheduler) Pending() int64 {
	return s.pending.Load()
}
