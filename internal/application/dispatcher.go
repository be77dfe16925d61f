package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/birthday-reminder/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Dispatch starts a push batch for eligible and returns its id without waiting
// for the gateway. The work is detached from ctx cancellation. An empty id
// means nothing in eligible wanted a push.
func (s *Service) Dispatch(ctx context.Context, eligible []domain.EligibleNotification) string {
	targets := pushTargets(eligible)
	if len(targets) == 0 {
		return ""
	}
	batchID := s.newBatchID()
	detached := context.WithoutCancel(ctx)
	go s.dispatchBatch(detached, batchID, targets)
	return batchID
}

// DispatchSync runs the same steps as Dispatch but waits for every chunk, the
// ticket store write and the reconciliation scheduling before returning.
func (s *Service) DispatchSync(ctx context.Context, eligible []domain.EligibleNotification) DispatchReport {
	targets := pushTargets(eligible)
	if len(targets) == 0 {
		return DispatchReport{}
	}
	return s.dispatchBatch(ctx, s.newBatchID(), targets)
}

func pushTargets(eligible []domain.EligibleNotification) []domain.EligibleNotification {
	out := make([]domain.EligibleNotification, 0, len(eligible))
	for _, n := range eligible {
		if n.WantsPush() {
			out = append(out, n)
		}
	}
	return out
}

func (s *Service) dispatchBatch(ctx context.Context, batchID string, targets []domain.EligibleNotification) DispatchReport {
	log := s.logger("dispatch_batch").With("batch_id", batchID)
	now := s.nowFn()

	messages := make([]domain.PushMessage, 0, len(targets))
	for _, n := range targets {
		messages = append(messages, domain.NewBirthdayPushMessage(n))
	}
	chunks := s.gateway.ChunkMessages(messages)

	outcomes := make([]domain.ChunkOutcome, len(chunks))
	results := make([][]domain.PushTicket, len(chunks))
	var g errgroup.Group
	g.SetLimit(s.cfg.SubmitConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			tickets, err := s.gateway.SendChunk(ctx, chunk)
			outcomes[i] = domain.ChunkOutcome{Index: i, Size: len(chunk), Err: err}
			if err == nil {
				results[i] = tickets
			}
			return nil
		})
	}
	_ = g.Wait()

	report := DispatchReport{BatchID: batchID, MessageCount: len(messages), Chunks: outcomes}
	all := make([]domain.PushTicket, 0, len(messages))
	sent := make([]domain.NotificationRecord, 0, len(messages))
	offset := 0
	for i, chunk := range chunks {
		outcome := outcomes[i]
		if outcome.Failed() {
			log.ErrorContext(ctx, "push chunk submission failed",
				"outcome", "failure",
				"chunk_index", i,
				"chunk_size", len(chunk),
				"error", outcome.Err,
			)
			offset += len(chunk)
			continue
		}
		tickets := results[i]
		aligned := len(tickets) == len(chunk)
		if !aligned {
			log.WarnContext(ctx, "gateway returned unexpected ticket count",
				"outcome", "warning",
				"chunk_index", i,
				"chunk_size", len(chunk),
				"ticket_count", len(tickets),
			)
		}
		for j, ticket := range tickets {
			all = append(all, ticket)
			if ticket.Status != domain.TicketStatusOK {
				report.ErrorTicketCount++
				fields := []any{
					"outcome", "failure",
					"chunk_index", i,
					"ticket_index", j,
					"message", ticket.Message,
				}
				if aligned {
					fields = append(fields, "user_id", targets[offset+j].UserID, "friend_id", targets[offset+j].FriendID)
				}
				if ticket.Details != nil && ticket.Details.Error != "" {
					fields = append(fields, "error_code", ticket.Details.Error)
				}
				log.WarnContext(ctx, "push ticket reported submission error", fields...)
				continue
			}
			if !aligned {
				continue
			}
			if record, ok := sentRecord(targets[offset+j], now); ok {
				sent = append(sent, record)
			}
		}
		offset += len(chunk)
	}
	report.TicketCount = len(all)

	payload, err := json.Marshal(domain.DispatchBatch{BatchID: batchID, CreatedAt: now, Tickets: all})
	if err != nil {
		log.ErrorContext(ctx, "encode dispatch batch failed", "outcome", "failure", "error", err)
	} else if err := s.tickets.Put(ctx, batchID, string(payload), s.cfg.TicketTTL); err != nil {
		log.ErrorContext(ctx, "store dispatch tickets failed", "outcome", "failure", "error", err)
	} else {
		report.Stored = true
	}

	s.batches.pending(batchID, len(all), now)
	s.scheduler.Schedule(s.cfg.ReconcileDelay, func() {
		s.Reconcile(context.Background(), batchID)
	})
	report.Scheduled = true

	if len(sent) > 0 && s.records != nil {
		if err := s.records.RecordSent(ctx, sent); err != nil {
			log.WarnContext(ctx, "record sent notifications failed",
				"outcome", "warning",
				"record_count", len(sent),
				"error", err,
			)
		}
	}

	s.publishEvent(ctx, "birthday_reminder.batch_dispatched", batchID, batchDispatchedEventData{
		BatchID:          batchID,
		MessageCount:     report.MessageCount,
		TicketCount:      report.TicketCount,
		ErrorTicketCount: report.ErrorTicketCount,
		FailedChunks:     report.FailedChunks(),
	})

	log.InfoContext(ctx, "push batch dispatched",
		"outcome", "success",
		"message_count", report.MessageCount,
		"chunk_count", len(chunks),
		"failed_chunks", report.FailedChunks(),
		"ticket_count", report.TicketCount,
		"error_ticket_count", report.ErrorTicketCount,
		"stored", report.Stored,
	)
	return report
}

func sentRecord(n domain.EligibleNotification, now time.Time) (domain.NotificationRecord, bool) {
	userID, err := uuid.Parse(n.UserID)
	if err != nil {
		return domain.NotificationRecord{}, false
	}
	friendID, err := uuid.Parse(n.FriendID)
	if err != nil {
		return domain.NotificationRecord{}, false
	}
	return domain.NotificationRecord{
		NotificationID: uuid.New(),
		UserID:         userID,
		FriendID:       friendID,
		Channel:        domain.ChannelPush,
		DateSent:       now,
	}, true
}
