package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

// Reconcile polls delivery receipts for a dispatched batch. The stored tickets
// are taken out of the ticket store, so a second call for the same batch, or a
// call for a batch that never existed or already expired, does nothing.
func (s *Service) Reconcile(ctx context.Context, batchID string) ReconcileReport {
	log := s.logger("reconcile_batch").With("batch_id", batchID)
	report := ReconcileReport{BatchID: batchID}

	raw, found, err := s.tickets.Take(ctx, batchID)
	if err != nil {
		log.WarnContext(ctx, "ticket store read failed", "outcome", "failure", "error", err)
	}
	if !found {
		if s.batches.settle(batchID, domain.BatchStateLost, s.nowFn()) {
			log.WarnContext(ctx, "dispatch batch lost before reconciliation", "outcome", "lost")
		}
		return report
	}
	report.Found = true
	defer s.batches.settle(batchID, domain.BatchStateReconciled, s.nowFn())

	batch, err := decodeDispatchBatch(raw)
	if err != nil {
		log.ErrorContext(ctx, "decode dispatch batch failed", "outcome", "failure", "error", err)
		return report
	}

	ids := batch.ReceiptIDs()
	report.ReceiptCount = len(ids)
	if len(ids) == 0 {
		log.InfoContext(ctx, "dispatch batch has no receipts to poll", "outcome", "success")
		return report
	}

	chunks := s.gateway.ChunkReceiptIDs(ids)
	report.Chunks = make([]domain.ChunkOutcome, 0, len(chunks))
	for i, chunk := range chunks {
		receipts, err := s.gateway.GetReceipts(ctx, chunk)
		report.Chunks = append(report.Chunks, domain.ChunkOutcome{Index: i, Size: len(chunk), Err: err})
		if err != nil {
			log.ErrorContext(ctx, "push receipt poll failed",
				"outcome", "failure",
				"chunk_index", i,
				"chunk_size", len(chunk),
				"error", err,
			)
			continue
		}
		for _, id := range chunk {
			receipt, ok := receipts[id]
			if !ok {
				report.MissingCount++
				continue
			}
			switch receipt.Status {
			case domain.TicketStatusOK:
				report.OKCount++
			case domain.TicketStatusError:
				report.ErrorCount++
				fields := []any{
					"outcome", "failure",
					"receipt_id", id,
					"message", receipt.Message,
				}
				if receipt.Details != nil && receipt.Details.Error != "" {
					fields = append(fields, "error_code", receipt.Details.Error)
				}
				log.ErrorContext(ctx, "push delivery failed", fields...)
			default:
				report.MissingCount++
				log.WarnContext(ctx, "push receipt has unknown status",
					"outcome", "warning",
					"receipt_id", id,
					"status", string(receipt.Status),
				)
			}
		}
	}

	failedChunks := 0
	for _, c := range report.Chunks {
		if c.Failed() {
			failedChunks++
		}
	}
	s.publishEvent(ctx, "birthday_reminder.batch_reconciled", batchID, batchReconciledEventData{
		BatchID:      batchID,
		ReceiptCount: report.ReceiptCount,
		OKCount:      report.OKCount,
		ErrorCount:   report.ErrorCount,
		MissingCount: report.MissingCount,
		FailedChunks: failedChunks,
	})
	log.InfoContext(ctx, "dispatch batch reconciled",
		"outcome", "success",
		"receipt_count", report.ReceiptCount,
		"ok_count", report.OKCount,
		"error_count", report.ErrorCount,
		"missing_count", report.MissingCount,
		"failed_chunks", failedChunks,
	)
	return report
}

func decodeDispatchBatch(raw string) (domain.DispatchBatch, error) {
	var batch domain.DispatchBatch
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return domain.DispatchBatch{}, fmt.Errorf("%w: %v", domain.ErrMalformedBatch, err)
	}
	return batch, nil
}

// BatchStatus reports the lifecycle state of a batch dispatched by this process.
func (s *Service) BatchStatus(batchID string) (BatchStatusResponse, error) {
	status, ok := s.batches.get(batchID)
	if !ok {
		return BatchStatusResponse{}, domain.ErrNotFound
	}
	return BatchStatusResponse{
		BatchID:     status.BatchID,
		State:       string(status.State),
		TicketCount: status.TicketCount,
		CreatedAt:   status.CreatedAt.Format(timeLayout),
		UpdatedAt:   status.UpdatedAt.Format(timeLayout),
	}, nil
}
