package ports

import (
	"context"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

// PushGateway is the push provider contract. Chunk sizes are owned by the
// provider; callers must submit exactly the chunks the gateway hands back.
type PushGateway interface {
	ChunkMessages(messages []domain.PushMessage) [][]domain.PushMessage
	SendChunk(ctx context.Context, chunk []domain.PushMessage) ([]domain.PushTicket, error)
	ChunkReceiptIDs(ids []string) [][]string
	GetReceipts(ctx context.Context, ids []string) (map[string]domain.PushReceipt, error)
}
