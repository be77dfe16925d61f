package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

// Provider limits for a single request.
const (
	MaxMessagesPerRequest   = 100
	MaxReceiptIDsPerRequest = 300
)

const DefaultBaseURL = "https://exp.host/--/api/v2/push"

var ErrGatewayResponse = errors.New("push gateway error response")

// ExpoClient talks to an Expo-compatible push service over JSON/HTTP.
type ExpoClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewExpoClient(baseURL, accessToken string, timeout time.Duration) *ExpoClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExpoClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: strings.TrimSpace(accessToken),
	}
}

type wireMessage struct {
	To    string `json:"to"`
	Sound string `json:"sound,omitempty"`
	Body  string `json:"body"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sendResponse struct {
	Data   []domain.PushTicket `json:"data"`
	Errors []wireError         `json:"errors,omitempty"`
}

type receiptsRequest struct {
	IDs []string `json:"ids"`
}

type receiptsResponse struct {
	Data   map[string]domain.PushReceipt `json:"data"`
	Errors []wireError                   `json:"errors,omitempty"`
}

func (c *ExpoClient) ChunkMessages(messages []domain.PushMessage) [][]domain.PushMessage {
	return chunk(messages, MaxMessagesPerRequest)
}

func (c *ExpoClient) ChunkReceiptIDs(ids []string) [][]string {
	return chunk(ids, MaxReceiptIDsPerRequest)
}

// SendChunk submits one chunk and returns one ticket per message, in order.
func (c *ExpoClient) SendChunk(ctx context.Context, messages []domain.PushMessage) ([]domain.PushTicket, error) {
	body := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		body = append(body, wireMessage{To: m.To, Sound: m.Sound, Body: m.Body})
	}
	var out sendResponse
	if err := c.postJSON(ctx, "/send", body, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrGatewayResponse, describe(out.Errors))
	}
	return out.Data, nil
}

// GetReceipts fetches receipts for ids. Receipts that are not ready yet are
// absent from the returned map.
func (c *ExpoClient) GetReceipts(ctx context.Context, ids []string) (map[string]domain.PushReceipt, error) {
	var out receiptsResponse
	if err := c.postJSON(ctx, "/getReceipts", receiptsRequest{IDs: ids}, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrGatewayResponse, describe(out.Errors))
	}
	if out.Data == nil {
		out.Data = map[string]domain.PushReceipt{}
	}
	return out.Data, nil
}

func (c *ExpoClient) postJSON(ctx context.Context, path string, body any, result any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode push request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: status=%d body=%s", ErrGatewayResponse, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	return nil
}

func describe(errs []wireError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Code+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}
