package notify

import (
	"bytes"
	"context"
	"correspondence-tracker/internal/domain"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier posts transfer events to an external endpoint.
type WebhookNotifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewWebhookNotifier(baseURL string) *WebhookNotifier {
	return &WebhookNotifier{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type eventPayload struct {
	Event       string  `json:"event"`
	TransferID  uint64  `json:"transfer_id"`
	DocumentID  uint64  `json:"document_id"`
	SenderID    uint64  `json:"sender_id"`
	RecipientID uint64  `json:"recipient_id"`
	Signature   *string `json:"signature,omitempty"`
}

func (n *WebhookNotifier) TransferCreated(ctx context.Context, t *domain.Transfer) error {
	return n.post(ctx, eventPayload{
		Event:       EventTransferCreated,
		TransferID:  t.ID,
		DocumentID:  t.DocumentID,
		SenderID:    t.SenderID,
		RecipientID: t.RecipientID,
	})
}

func (n *WebhookNotifier) TransferAcknowledged(ctx context.Context, t *domain.Transfer) error {
	return n.post(ctx, eventPayload{
		Event:       EventTransferAcknowledged,
		TransferID:  t.ID,
		DocumentID:  t.DocumentID,
		SenderID:    t.SenderID,
		RecipientID: t.RecipientID,
		Signature:   t.Signature,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, payload eventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		n.baseURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"notify webhook error: status=%d body=%s",
			resp.StatusCode,
			string(b),
		)
	}

	return nil
}
