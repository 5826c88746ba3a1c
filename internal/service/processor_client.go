package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProcessorClient реализует domain.ProcessorClient поверх REST API
// платежного процессора
type HTTPProcessorClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewProcessorClient создает новый HTTPProcessorClient
func NewProcessorClient(baseURL, apiKey string) *HTTPProcessorClient {
	return &HTTPProcessorClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type refundRequest struct {
	ChargeID        string `json:"charge,omitempty"`
	PaymentIntentID string `json:"payment_intent,omitempty"`
	Amount          int64  `json:"amount"`
	Reason          string `json:"reason,omitempty"`
}

// CreateRefund создает возврат средств по charge или intent
func (c *HTTPProcessorClient) CreateRefund(ctx context.Context, chargeID, paymentIntentID string, amountMinor int64, reason string) error {
	body, err := json.Marshal(refundRequest{
		ChargeID:        chargeID,
		PaymentIntentID: paymentIntentID,
		Amount:          amountMinor,
		Reason:          reason,
	})
	if err != nil {
		return fmt.Errorf("processor client: failed to marshal refund: %w", err)
	}

	url := fmt.Sprintf("%s/v1/refunds", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("processor client: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("processor client: failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("processor client: unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
