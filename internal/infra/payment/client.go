// Package payment talks to the payment gateway's server-to-server
// status-check endpoint. Webhook claims are never trusted on their own; every
// tier change goes through this round trip first.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"prepquiz-service/internal/domain"
)

// Client queries the gateway's transaction status endpoint.
type Client struct {
	baseURL string
	apiKey  string
	siteID  string
	http    *http.Client
}

func NewClient(baseURL, apiKey, siteID string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		siteID:  siteID,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type checkRequest struct {
	APIKey        string `json:"apikey"`
	SiteID        string `json:"site_id"`
	TransactionID string `json:"transaction_id"`
}

type checkResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int    `json:"amount"`
		Currency string `json:"currency"`
		Metadata struct {
			UserID   string `json:"userId"`
			PlanDays string `json:"planDays"`
		} `json:"metadata"`
	} `json:"data"`
}

// CheckTransaction fetches the verified status of a transaction.
func (c *Client) CheckTransaction(ctx context.Context, transactionID string) (domain.Transaction, error) {
	body, err := json.Marshal(checkRequest{
		APIKey:        c.apiKey,
		SiteID:        c.siteID,
		TransactionID: transactionID,
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("marshal check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/payment/check", bytes.NewReader(body))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("check transaction %s: %w", transactionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Transaction{}, fmt.Errorf("check transaction %s: gateway returned %d", transactionID, resp.StatusCode)
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Transaction{}, fmt.Errorf("decode check response for %s: %w", transactionID, err)
	}

	planDays := 0
	if parsed.Data.Metadata.PlanDays != "" {
		if n, err := strconv.Atoi(parsed.Data.Metadata.PlanDays); err == nil {
			planDays = n
		}
	}
	return domain.Transaction{
		ID:       transactionID,
		Status:   parsed.Data.Status,
		UserID:   parsed.Data.Metadata.UserID,
		Amount:   parsed.Data.Amount,
		Currency: parsed.Data.Currency,
		PlanDays: planDays,
	}, nil
}
