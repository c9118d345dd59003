package reward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/apperrors"
)

const requestTimeout = 5 * time.Second

// Client is the adapter to the external reward ledger. Awards are
// idempotent per (sessionID, tierKey): the engine guards with its local
// bookkeeping, and the idempotency key lets the ledger deduplicate on its
// side as the final arbiter.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type awardRequest struct {
	Amount         int    `json:"amount"`
	Reason         string `json:"reason"`
	Recipient      string `json:"recipient"`
	RelatedID      string `json:"relatedId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// AwardOnce credits (or debits, for penalties) points against the ledger.
// Failures are reported to the caller for logging but are never fatal to
// gameplay.
func (c *Client) AwardOnce(ctx context.Context, sessionID, tierKey, recipient string, amount int, reason string) error {
	payload := awardRequest{
		Amount:         amount,
		Reason:         reason,
		Recipient:      recipient,
		RelatedID:      sessionID,
		IdempotencyKey: fmt.Sprintf("%s:%s", sessionID, tierKey),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.External("reward ledger", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/awards", bytes.NewReader(body))
	if err != nil {
		return apperrors.External("reward ledger", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", payload.IdempotencyKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.External("reward ledger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.External("reward ledger", fmt.Errorf("status %d", resp.StatusCode))
	}

	log.Debug().
		Str("sessionId", sessionID).
		Str("tierKey", tierKey).
		Str("recipient", recipient).
		Int("amount", amount).
		Dur("elapsed", time.Since(start)).
		Msg("reward granted")

	return nil
}
