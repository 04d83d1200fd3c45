package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
)

// Client talks to the ledger service over HTTP. A zero-value BaseURL means
// the ledger is not configured; Validate then fails like any unavailable
// collaborator instead of crashing the verification.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a ledger client. Pass an empty baseURL to run without a
// ledger (legacy-only deployments).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Digest implements ports.LedgerClient with the package-level pure function.
func (c *Client) Digest(record *domain.CertificateRecord) string {
	return Digest(record)
}

type validateResponse struct {
	Exists  bool   `json:"exists"`
	Payload string `json:"payload,omitempty"`
}

// Validate asks the ledger whether the digest is anchored.
func (c *Client) Validate(ctx context.Context, digest string) (*ports.LedgerProof, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("ledger client not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/digests/%s", c.baseURL, url.PathEscape(digest))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build ledger request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body validateResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode ledger response: %w", err)
		}
		return &ports.LedgerProof{Exists: body.Exists, Payload: body.Payload}, nil
	case http.StatusNotFound:
		return &ports.LedgerProof{Exists: false}, nil
	default:
		return nil, fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}
}
