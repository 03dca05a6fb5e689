package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPGateway talks to a JSON payment provider:
//
//	POST {base}/authorizations          -> {"id": "...", "status": "succeeded"}
//	POST {base}/authorizations/{id}/void
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGateway{baseURL: baseURL, apiKey: apiKey, client: client}
}

type authorizeBody struct {
	Token    string            `json:"token"`
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (g *HTTPGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	body, err := json.Marshal(authorizeBody{
		Token:    req.Token,
		Amount:   req.Amount.StringFixed(2),
		Currency: req.Currency,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var out Authorization
	if err := g.post(ctx, g.baseURL+"/authorizations", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.Status == "" {
		return nil, fmt.Errorf("%w: malformed authorization response", ErrGatewayUnavailable)
	}
	return &out, nil
}

func (g *HTTPGateway) Void(ctx context.Context, authorizationID string) error {
	return g.post(ctx, g.baseURL+"/authorizations/"+url.PathEscape(authorizationID)+"/void", nil, nil)
}

func (g *HTTPGateway) post(ctx context.Context, endpoint string, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status=%d", ErrGatewayUnavailable, resp.StatusCode)
	}
	// 4xx responses still carry a decision body (declined etc).
	if out == nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("payment gateway rejected request: status=%d body=%s", resp.StatusCode, raw)
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}
	return nil
}
