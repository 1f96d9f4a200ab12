package nearintents

import (
	"context"
	"fmt"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// Client wraps the 1-click SDK with bearer-token authentication.
type Client struct {
	api    *oneclick.APIClient
	apiKey string
}

// NewClient creates a new NEAR Intents 1-click API client.
func NewClient(apiKey string) *Client {
	cfg := oneclick.NewConfiguration()
	return &Client{api: oneclick.NewAPIClient(cfg), apiKey: apiKey}
}

func (c *Client) authCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.apiKey)
}

func (c *Client) GetQuote(ctx context.Context, req oneclick.QuoteRequest) (*oneclick.QuoteResponse, error) {
	resp, _, err := c.api.OneClickAPI.GetQuote(c.authCtx(ctx)).QuoteRequest(req).Execute()
	if err != nil {
		return nil, fmt.Errorf("nearintents: GetQuote: %w", err)
	}
	return resp, nil
}

func (c *Client) GetExecutionStatus(ctx context.Context, depositAddress string) (string, error) {
	resp, _, err := c.api.OneClickAPI.GetExecutionStatus(c.authCtx(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return "", fmt.Errorf("nearintents: GetExecutionStatus: %w", err)
	}
	return resp.Status, nil
}
