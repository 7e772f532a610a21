package client

import (
	"context"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

// ListKeys returns the status of every vendor key.
func (c *Client) ListKeys(ctx context.Context) ([]domain.KeyStatus, error) {
	var resp struct {
		Keys []domain.KeyStatus `json:"keys"`
	}
	if err := c.get(ctx, "/api/v1/keys", &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// SetKey replaces a vendor key. An empty key clears it.
func (c *Client) SetKey(ctx context.Context, s domain.Service, key string) (domain.KeyStatus, error) {
	var st domain.KeyStatus
	err := c.put(ctx, "/api/v1/keys/"+string(s), map[string]string{"api_key": key}, &st)
	return st, err
}

// TestKey pings a vendor with its current key.
func (c *Client) TestKey(ctx context.Context, s domain.Service) (domain.KeyStatus, error) {
	var st domain.KeyStatus
	err := c.post(ctx, "/api/v1/keys/"+string(s)+"/test", nil, &st)
	return st, err
}
