package vultr

import (
	"context"
	"net/http"
	"net/url"
)

// CreateInstance launches a new instance.
func (c *Client) CreateInstance(ctx context.Context, req CreateInstanceRequest) (*Instance, error) {
	var resp struct {
		Instance Instance `json:"instance"`
	}
	if err := c.request(ctx, http.MethodPost, "/instances", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Instance, nil
}

// GetInstance fetches one instance.
func (c *Client) GetInstance(ctx context.Context, id string) (*Instance, error) {
	var resp struct {
		Instance Instance `json:"instance"`
	}
	if err := c.get(ctx, "/instances/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Instance, nil
}

// ListInstances lists all instances on the account.
func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var resp struct {
		Instances []Instance `json:"instances"`
	}
	if err := c.get(ctx, "/instances", &resp); err != nil {
		return nil, err
	}
	return resp.Instances, nil
}

// DeleteInstance destroys an instance.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/instances/"+url.PathEscape(id), nil, nil)
}

// RebootInstance reboots an instance.
func (c *Client) RebootInstance(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/instances/"+url.PathEscape(id)+"/reboot", nil, nil)
}

// StartInstance powers an instance on.
func (c *Client) StartInstance(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/instances/"+url.PathEscape(id)+"/start", nil, nil)
}

// HaltInstance powers an instance off.
func (c *Client) HaltInstance(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/instances/"+url.PathEscape(id)+"/halt", nil, nil)
}
