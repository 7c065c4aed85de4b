package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
)

// Client calls the remote-action server of a running daemon.
type Client struct {
	base   string
	secret string
	http   *http.Client
}

func NewClient(addr, secret string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base:   strings.TrimSuffix(base, "/"),
		secret: secret,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

var _ Remote = (*Client)(nil)

// Dial returns a Client when the daemon answers at addr, and local
// otherwise. Actions taken through local are applied on the daemon's next
// start.
func Dial(ctx context.Context, addr, secret string, local *Actions) Remote {
	c := NewClient(addr, secret)
	if err := c.Health(ctx); err != nil {
		logger.Debug("Daemon not reachable, using the shared store directly", "addr", addr, "error", err)
		return local
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) CheckIn(ctx context.Context, prayerID, activityID string) error {
	return c.do(ctx, http.MethodPost, "/v1/activities/"+url.PathEscape(activityID)+"/check-in", checkInRequest{PrayerID: prayerID}, nil)
}

func (c *Client) Start(ctx context.Context, activityID string) error {
	return c.do(ctx, http.MethodPost, "/v1/activities/"+url.PathEscape(activityID)+"/start", nil, nil)
}

func (c *Client) Activities(ctx context.Context) ([]models.Activity, error) {
	var list []models.Activity
	if err := c.do(ctx, http.MethodGet, "/v1/activities", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set(constants.SecretHeader, c.secret)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e errorResponse
		if json.NewDecoder(res.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", res.StatusCode, e.Error)
		}
		return fmt.Errorf("daemon returned %d", res.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}
