package flips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.hypixel.net"

// Config holds the Hypixel API settings, loaded from the environment.
type Config struct {
	APIKey  string `env:"HYPIXEL_API_KEY,required"`
	BaseURL string `env:"HYPIXEL_BASE_URL" envDefault:"https://api.hypixel.net"`
}

// Auction is the slice of a Skyblock auction listing the finder cares about.
type Auction struct {
	UUID        string `json:"uuid"`
	ItemName    string `json:"item_name"`
	StartingBid int64  `json:"starting_bid"`
	BIN         bool   `json:"bin"`
}

// AuctionsPage is one page of the auctions endpoint.
type AuctionsPage struct {
	Success    bool      `json:"success"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Auctions   []Auction `json:"auctions"`
}

// Client is a minimal Hypixel Skyblock API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Hypixel API client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Auctions fetches one page of active Skyblock auctions.
func (c *Client) Auctions(ctx context.Context, page int) (*AuctionsPage, error) {
	var out AuctionsPage
	url := fmt.Sprintf("%s/skyblock/auctions?page=%d", c.baseURL, page)
	if err := c.get(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bazaar fetches the bazaar product snapshot as raw product data.
func (c *Client) Bazaar(ctx context.Context) (map[string]json.RawMessage, error) {
	var out struct {
		Success  bool                       `json:"success"`
		Products map[string]json.RawMessage `json:"products"`
	}
	if err := c.get(ctx, c.baseURL+"/skyblock/bazaar", &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Join(ErrUnexpectedStatus, fmt.Errorf("status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	return nil
}
