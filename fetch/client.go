package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"deepview/config"
)

// Client is an HTTP Fetcher against a record API. Regular collections are
// served under /items/{collection}; the configured users collection is
// special-cased onto its own /users route.
type Client struct {
	baseURL         string
	usersCollection string
	token           string
	http            *http.Client
	log             *zap.SugaredLogger
}

func NewClient(cfg config.APIConfig, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		usersCollection: cfg.UsersCollection,
		http:            &http.Client{Timeout: timeout},
		log:             logger,
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// RequestError is a non-2xx response from the record API.
type RequestError struct {
	Status     int
	Collection string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Collection, e.Status)
}

func (c *Client) FetchMany(ctx context.Context, collection string, ids []any) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idParam := make([]string, len(ids))
	for i, id := range ids {
		idParam[i] = fmt.Sprintf("%v", id)
	}
	endpoint := fmt.Sprintf("%s%s?ids=%s", c.baseURL, c.collectionPath(collection),
		url.QueryEscape(strings.Join(idParam, ",")))

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.getJSON(ctx, collection, endpoint, &envelope); err != nil {
		return nil, err
	}
	c.log.Debugw("fetched records", "collection", collection, "requested", len(ids), "returned", len(envelope.Data))
	return envelope.Data, nil
}

func (c *Client) FetchField(ctx context.Context, collection string, id any, field string) (any, error) {
	endpoint := fmt.Sprintf("%s%s/%v?fields=%s", c.baseURL, c.collectionPath(collection), id,
		url.QueryEscape(field))

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := c.getJSON(ctx, collection, endpoint, &envelope); err != nil {
		return nil, err
	}
	value, ok := envelope.Data[field]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (c *Client) collectionPath(collection string) string {
	if c.usersCollection != "" && collection == c.usersCollection {
		return "/users"
	}
	return "/items/" + collection
}

func (c *Client) getJSON(ctx context.Context, collection, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("fetch %s: %w", collection, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Status: resp.StatusCode, Collection: collection}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", collection, err)
	}
	return nil
}
