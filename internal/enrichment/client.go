package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"iq-bot/internal/cache"
	"iq-bot/internal/common/config"
	commonhttp "iq-bot/internal/common/http"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/prompt"
)

// Endpoint is one upstream data call. Placeholders in Path are its parameters.
type Endpoint struct {
	Name string
	Path string
	TTL  time.Duration
}

// Params lists the endpoint's path placeholders.
func (e Endpoint) Params() []string {
	return prompt.Placeholders(e.Path)
}

// EndpointsFromConfig converts the configured endpoint table.
func EndpointsFromConfig(cfgs []config.EndpointConfig) []Endpoint {
	out := make([]Endpoint, len(cfgs))
	for i, c := range cfgs {
		ttl := time.Duration(c.TTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = cache.DefaultTTL
		}
		out[i] = Endpoint{Name: c.Name, Path: c.Path, TTL: ttl}
	}
	return out
}

// Client calls the upstream data API and caches each response body under
// iq:api:<endpoint>:<args> for the endpoint's TTL.
type Client struct {
	baseURL   string
	http      *commonhttp.Client
	store     cache.Store
	endpoints []Endpoint
	logger    logger.Logger
}

// NewClient builds a data API client. store may be nil to disable caching.
func NewClient(baseURL string, httpClient *commonhttp.Client, store cache.Store, endpoints []Endpoint, log logger.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		store:     store,
		endpoints: endpoints,
		logger:    log.WithFields(map[string]interface{}{"component": "data-api"}),
	}
}

// Operations exposes one registry operation per endpoint.
func (c *Client) Operations() []Operation {
	ops := make([]Operation, len(c.endpoints))
	for i, ep := range c.endpoints {
		ep := ep
		ops[i] = Operation{
			Name:   ep.Name,
			Params: ep.Params(),
			Call: func(ctx context.Context, args Args) (prompt.Value, error) {
				return c.Call(ctx, ep, args)
			},
		}
	}
	return ops
}

// Call fetches the endpoint with args, serving from the cache when possible.
func (c *Client) Call(ctx context.Context, ep Endpoint, args Args) (prompt.Value, error) {
	key := cache.APIKey(ep.Name, args.Strings())

	if c.store != nil {
		if body, ok := c.store.Get(ctx, key); ok {
			var v prompt.Value
			if err := json.Unmarshal(body, &v); err == nil {
				c.logger.Debug("data api cache hit", map[string]interface{}{"key": key})
				return v, nil
			}
			c.logger.Warn("discarding undecodable cached response", map[string]interface{}{"key": key})
		}
	}

	escaped := prompt.NewObject()
	args.Object().Range(func(k string, v prompt.Value) bool {
		escaped.Set(k, prompt.String(url.PathEscape(v.String())))
		return true
	})
	path, err := prompt.Format(ep.Path, escaped)
	if err != nil {
		return prompt.Value{}, fmt.Errorf("%s: %w", ep.Name, err)
	}

	body, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return prompt.Value{}, fmt.Errorf("%s: %w", ep.Name, err)
	}

	var v prompt.Value
	if err := json.Unmarshal(body, &v); err != nil {
		return prompt.Value{}, fmt.Errorf("%s: decode response: %w", ep.Name, err)
	}

	if c.store != nil && !c.store.Set(ctx, key, body, ep.TTL) {
		c.logger.Warn("data api response not cached", map[string]interface{}{"key": key})
	}
	return v, nil
}
