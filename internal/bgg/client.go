// Package bgg is a throttled client for the BoardGameGeek XML API2.
package bgg

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public XML API2 endpoint.
	DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

	// MaxIDsPerRequest is the most ids the /thing endpoint accepts in one call.
	MaxIDsPerRequest = 20

	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "renovatuludoteca"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer credential when set.
	Token string
	// Username identifies the application in the User-Agent header.
	Username string
	Timeout  time.Duration
}

// Client fetches board game details. Every request goes through the shared
// queue, so concurrent callers never exceed the provider's request rate.
type Client struct {
	http   *resty.Client
	queue  *ratelimit.Queue
	logger *slog.Logger
}

// New creates a client that dispatches through queue.
func New(queue *ratelimit.Queue, opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Username == "" {
		opts.Username = defaultUserAgent
	}

	httpClient := resty.New().
		SetHostURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/xml").
		SetHeader("User-Agent", opts.Username)
	if opts.Token != "" {
		httpClient.SetAuthToken(opts.Token)
	}

	return &Client{
		http:   httpClient,
		queue:  queue,
		logger: logger,
	}
}

// FetchThings looks up to MaxIDsPerRequest games in a single request.
// Ids the provider does not know are absent from the result.
func (c *Client) FetchThings(ctx context.Context, ids []int) ([]Thing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerRequest {
		c.logger.Warn("bgg lookup truncated", "requested", len(ids), "max", MaxIDsPerRequest)
		ids = ids[:MaxIDsPerRequest]
	}

	return ratelimit.Do(ctx, c.queue, func(ctx context.Context) ([]Thing, error) {
		body, status, err := c.doRequest(ctx, ids)
		if err != nil {
			return nil, wrapError("things", ids, status, err)
		}

		things, err := parseThings(body)
		if err != nil {
			return nil, wrapError("things", ids, status, err)
		}
		return things, nil
	})
}

// FetchThing looks up a single game. It returns nil, nil when the provider has no such id.
func (c *Client) FetchThing(ctx context.Context, bggID int) (*Thing, error) {
	things, err := c.FetchThings(ctx, []int{bggID})
	if err != nil {
		return nil, err
	}
	for i := range things {
		if things[i].BGGID == bggID {
			return &things[i], nil
		}
	}
	return nil, nil
}

// doRequest executes one /thing call. It runs inside the queue.
func (c *Client) doRequest(ctx context.Context, ids []int) ([]byte, int, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	c.logger.Debug("bgg request", "ids", len(ids))

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", strings.Join(parts, ",")).
		SetQueryParam("stats", "1").
		Get("/thing")
	if err != nil {
		return nil, 0, errors.Join(ErrUpstream, err)
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return resp.Body(), status, nil
	case status == http.StatusTooManyRequests:
		return nil, status, ErrRateLimited
	case status == http.StatusBadRequest:
		return nil, status, ErrBadRequest
	default:
		return nil, status, ErrUpstream
	}
}
