package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DefaultCORSProxy takes the URL-encoded feed URL as its whole query string.
const DefaultCORSProxy = "https://corsproxy.io/?"

// Retriever produces the full body of a feed as text.
type Retriever interface {
	FetchText(ctx context.Context, feedURL string) (string, error)
}

// HTTPRetriever fetches feeds with a plain GET, optionally routed through a
// proxy endpoint. A zero HTTPRetriever fetches directly with
// http.DefaultClient.
type HTTPRetriever struct {
	Client    *http.Client
	Proxy     string
	UserAgent string
}

func (h HTTPRetriever) requestURL(feedURL string) string {
	if h.Proxy == "" {
		return feedURL
	}
	return h.Proxy + url.QueryEscape(feedURL)
}

func (h HTTPRetriever) FetchText(ctx context.Context, feedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.requestURL(feedURL), http.NoBody)
	if err != nil {
		return "", err
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 400 {
		return "", fmt.Errorf("http error %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(body), nil
}
