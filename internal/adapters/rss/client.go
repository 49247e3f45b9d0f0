package rss

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"time"

	"pulsedesk/internal/domain/news"
	"pulsedesk/internal/metrics"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

// Client fetches and parses one RSS feed into a flat news list.
type Client struct {
	feedURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates an RSS client for a fixed feed URL.
func New(feedURL string, requestTimeout time.Duration) *Client {
	return &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        logger.Get().With("adapter", "rss"),
	}
}

// rssDocument mirrors the subset of the RSS 2.0 schema we consume.
type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// FetchNews downloads the feed and returns its entries in feed order.
// The published timestamp keeps the source string format.
func (c *Client) FetchNews(ctx context.Context) ([]news.Item, error) {
	start := time.Now()
	items, err := c.fetch(ctx)
	metrics.RecordUpstreamCall("rss", time.Since(start), err)
	return items, err
}

func (c *Client) fetch(ctx context.Context) ([]news.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch feed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Wrapf(errors.ErrUpstreamStatus, "feed status %d: %s", resp.StatusCode, string(body))
	}

	var doc rssDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrUpstreamPayload, err.Error())
	}

	items := make([]news.Item, 0, len(doc.Channel.Items))
	for _, entry := range doc.Channel.Items {
		items = append(items, news.Item{
			Title:       entry.Title,
			Link:        entry.Link,
			Published:   entry.PubDate,
			Description: entry.Description,
		})
	}

	return items, nil
}
