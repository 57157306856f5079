package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"golang-news-signal/internal/entity"
	"golang-news-signal/pkg/utils"
)

const (
	feedUserAgent    = "Mozilla/5.0 (compatible; news-signal-monitor/1.0)"
	maxSummaryLength = 2000
)

// FeedRepository fetches the entries of one feed.
type FeedRepository interface {
	Fetch(ctx context.Context, feed entity.Feed) ([]entity.FeedItem, error)
}

type feedRepository struct {
	client  *http.Client
	timeout time.Duration
}

// NewFeedRepository creates a feed fetcher bounding every fetch by timeout.
func NewFeedRepository(timeout time.Duration) FeedRepository {
	return &feedRepository{client: &http.Client{}, timeout: timeout}
}

// Fetch parses RSS, Atom or JSON feeds. Entries without a link are skipped.
func (r *feedRepository) Fetch(ctx context.Context, feed entity.Feed) ([]entity.FeedItem, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	fp := gofeed.NewParser()
	fp.Client = r.client
	fp.UserAgent = feedUserAgent
	parsed, err := fp.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feed.Name, err)
	}

	items := make([]entity.FeedItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		items = append(items, entity.FeedItem{
			Link:    link,
			Title:   utils.SafeText(it.Title),
			Summary: utils.Truncate(StripHTML(itemSummary(it)), maxSummaryLength),
			Feed:    feed.Name,
		})
	}
	return items, nil
}

// itemSummary prefers the description, then content, then the media:description
// carried by video feeds.
func itemSummary(it *gofeed.Item) string {
	if s := strings.TrimSpace(it.Description); s != "" {
		return s
	}
	if s := strings.TrimSpace(it.Content); s != "" {
		return s
	}
	for _, group := range it.Extensions["media"]["group"] {
		for _, desc := range group.Children["description"] {
			if s := strings.TrimSpace(desc.Value); s != "" {
				return s
			}
		}
	}
	return ""
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return utils.SafeText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return utils.SafeText(s)
	}
	return utils.SafeText(doc.Text())
}
