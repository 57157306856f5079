package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"

	"golang-news-signal/pkg/utils"
)

const maxArticleBytes = 2 << 20

// ArticleRepository extracts the readable text of an article page.
type ArticleRepository interface {
	Extract(ctx context.Context, url string) (string, error)
}

type articleRepository struct {
	client  *http.Client
	timeout time.Duration
}

// NewArticleRepository creates an extractor bounding every page fetch by timeout.
func NewArticleRepository(timeout time.Duration) ArticleRepository {
	return &articleRepository{client: &http.Client{}, timeout: timeout}
}

func (r *articleRepository) Extract(ctx context.Context, url string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create article request: %w", err)
	}
	req.Header.Set("User-Agent", feedUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch article: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}
	docHTML, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Content()))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}
	return utils.Truncate(utils.SafeText(docHTML.Text()), maxSummaryLength), nil
}
