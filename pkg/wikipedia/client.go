package wikipedia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/emanongen/wiki-project/pkg/config"
	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/ratelimit"
)

// NoDescription is the explicit marker for articles without a usable summary
const NoDescription = "No description available"

// Pageview data starts in July 2015; earlier months do not exist upstream
const pageviewEpoch = "20150701"

// Client fetches article summaries and pageview totals from the Wikipedia
// and Wikimedia REST APIs
type Client struct {
	httpClient  *http.Client
	userAgent   string
	summaryBase string
	metricsBase string
	pacer       ratelimit.Limiter
	logger      logger.Logger
	now         func() time.Time
}

// NewClient creates a new Wikipedia REST client
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent:   cfg.Wikidata.UserAgent,
		summaryBase: "https://%s.wikipedia.org/api/rest_v1/page/summary/%s",
		metricsBase: "https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article/%s.wikipedia/all-access/all-agents/%s/monthly/%s/%s",
		pacer:       ratelimit.NewPacer(cfg.Fetch.CourtesyDelay),
		logger:      log,
		now:         time.Now,
	}
}

// SetHTTPClient replaces the underlying HTTP client (used by tests)
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetEndpoints overrides the REST endpoint templates (used by tests)
func (c *Client) SetEndpoints(summaryBase, metricsBase string) {
	c.summaryBase = summaryBase
	c.metricsBase = metricsBase
}

// SetPacer replaces the courtesy pacer (used by tests)
func (c *Client) SetPacer(p ratelimit.Limiter) {
	c.pacer = p
}

// wikiCodeFor maps a page URL to its language edition, empty when the URL
// belongs to neither supported edition
func wikiCodeFor(pageURL string) string {
	switch {
	case strings.Contains(pageURL, "de.wikipedia.org"):
		return "de"
	case strings.Contains(pageURL, "en.wikipedia.org"):
		return "en"
	default:
		return ""
	}
}

// articleFor extracts the article slug from a page URL
func articleFor(pageURL string) string {
	if idx := strings.LastIndex(pageURL, "/"); idx >= 0 {
		return pageURL[idx+1:]
	}
	return pageURL
}

// PageStats fetches the total pageview count and summary description for a
// Wikipedia page URL. Failures on either lookup degrade to the zero/marker
// defaults rather than failing the enclosing row; unusable URLs short-circuit.
func (c *Client) PageStats(ctx context.Context, pageURL string) (int64, string) {
	if strings.TrimSpace(pageURL) == "" {
		return 0, NoDescription
	}

	wikiCode := wikiCodeFor(pageURL)
	if wikiCode == "" {
		return 0, NoDescription
	}

	article := articleFor(pageURL)

	description := c.fetchDescription(ctx, wikiCode, article)
	views := c.fetchTotalViews(ctx, wikiCode, article)

	return views, description
}

// fetchDescription fetches the article summary extract
func (c *Client) fetchDescription(ctx context.Context, wikiCode, article string) string {
	body, err := c.getBody(ctx, fmt.Sprintf(c.summaryBase, wikiCode, article))
	if err != nil {
		c.logger.ErrorWithFields("failed to fetch description", map[string]interface{}{
			"article": article,
			"wiki":    wikiCode,
			"error":   err.Error(),
		})
		return NoDescription
	}

	extract := gjson.GetBytes(body, "extract")
	if !extract.Exists() || extract.String() == "" {
		return NoDescription
	}
	return extract.String()
}

// fetchTotalViews sums the monthly pageview counts since the pageview epoch
func (c *Client) fetchTotalViews(ctx context.Context, wikiCode, article string) int64 {
	endDate := fmt.Sprintf("%d1231", c.now().Year())
	url := fmt.Sprintf(c.metricsBase, wikiCode, article, pageviewEpoch, endDate)

	body, err := c.getBody(ctx, url)
	if err != nil {
		c.logger.ErrorWithFields("failed to fetch pageviews", map[string]interface{}{
			"article": article,
			"wiki":    wikiCode,
			"error":   err.Error(),
		})
		return 0
	}

	var total int64
	for _, views := range gjson.GetBytes(body, "items.#.views").Array() {
		total += views.Int()
	}
	return total
}

// getBody performs a paced GET and returns the response body
func (c *Client) getBody(ctx context.Context, url string) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	return io.ReadAll(resp.Body)
}
