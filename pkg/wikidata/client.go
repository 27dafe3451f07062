package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/emanongen/wiki-project/pkg/config"
	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/ratelimit"
	"github.com/emanongen/wiki-project/pkg/retry"
)

// Client issues SPARQL and entity-lookup requests against Wikidata
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	sparqlURL  string
	apiURL     string
	pacer      ratelimit.Limiter
	retryCfg   config.RetryConfig
	logger     logger.Logger
}

// NewClient creates a new Wikidata client from configuration
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Fetch.Timeout,
		},
		headers: map[string]string{
			"Accept":     "application/sparql-results+json",
			"User-Agent": cfg.Wikidata.UserAgent,
		},
		sparqlURL: cfg.Wikidata.SPARQLEndpoint,
		apiURL:    cfg.Wikidata.APIEndpoint,
		pacer:     ratelimit.NewPacer(cfg.Fetch.CourtesyDelay),
		retryCfg:  cfg.Retry,
		logger:    log,
	}
}

// SetHTTPClient replaces the underlying HTTP client (used by tests)
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetPacer replaces the courtesy pacer (used by tests)
func (c *Client) SetPacer(p ratelimit.Limiter) {
	c.pacer = p
}

// retryConfig builds the retry policy for one logical fetch
func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: c.retryCfg.MaxAttempts,
		Backoff: retry.StrategyForPolicy(
			strings.ToLower(c.retryCfg.Policy),
			c.retryCfg.BaseDelay,
			c.retryCfg.MaxDelay,
		),
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  c.logger,
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus classifies non-success HTTP responses
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	default:
		return &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// getBody performs a paced GET and returns the response body
func (c *Client) getBody(ctx context.Context, rawURL string) ([]byte, error) {
	// Courtesy delay applies before every attempt, retries included
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return body, nil
}

// QuerySPARQL runs a SPARQL query with bounded retries and returns the raw
// bindings. A nil slice with nil error means the query matched nothing; an
// error after exhausted retries carries ErrorTypeExhaustedRetries so callers
// can tell "no more data" from "could not fetch data".
func (c *Client) QuerySPARQL(ctx context.Context, query string) ([]Binding, error) {
	return retry.DoWithResult(func() ([]Binding, error) {
		return c.querySPARQLOnce(ctx, query)
	}, c.retryConfig(ctx))
}

func (c *Client) querySPARQLOnce(ctx context.Context, query string) ([]Binding, error) {
	endpoint := c.sparqlURL + "?query=" + url.QueryEscape(query)

	body, err := c.getBody(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var response SPARQLResponse
	if err := json.Unmarshal(body, &response); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse SPARQL response", map[string]interface{}{
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse SPARQL JSON: %v", err),
		}
	}

	return response.Results.Bindings, nil
}

// EntityLabels fetches labels for a batch of entity IDs in one wbgetentities
// call. The result maps each found ID to its label; IDs with no label in the
// requested language are simply absent. Retries apply to the whole batch.
func (c *Client) EntityLabels(ctx context.Context, ids []string, lang string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	return retry.DoWithResult(func() (map[string]string, error) {
		return c.entityLabelsOnce(ctx, ids, lang)
	}, c.retryConfig(ctx))
}

func (c *Client) entityLabelsOnce(ctx context.Context, ids []string, lang string) (map[string]string, error) {
	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("ids", strings.Join(ids, "|"))
	params.Set("format", "json")
	params.Set("languages", lang)
	params.Set("props", "labels")

	body, err := c.getBody(ctx, c.apiURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "entity lookup returned invalid JSON",
		}
	}

	labels := make(map[string]string, len(ids))
	for _, id := range ids {
		// Entity IDs key the response object, so the lookup path is dynamic
		value := gjson.GetBytes(body, "entities."+id+".labels."+lang+".value")
		if value.Exists() {
			labels[id] = value.String()
		}
	}

	return labels, nil
}

// EntityLabel fetches the label for a single entity ID. It reports ok=false
// when the entity has no label in the requested language.
func (c *Client) EntityLabel(ctx context.Context, id, lang string) (string, bool, error) {
	labels, err := c.EntityLabels(ctx, []string{id}, lang)
	if err != nil {
		return "", false, err
	}
	label, ok := labels[id]
	return label, ok, nil
}
