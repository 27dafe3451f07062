// Package translate provides text translation for occupation labels and
// other short values, with a DeepL-backed default implementation.
package translate

import (
	"context"
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
)

// Translator converts a single text value between the configured languages
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// DeepLClient translates text through the DeepL HTTP API
type DeepLClient struct {
	httpClient *http.Client
	endpoint   string
	authKey    string
	sourceLang string
	targetLang string
	logger     logger.Logger
}

// NewDeepLClient creates a translator from the translate configuration
func NewDeepLClient(cfg *config.Config, log logger.Logger) *DeepLClient {
	if log == nil {
		log = logger.GetLogger()
	}

	return &DeepLClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:   cfg.Translate.Endpoint,
		authKey:    cfg.Translate.AuthKey,
		sourceLang: cfg.Translate.SourceLang,
		targetLang: cfg.Translate.TargetLang,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client (used by tests)
func (c *DeepLClient) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Translate translates a single text value. Empty input is returned as is
// without a provider round trip.
func (c *DeepLClient) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	form := url.Values{}
	form.Set("auth_key", c.authKey)
	form.Set("text", text)
	form.Set("source_lang", c.sourceLang)
	form.Set("target_lang", c.targetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeUnknown, "failed to create translate request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeTransport,
			Message: fmt.Sprintf("failed reading response: %v", err),
		}
	}

	translated := gjson.GetBytes(body, "translations.0.text")
	if !translated.Exists() {
		return "", errs.New(errs.ErrorTypeParsing, "translation response missing translations")
	}
	return translated.String(), nil
}

// TranslateOrOriginal translates text, falling back to the original value
// when the provider fails. The failure is logged, not propagated, so one bad
// value never stalls a column-wide pass.
func TranslateOrOriginal(ctx context.Context, t Translator, text string, log logger.Logger) string {
	translated, err := t.Translate(ctx, text)
	if err != nil {
		log.WithError(err).WithField("text", text).Warn("translation failed, keeping original")
		return text
	}
	return translated
}
