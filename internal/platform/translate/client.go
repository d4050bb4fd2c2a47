// Package translate wraps the Papago translation API with pacing and an optional cache.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"recipebox/internal/metrics"
)

const (
	DefaultURL = "https://openapi.naver.com/v1/papago/n2mt"
	cacheTTL   = 30 * 24 * time.Hour
)

// Cache stores translated text. Get returns "" on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Config struct {
	URL          string
	ClientID     string
	ClientSecret string
	Source       string
	Target       string
	// Delay is the minimum gap between two API calls.
	Delay time.Duration
}

// Client translates text from Source to Target.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	log        *slog.Logger
}

// NewClient creates a client. cache may be nil.
func NewClient(cfg Config, cache Cache, log *slog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if log == nil {
		log = slog.Default()
	}
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		log:        log.With("component", "translate"),
	}
}

type papagoResponse struct {
	Message struct {
		Result struct {
			TranslatedText string `json:"translatedText"`
		} `json:"result"`
	} `json:"message"`
}

// Translate returns the translation of text, consulting the cache first.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	key := c.cacheKey(text)
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn("Translation cache read failed", "error", err)
		} else if cached != "" {
			metrics.RecordTranslation("cache_hit")
			return cached, nil
		}
	}

	translated, err := c.call(ctx, text)
	if err != nil {
		metrics.RecordTranslation("error")
		return "", err
	}
	metrics.RecordTranslation("translated")

	if c.cache != nil && translated != "" {
		if err := c.cache.Set(ctx, key, translated, cacheTTL); err != nil {
			c.log.Warn("Translation cache write failed", "error", err)
		}
	}
	return translated, nil
}

func (c *Client) call(ctx context.Context, text string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("source", c.cfg.Source)
	form.Set("target", c.cfg.Target)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Naver-Client-Id", c.cfg.ClientID)
	req.Header.Set("X-Naver-Client-Secret", c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translation API error %d: %s", resp.StatusCode, string(body))
	}

	var out papagoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode translation: %w", err)
	}
	if out.Message.Result.TranslatedText == "" {
		return "", fmt.Errorf("no translation returned")
	}
	return out.Message.Result.TranslatedText, nil
}

func (c *Client) cacheKey(text string) string {
	return fmt.Sprintf("translation:%s:%s:%x", c.cfg.Source, c.cfg.Target, sha256.Sum256([]byte(text)))
}
