// Package foodapi fetches recipes from the food safety open API (service COOKRCP01).
package foodapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const serviceID = "COOKRCP01"

// Result codes returned in the RESULT block of a page.
const (
	codeOK     = "INFO-000"
	codeNoData = "INFO-200"
)

// ErrMissingAPIKey is returned by Fetch when no API key is configured.
var ErrMissingAPIKey = errors.New("food api key is not configured")

// Record is one loosely-typed recipe row as returned by the API.
type Record map[string]any

// String returns the field as trimmed text. Numbers are formatted without exponent;
// missing and null fields are "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

type page struct {
	Service *struct {
		TotalCount string   `json:"total_count"`
		Rows       []Record `json:"row"`
		Result     struct {
			Code    string `json:"CODE"`
			Message string `json:"MSG"`
		} `json:"RESULT"`
	} `json:"COOKRCP01"`
	// Errors without a service block come back as a top-level RESULT.
	Result *struct {
		Code    string `json:"CODE"`
		Message string `json:"MSG"`
	} `json:"RESULT"`
}

// Client fetches pages of recipe records.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

// NewClient creates a new client. pageSize bounds the number of rows requested per call.
func NewClient(baseURL, apiKey string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		pageSize:   pageSize,
	}
}

// Fetch returns up to limit records, requesting consecutive pages until the limit is reached
// or the API returns a short page.
func (c *Client) Fetch(ctx context.Context, limit int) ([]Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var records []Record
	for start := 1; len(records) < limit; start += c.pageSize {
		end := start + c.pageSize - 1
		if remaining := limit - len(records); end-start+1 > remaining {
			end = start + remaining - 1
		}

		rows, err := c.fetchPage(ctx, start, end)
		if err != nil {
			return nil, err
		}
		records = append(records, rows...)
		if len(rows) < end-start+1 {
			break
		}
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, start, end int) ([]Record, error) {
	url := fmt.Sprintf("%s/%s/%s/json/%d/%d", c.baseURL, c.apiKey, serviceID, start, end)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes %d-%d: %w", start, end, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK status code: %d", resp.StatusCode)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if p.Service == nil {
		if p.Result != nil && p.Result.Code == codeNoData {
			return nil, nil
		}
		if p.Result != nil {
			return nil, fmt.Errorf("food api error %s: %s", p.Result.Code, p.Result.Message)
		}
		return nil, fmt.Errorf("food api response has no %s block", serviceID)
	}

	switch p.Service.Result.Code {
	case codeOK, "":
		return p.Service.Rows, nil
	case codeNoData:
		return nil, nil
	default:
		return nil, fmt.Errorf("food api error %s: %s", p.Service.Result.Code, p.Service.Result.Message)
	}
}
