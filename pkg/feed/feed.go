// Package feed applies quality heuristics to a merchant's JSON product
// feed. It checks completeness of the fields shopping agents need to present
// an item; it does not scrape storefront HTML and it does not score.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/agentic-commerce/ucpcheck/pkg/config"
	"github.com/agentic-commerce/ucpcheck/pkg/validate"
)

// Issue codes emitted by the feed checker.
const (
	CodeFeedFetchFailed    = "UCP_FEED_FETCH_FAILED"
	CodeFeedNotJSON        = "UCP_FEED_NOT_JSON"
	CodeFeedEmpty          = "UCP_FEED_EMPTY"
	CodeFeedItemIncomplete = "UCP_FEED_ITEM_INCOMPLETE"
	CodeFeedInsecureLink   = "UCP_FEED_INSECURE_LINK"
)

// requiredItemFields are the per-item fields an agent needs to present a
// product at all.
var requiredItemFields = []string{"id", "title", "price", "availability", "link"}

const maxFeedBytes = 16 << 20

// Checker fetches and inspects product feeds.
type Checker struct {
	cfg     config.Validator
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a feed Checker with the given configuration.
func New(cfg config.Validator) *Checker {
	fetchRate, fetchBurst := cfg.Limits()
	return &Checker{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(fetchRate), fetchBurst),
		logger:  slog.Default().With("component", "feed"),
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Checker) WithHTTPClient(client *http.Client) *Checker {
	c.client = client
	return c
}

// WithLogger replaces the component logger.
func (c *Checker) WithLogger(logger *slog.Logger) *Checker {
	c.logger = logger
	return c
}

// Check fetches feedURL and reports quality findings. Like the validator's
// network phase, a transport fault is one warn-level issue, never an error
// return.
func (c *Checker) Check(ctx context.Context, feedURL string) []validate.Issue {
	if err := c.limiter.Wait(ctx); err != nil {
		return []validate.Issue{fetchFailed(feedURL, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return []validate.Issue{fetchFailed(feedURL, err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("feed fetch failed", "url", feedURL, "error", err)
		return []validate.Issue{fetchFailed(feedURL, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("feed fetch failed", "url", feedURL, "status", resp.StatusCode)
		return []validate.Issue{fetchFailed(feedURL, fmt.Errorf("unexpected status %d", resp.StatusCode))}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return []validate.Issue{fetchFailed(feedURL, err)}
	}

	return checkItems(data)
}

func fetchFailed(feedURL string, err error) validate.Issue {
	return validate.Issue{
		Severity: validate.SeverityWarn,
		Code:     CodeFeedFetchFailed,
		Message:  fmt.Sprintf("could not fetch feed %s", feedURL),
		Hint:     err.Error(),
	}
}

// checkItems accepts either a bare array of items or an object with an
// "items" array, which covers the feed shapes seen in the wild.
func checkItems(data []byte) []validate.Issue {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return []validate.Issue{{
			Severity: validate.SeverityError,
			Code:     CodeFeedNotJSON,
			Message:  "feed is not valid JSON",
			Hint:     err.Error(),
		}}
	}

	items, ok := parsed.([]any)
	if !ok {
		if obj, isObj := parsed.(map[string]any); isObj {
			items, ok = obj["items"].([]any)
		}
		if !ok {
			return []validate.Issue{{
				Severity: validate.SeverityError,
				Code:     CodeFeedNotJSON,
				Message:  "feed must be a JSON array of items or an object with an \"items\" array",
			}}
		}
	}

	if len(items) == 0 {
		return []validate.Issue{{
			Severity: validate.SeverityWarn,
			Code:     CodeFeedEmpty,
			Message:  "feed contains no items",
		}}
	}

	var issues []validate.Issue
	for i, raw := range items {
		path := fmt.Sprintf("$[%d]", i)
		item, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, validate.Issue{
				Severity: validate.SeverityWarn,
				Code:     CodeFeedItemIncomplete,
				Path:     path,
				Message:  "feed item is not an object",
			})
			continue
		}

		var missing []string
		for _, field := range requiredItemFields {
			if !presentField(item[field]) {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, validate.Issue{
				Severity: validate.SeverityWarn,
				Code:     CodeFeedItemIncomplete,
				Path:     path,
				Message:  fmt.Sprintf("feed item is missing %v", missing),
			})
		}

		if link, _ := item["link"].(string); link != "" {
			if u, err := url.Parse(link); err != nil || u.Scheme != "https" {
				issues = append(issues, validate.Issue{
					Severity: validate.SeverityWarn,
					Code:     CodeFeedInsecureLink,
					Path:     path + ".link",
					Message:  fmt.Sprintf("item link %q is not https", link),
				})
			}
		}
	}
	return issues
}

func presentField(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case string:
		return typed != ""
	default:
		return true
	}
}
