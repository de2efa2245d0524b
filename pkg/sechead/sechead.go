// Package sechead inspects the security response headers a merchant serves
// on its apex. Findings are advisory: agents transact with the merchant's
// UCP endpoints, not its storefront, so weak headers never block a profile.
package sechead

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/agentic-commerce/ucpcheck/pkg/config"
	"github.com/agentic-commerce/ucpcheck/pkg/validate"
)

// Issue codes emitted by the header checker. Additive to the validator's
// taxonomy, same stability contract.
const (
	CodeHeaderFetchFailed           = "UCP_HEADER_FETCH_FAILED"
	CodeHeaderMissingHSTS           = "UCP_HEADER_MISSING_HSTS"
	CodeHeaderMissingCSP            = "UCP_HEADER_MISSING_CSP"
	CodeHeaderMissingNosniff        = "UCP_HEADER_MISSING_NOSNIFF"
	CodeHeaderMissingReferrerPolicy = "UCP_HEADER_MISSING_REFERRER_POLICY"
)

// Checker fetches one page per domain and reads its headers.
type Checker struct {
	cfg     config.Validator
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Checker with the given configuration.
func New(cfg config.Validator) *Checker {
	fetchRate, fetchBurst := cfg.Limits()
	return &Checker{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(fetchRate), fetchBurst),
		logger:  slog.Default().With("component", "sechead"),
	}
}

// WithHTTPClient replaces the HTTP client (tests point it at a stub server's
// client).
func (c *Checker) WithHTTPClient(client *http.Client) *Checker {
	c.client = client
	return c
}

// WithLogger replaces the component logger.
func (c *Checker) WithLogger(logger *slog.Logger) *Checker {
	c.logger = logger
	return c
}

// Check issues a single GET to https://<domain>/ and reports which expected
// security headers are absent. A transport fault yields a single warn-level
// fetch issue, mirroring how the validator treats schema fetches.
func (c *Checker) Check(ctx context.Context, domain string) []validate.Issue {
	if err := c.limiter.Wait(ctx); err != nil {
		return []validate.Issue{fetchFailed(domain, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+domain+"/", nil)
	if err != nil {
		return []validate.Issue{fetchFailed(domain, err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("header fetch failed", "domain", domain, "error", err)
		return []validate.Issue{fetchFailed(domain, err)}
	}
	defer resp.Body.Close()

	return headerIssues(resp.Header)
}

func fetchFailed(domain string, err error) validate.Issue {
	return validate.Issue{
		Severity: validate.SeverityWarn,
		Code:     CodeHeaderFetchFailed,
		Message:  fmt.Sprintf("could not fetch https://%s/", domain),
		Hint:     err.Error(),
	}
}

func headerIssues(h http.Header) []validate.Issue {
	checks := []struct {
		header   string
		code     string
		severity validate.Severity
		hint     string
	}{
		{"Strict-Transport-Security", CodeHeaderMissingHSTS, validate.SeverityWarn,
			"add Strict-Transport-Security with a max-age of at least 31536000"},
		{"Content-Security-Policy", CodeHeaderMissingCSP, validate.SeverityInfo,
			"a Content-Security-Policy limits injection blast radius"},
		{"X-Content-Type-Options", CodeHeaderMissingNosniff, validate.SeverityWarn,
			"set X-Content-Type-Options: nosniff"},
		{"Referrer-Policy", CodeHeaderMissingReferrerPolicy, validate.SeverityInfo,
			"set a Referrer-Policy such as strict-origin-when-cross-origin"},
	}

	var issues []validate.Issue
	for _, chk := range checks {
		if h.Get(chk.header) != "" {
			continue
		}
		issues = append(issues, validate.Issue{
			Severity: chk.severity,
			Code:     chk.code,
			Message:  fmt.Sprintf("response is missing the %s header", chk.header),
			Hint:     chk.hint,
		})
	}
	return issues
}
