package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/agentic-commerce/ucpcheck/pkg/profile"
)

const maxProfileBytes = 2 << 20

// fetchProfile attempts to acquire a merchant's Business Profile from the
// two well-known paths, in order. It accepts the first response that parses
// as JSON and contains a "ucp" key. Responses that look like HTML are
// rejected even on a success status: misconfigured servers often serve an
// HTML error page with a 200.
//
// Transport faults never escape as errors. When both paths fail, the result
// is a nil candidate and a single PROFILE_FETCH_FAILED issue.
func (e *Engine) fetchProfile(ctx context.Context, domain string) (any, string, []Issue) {
	ctx, span := e.tracer.Start(ctx, "ucpcheck.fetch_profile")
	span.SetAttributes(attribute.String("ucp.domain", domain))
	defer span.End()

	var attempts []string
	for _, path := range []string{profile.WellKnownPath, profile.WellKnownPathJSON} {
		profileURL := "https://" + domain + path
		candidate, err := e.fetchCandidate(ctx, profileURL)
		if err != nil {
			e.logger.Debug("profile acquisition attempt failed", "url", profileURL, "error", err)
			attempts = append(attempts, fmt.Sprintf("%s: %v", profileURL, err))
			continue
		}
		return candidate, profileURL, nil
	}

	return nil, "", []Issue{{
		Severity: SeverityError,
		Code:     CodeProfileFetchFailed,
		Path:     "$",
		Message:  fmt.Sprintf("no UCP profile found for %s", domain),
		Hint:     strings.Join(attempts, "; "),
	}}
}

func (e *Engine) fetchCandidate(ctx context.Context, profileURL string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "<") {
		return nil, fmt.Errorf("response looks like HTML, not a profile")
	}

	var candidate any
	if err := json.Unmarshal([]byte(trimmed), &candidate); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	root, ok := candidate.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is not a JSON object")
	}
	if _, ok := root["ucp"]; !ok {
		return nil, fmt.Errorf("response has no \"ucp\" key")
	}
	return candidate, nil
}
