package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agentic-commerce/ucpcheck/pkg/profile"
	"github.com/agentic-commerce/ucpcheck/pkg/schemacache"
)

// maxSchemaBytes bounds how much of a schema response is read.
const maxSchemaBytes = 4 << 20

// checkNetwork fetches every capability's schema document (through the
// cache) and cross-checks it against the capability it describes. Schema
// unavailability is a transient network concern, never a document defect, so
// fetch failures surface as warnings.
//
// Fetches for independent capabilities run concurrently; the resulting issue
// order across capabilities is best effort only.
func (e *Engine) checkNetwork(ctx context.Context, p *profile.Profile, opts Options) []Issue {
	if opts.SkipSchemaFetch {
		return nil
	}

	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = e.cfg.FetchTimeout
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = e.cfg.CacheTTL
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		issues []Issue
	)
	for i, c := range p.UCP.Capabilities {
		if c.Schema == "" {
			continue
		}
		wg.Add(1)
		go func(i int, c profile.Capability) {
			defer wg.Done()
			found := e.checkCapabilitySchema(ctx, i, c, timeout, ttl)
			mu.Lock()
			issues = append(issues, found...)
			mu.Unlock()
		}(i, c)
	}
	wg.Wait()
	return issues
}

func (e *Engine) checkCapabilitySchema(ctx context.Context, index int, c profile.Capability, timeout, ttl time.Duration) []Issue {
	path := fmt.Sprintf("$.ucp.capabilities[%d].schema", index)

	now := e.clock()
	entry, ok := e.cache.Get(ctx, c.Schema, now)
	if !ok {
		// Cancellation while waiting on the limiter is handled exactly like
		// a fetch timeout: one warning, no propagated fault.
		if err := e.limiter.Wait(ctx); err != nil {
			return []Issue{schemaFetchFailed(path, c.Schema, err)}
		}
		body, etag, err := e.fetchSchema(ctx, c.Schema, timeout)
		if err != nil {
			e.logger.Debug("schema fetch failed", "capability", c.Name, "url", c.Schema, "error", err)
			return []Issue{schemaFetchFailed(path, c.Schema, err)}
		}
		entry = &schemacache.Entry{
			URL:       c.Schema,
			ETag:      etag,
			FetchedAt: now,
			Body:      body,
			ExpiresAt: now.Add(ttl),
		}
		e.cache.Set(ctx, entry)
	}

	return schemaSelfChecks(path, c, entry.Body)
}

func schemaFetchFailed(path, schemaURL string, err error) Issue {
	return Issue{
		Severity: SeverityWarn,
		Code:     CodeSchemaFetchFailed,
		Path:     path,
		Message:  fmt.Sprintf("could not fetch schema %s", schemaURL),
		Hint:     err.Error(),
	}
}

// fetchSchema performs one time-bounded GET and parses the body as a JSON
// object. Every failure mode (transport fault, bad status, non-JSON body) is
// returned as an error for the caller to fold into a single warning.
func (e *Engine) fetchSchema(ctx context.Context, schemaURL string, timeout time.Duration) (map[string]any, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx, span := e.tracer.Start(ctx, "ucpcheck.fetch_schema")
	span.SetAttributes(attribute.String("ucp.schema_url", schemaURL))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, schemaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes))
	if err != nil {
		return nil, "", err
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, "", fmt.Errorf("response is not a JSON object: %w", err)
	}
	return body, resp.Header.Get("ETag"), nil
}

// schemaSelfChecks runs the self-description heuristics against a fetched
// schema body. Name matching is substring containment and inherently fuzzy,
// so mismatches stay advisory (warn/info), never error.
func schemaSelfChecks(path string, c profile.Capability, body map[string]any) []Issue {
	var issues []Issue

	declared := ""
	if id, ok := body["$id"].(string); ok && id != "" {
		declared = schemaNameFromID(id)
	} else if name, ok := body["name"].(string); ok && name != "" {
		declared = name
	}

	if declared == "" {
		issues = append(issues, infoIssue(CodeSchemaNotSelfDescribing, path,
			fmt.Sprintf("schema for %q has no $id or name", c.Name)))
	} else {
		capName := strings.ToLower(c.Name)
		lastSeg := strings.ToLower(profile.LastSegment(c.Name))
		declaredLower := strings.ToLower(declared)
		if !strings.Contains(capName, declaredLower) && !strings.Contains(declaredLower, lastSeg) {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     CodeSchemaNameMismatch,
				Path:     path,
				Message:  fmt.Sprintf("schema identifies itself as %q, which does not resemble capability %q", declared, c.Name),
			})
		}
	}

	if v, ok := body["version"].(string); ok && v != "" && v != c.Version {
		issues = append(issues, infoIssue(CodeSchemaVersionMismatch, path,
			fmt.Sprintf("schema declares version %q but the capability declares %q", v, c.Version)))
	}

	if err := compileSchema(c.Schema, body); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     CodeSchemaCompileFailed,
			Path:     path,
			Message:  fmt.Sprintf("schema for %q is not a valid JSON Schema", c.Name),
			Hint:     err.Error(),
		})
	}
	return issues
}

// schemaNameFromID resolves a self-identifying $id URL to a comparable name:
// the last path segment with any .json suffix stripped.
func schemaNameFromID(id string) string {
	name := id
	if u, err := url.Parse(id); err == nil && u.Path != "" {
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) > 0 && segs[len(segs)-1] != "" {
			name = segs[len(segs)-1]
		}
	}
	return strings.TrimSuffix(name, ".json")
}

func compileSchema(schemaURL string, body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
		return err
	}
	_, err = compiler.Compile(schemaURL)
	return err
}
