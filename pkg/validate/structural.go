package validate

import (
	"fmt"
	"sort"

	"github.com/agentic-commerce/ucpcheck/pkg/profile"
)

// checkStructural verifies the minimum required shape of a candidate
// document. It is pure and performs no network I/O. A missing root
// short-circuits; every other failure accumulates so a caller sees all
// problems in one pass.
//
// When no error-severity issue is found the candidate is materialized into a
// typed Profile; otherwise the typed value is nil and only issues are
// returned.
func checkStructural(candidate any) (*profile.Profile, []Issue) {
	root, ok := candidate.(map[string]any)
	if !ok {
		return nil, []Issue{errorIssue(CodeMissingRoot, "$", "document is not a JSON object")}
	}
	ucp, ok := root["ucp"].(map[string]any)
	if !ok {
		return nil, []Issue{errorIssue(CodeMissingRoot, "$.ucp", "missing required \"ucp\" object")}
	}

	var issues []Issue

	version, hasVersion := ucp["version"].(string)
	switch {
	case !hasVersion || version == "":
		issues = append(issues, errorIssue(CodeMissingVersion, "$.ucp.version", "missing required \"version\""))
	case !profile.ValidDate(version):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeInvalidVersionFormat,
			Path:     "$.ucp.version",
			Message:  fmt.Sprintf("version %q is not a YYYY-MM-DD date", version),
			Hint:     "UCP versions are calendar dates, e.g. \"2026-01-11\"",
		})
	}

	issues = append(issues, checkServices(ucp)...)
	issues = append(issues, checkCapabilities(ucp)...)
	issues = append(issues, checkSigningKeys(ucp)...)

	if HasErrors(issues) {
		return nil, issues
	}
	p, err := profile.FromAny(candidate)
	if err != nil {
		// Shape was already verified above, so this indicates a candidate
		// that cannot round-trip through JSON at all.
		return nil, append(issues, errorIssue(CodeMissingRoot, "$", "document cannot be decoded: "+err.Error()))
	}
	return p, issues
}

func checkServices(ucp map[string]any) []Issue {
	raw, present := ucp["services"]
	if !present {
		return []Issue{errorIssue(CodeMissingServices, "$.ucp.services", "missing required \"services\"")}
	}
	services, ok := raw.(map[string]any)
	if !ok {
		return []Issue{errorIssue(CodeMissingServices, "$.ucp.services", "\"services\" must be an object keyed by service name")}
	}

	// Deterministic issue order across runs.
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []Issue
	for _, name := range names {
		path := "$.ucp.services." + name
		svc, ok := services[name].(map[string]any)
		if !ok {
			issues = append(issues, errorIssue(CodeInvalidService, path, "service entry must be an object"))
			continue
		}
		if s, _ := svc["version"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidService, path+".version", "service is missing \"version\""))
		}
		if s, _ := svc["spec"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidService, path+".spec", "service is missing \"spec\""))
		}
		issues = append(issues, checkTransports(path, svc)...)
	}
	return issues
}

func checkTransports(path string, svc map[string]any) []Issue {
	var issues []Issue
	bindings := 0

	for _, transport := range []string{"rest", "mcp"} {
		raw, present := svc[transport]
		if !present {
			continue
		}
		bindings++
		t, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, errorIssue(CodeInvalidService, path+"."+transport, transport+" transport must be an object"))
			continue
		}
		if s, _ := t["schema"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidService, path+"."+transport+".schema", transport+" transport is missing \"schema\""))
		}
		if s, _ := t["endpoint"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidService, path+"."+transport+".endpoint", transport+" transport is missing \"endpoint\""))
		}
	}
	if raw, present := svc["a2a"]; present {
		bindings++
		t, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, errorIssue(CodeInvalidService, path+".a2a", "a2a transport must be an object"))
		} else if s, _ := t["agentCard"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidService, path+".a2a.agentCard", "a2a transport is missing \"agentCard\""))
		}
	}
	if raw, present := svc["embedded"]; present {
		bindings++
		t, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, errorIssue(CodeInvalidService, path+".embedded", "embedded transport must be an object"))
		} else if s, _ := t["schema"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidService, path+".embedded.schema", "embedded transport is missing \"schema\""))
		}
	}

	if bindings == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     CodeInvalidService,
			Path:     path,
			Message:  "service declares no transport binding",
			Hint:     "add at least one of rest, mcp, a2a, embedded",
		})
	}
	return issues
}

func checkCapabilities(ucp map[string]any) []Issue {
	raw, present := ucp["capabilities"]
	if !present {
		return []Issue{errorIssue(CodeMissingCapabilities, "$.ucp.capabilities", "missing required \"capabilities\"")}
	}
	caps, ok := raw.([]any)
	if !ok {
		return []Issue{errorIssue(CodeMissingCapabilities, "$.ucp.capabilities", "\"capabilities\" must be an array")}
	}
	if len(caps) == 0 {
		return []Issue{warnIssue(CodeEmptyCapabilities, "$.ucp.capabilities", "profile declares no capabilities")}
	}

	var issues []Issue
	for i, raw := range caps {
		path := fmt.Sprintf("$.ucp.capabilities[%d]", i)
		c, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, errorIssue(CodeInvalidCapability, path, "capability entry must be an object"))
			continue
		}
		if s, _ := c["name"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidCapability, path+".name", "capability is missing \"name\""))
		}
		switch v, _ := c["version"].(string); {
		case v == "":
			issues = append(issues, errorIssue(CodeInvalidCapability, path+".version", "capability is missing \"version\""))
		case !profile.ValidDate(v):
			issues = append(issues, errorIssue(CodeInvalidVersionFormat, path+".version",
				fmt.Sprintf("capability version %q is not a YYYY-MM-DD date", v)))
		}
		if s, _ := c["spec"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidCapability, path+".spec", "capability is missing \"spec\""))
		}
		if s, _ := c["schema"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidCapability, path+".schema", "capability is missing \"schema\""))
		}
	}
	return issues
}

func checkSigningKeys(ucp map[string]any) []Issue {
	raw, present := ucp["signing_keys"]
	if !present {
		return nil
	}
	keys, ok := raw.([]any)
	if !ok {
		return []Issue{errorIssue(CodeInvalidSigningKey, "$.ucp.signing_keys", "\"signing_keys\" must be an array")}
	}
	var issues []Issue
	for i, raw := range keys {
		path := fmt.Sprintf("$.ucp.signing_keys[%d]", i)
		key, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, errorIssue(CodeInvalidSigningKey, path, "signing key must be an object"))
			continue
		}
		if s, _ := key["kty"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidSigningKey, path+".kty", "signing key is missing \"kty\""))
		}
		if s, _ := key["kid"].(string); s == "" {
			issues = append(issues, errorIssue(CodeInvalidSigningKey, path+".kid", "signing key is missing \"kid\""))
		}
	}
	return issues
}
