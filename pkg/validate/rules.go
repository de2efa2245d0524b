package validate

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentic-commerce/ucpcheck/pkg/profile"
)

// checkRules enforces protocol semantics on a structurally valid profile.
// Callers must only invoke it after the structural phase reported no errors;
// the orchestrator's early-exit rule guarantees that for the public entry
// points.
func checkRules(p *profile.Profile) []Issue {
	var issues []Issue
	issues = append(issues, checkNamespaceOrigin(p)...)
	issues = append(issues, checkExtensionIntegrity(p)...)
	issues = append(issues, checkEndpointPolicy(p)...)
	issues = append(issues, checkSigningKeyRequirement(p)...)
	return issues
}

// checkNamespaceOrigin binds capability namespaces to hosting origins.
// dev.ucp.* capabilities must be hosted on the canonical domain; com.* vendor
// capabilities should be hosted on the derived vendor domain (advisory).
// Namespace shapes outside those two forms get no origin check.
func checkNamespaceOrigin(p *profile.Profile) []Issue {
	var issues []Issue
	for i, c := range p.UCP.Capabilities {
		base := fmt.Sprintf("$.ucp.capabilities[%d]", i)

		fields := []struct {
			name string
			url  string
		}{
			{"spec", c.Spec},
			{"schema", c.Schema},
		}

		if strings.HasPrefix(c.Name, profile.NamespacePrefix) {
			for _, f := range fields {
				if f.url == "" || hostedOn(f.url, profile.CanonicalDomain) {
					continue
				}
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     CodeNamespaceOriginMismatch,
					Path:     base + "." + f.name,
					Message:  fmt.Sprintf("%s capability %q must host its %s on %s", profile.NamespacePrefix+"*", c.Name, f.name, profile.CanonicalDomain),
				})
			}
			continue
		}

		if vendor := vendorDomain(c.Name); vendor != "" {
			for _, f := range fields {
				if f.url == "" || hostedOn(f.url, vendor) {
					continue
				}
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     CodeNamespaceOriginMismatch,
					Path:     base + "." + f.name,
					Message:  fmt.Sprintf("vendor capability %q should host its %s on %s", c.Name, f.name, vendor),
				})
			}
		}
	}
	return issues
}

// vendorDomain derives the hosting domain from a com.<vendor>.* capability
// name: "com.example.loyalty" -> "example.com". Only the two-segment com.*
// form is recognized; anything else yields "" (no origin check applies).
func vendorDomain(name string) string {
	if !strings.HasPrefix(name, profile.VendorNamespacePrefix) {
		return ""
	}
	rest := strings.TrimPrefix(name, profile.VendorNamespacePrefix)
	vendor, _, found := strings.Cut(rest, ".")
	if !found || vendor == "" {
		return ""
	}
	return vendor + ".com"
}

func hostedOn(raw, domain string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func checkExtensionIntegrity(p *profile.Profile) []Issue {
	names := p.CapabilityNames()
	var issues []Issue
	for i, c := range p.UCP.Capabilities {
		if c.Extends == "" {
			continue
		}
		// Single-hop check only: the target must exist by name in this
		// document. Multi-level chains and cycles are out of scope.
		if _, ok := names[c.Extends]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     CodeOrphanedExtension,
				Path:     fmt.Sprintf("$.ucp.capabilities[%d].extends", i),
				Message:  fmt.Sprintf("capability %q extends %q, which is not declared in this profile", c.Name, c.Extends),
			})
		}
	}
	return issues
}

func checkEndpointPolicy(p *profile.Profile) []Issue {
	var issues []Issue

	names := make([]string, 0, len(p.UCP.Services))
	for name := range p.UCP.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := p.UCP.Services[name]
		base := "$.ucp.services." + name
		if svc.REST != nil {
			issues = append(issues, checkEndpointURL(base+".rest.endpoint", svc.REST.Endpoint)...)
		}
		if svc.MCP != nil {
			issues = append(issues, checkEndpointURL(base+".mcp.endpoint", svc.MCP.Endpoint)...)
		}
		if svc.A2A != nil {
			issues = append(issues, checkEndpointURL(base+".a2a.agentCard", svc.A2A.AgentCard)...)
		}
	}
	return issues
}

func checkEndpointURL(path, raw string) []Issue {
	if raw == "" {
		return nil
	}
	var issues []Issue
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeEndpointNotHTTPS,
			Path:     path,
			Message:  fmt.Sprintf("endpoint %q must use https", raw),
		})
	}
	if strings.HasSuffix(raw, "/") {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     CodeEndpointTrailingSlash,
			Path:     path,
			Message:  fmt.Sprintf("endpoint %q has a trailing slash", raw),
			Hint:     "agents join capability paths onto the endpoint; a trailing slash produces double slashes",
		})
	}
	if u != nil && privateHost(u.Hostname()) {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     CodePrivateIPEndpoint,
			Path:     path,
			Message:  fmt.Sprintf("endpoint host %q is a loopback or private address", u.Hostname()),
		})
	}
	return issues
}

// privateHost is a static pattern check. No DNS resolution is performed:
// validation must not leak the document's hosts to a resolver.
func privateHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

func checkSigningKeyRequirement(p *profile.Profile) []Issue {
	var issues []Issue

	hasOrder := false
	for _, c := range p.UCP.Capabilities {
		if c.Name == profile.OrderCapability {
			hasOrder = true
			break
		}
	}
	if hasOrder && len(p.UCP.SigningKeys) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeMissingSigningKeys,
			Path:     "$.ucp.signing_keys",
			Message:  fmt.Sprintf("profiles that offer %s must publish signing keys", profile.OrderCapability),
		})
	}

	for i, key := range p.UCP.SigningKeys {
		if key.Alg == "" {
			continue
		}
		if jwt.GetSigningMethod(key.Alg) == nil {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     CodeUnknownKeyAlg,
				Path:     fmt.Sprintf("$.ucp.signing_keys[%d].alg", i),
				Message:  fmt.Sprintf("signing key %q declares unrecognized algorithm %q", key.Kid, key.Alg),
			})
		}
	}
	return issues
}
