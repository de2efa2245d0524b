// Package profile defines the UCP Business Profile data model.
//
// A Business Profile is the JSON document a merchant publishes at the
// well-known UCP paths to advertise supported services, capabilities,
// transports, and signing keys to automated shopping agents. The types here
// are the typed side of the validation narrowing boundary: untrusted input
// enters as `any`, and only documents that pass structural validation are
// materialized into a Profile.
package profile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Protocol constants. These are part of the UCP wire contract and must not
// change between releases.
const (
	// CanonicalDomain is the host that dev.ucp.* specs and schemas live on.
	CanonicalDomain = "ucp.dev"

	// NamespacePrefix marks capabilities owned by the protocol itself.
	NamespacePrefix = "dev.ucp."

	// VendorNamespacePrefix marks vendor-extension capabilities
	// (com.<vendor>.<feature>).
	VendorNamespacePrefix = "com."

	// OrderCapability is the capability that makes signing keys mandatory.
	OrderCapability = "dev.ucp.shopping.order"

	// WellKnownPath and WellKnownPathJSON are the discovery locations, tried
	// in this order during remote acquisition.
	WellKnownPath     = "/.well-known/ucp"
	WellKnownPathJSON = "/.well-known/ucp.json"
)

// Profile is the root Business Profile document.
type Profile struct {
	UCP UCP `json:"ucp"`
}

// UCP is the required protocol envelope inside a Profile.
type UCP struct {
	Version      string             `json:"version"`
	Services     map[string]Service `json:"services"`
	Capabilities []Capability       `json:"capabilities"`
	SigningKeys  []SigningKey       `json:"signing_keys,omitempty"`
}

// Service is a named entry point with its transport bindings. A service
// should carry at least one binding; a service without any is reachable by
// no agent.
type Service struct {
	Version  string             `json:"version"`
	Spec     string             `json:"spec"`
	REST     *RESTTransport     `json:"rest,omitempty"`
	MCP      *MCPTransport      `json:"mcp,omitempty"`
	A2A      *A2ATransport      `json:"a2a,omitempty"`
	Embedded *EmbeddedTransport `json:"embedded,omitempty"`
}

// RESTTransport binds a service to a plain HTTP endpoint.
type RESTTransport struct {
	Schema   string `json:"schema"`
	Endpoint string `json:"endpoint"`
}

// MCPTransport binds a service to a Model Context Protocol endpoint.
type MCPTransport struct {
	Schema   string `json:"schema"`
	Endpoint string `json:"endpoint"`
}

// A2ATransport binds a service to an A2A agent card.
type A2ATransport struct {
	AgentCard string `json:"agentCard"`
}

// EmbeddedTransport carries a schema for in-document invocation.
type EmbeddedTransport struct {
	Schema string `json:"schema"`
}

// HasTransport reports whether at least one transport binding is present.
func (s Service) HasTransport() bool {
	return s.REST != nil || s.MCP != nil || s.A2A != nil || s.Embedded != nil
}

// Capability is a named, versioned unit of protocol functionality.
type Capability struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Spec    string `json:"spec"`
	Schema  string `json:"schema"`
	Extends string `json:"extends,omitempty"`
}

// SigningKey is a JWK-shaped key entry. Only kty and kid are required by the
// protocol; algorithm-specific fields pass through untouched.
type SigningKey struct {
	Kty    string         `json:"kty"`
	Kid    string         `json:"kid"`
	Alg    string         `json:"alg,omitempty"`
	Use    string         `json:"use,omitempty"`
	Extra  map[string]any `json:"-"`
	rawKey json.RawMessage
}

// UnmarshalJSON keeps the raw key material so algorithm-specific fields
// survive a round trip.
func (k *SigningKey) UnmarshalJSON(data []byte) error {
	type alias struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Alg string `json:"alg"`
		Use string `json:"use"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var extra map[string]any
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	delete(extra, "kty")
	delete(extra, "kid")
	delete(extra, "alg")
	delete(extra, "use")
	k.Kty, k.Kid, k.Alg, k.Use = a.Kty, a.Kid, a.Alg, a.Use
	k.Extra = extra
	k.rawKey = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the original key document when one was parsed.
func (k SigningKey) MarshalJSON() ([]byte, error) {
	if len(k.rawKey) > 0 {
		return k.rawKey, nil
	}
	type alias struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Alg string `json:"alg,omitempty"`
		Use string `json:"use,omitempty"`
	}
	return json.Marshal(alias{Kty: k.Kty, Kid: k.Kid, Alg: k.Alg, Use: k.Use})
}

// CapabilityNames returns the set of capability names declared in the
// profile. Extension integrity is a lookup into this set.
func (p *Profile) CapabilityNames() map[string]struct{} {
	names := make(map[string]struct{}, len(p.UCP.Capabilities))
	for _, c := range p.UCP.Capabilities {
		names[c.Name] = struct{}{}
	}
	return names
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
// Protocol versions are calendar dates, not semver.
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// FromAny materializes a typed Profile from an already structurally valid
// candidate. Callers must only invoke this after structural validation
// reported no errors; on malformed input the error reflects a programming
// contract violation, not a document defect.
func FromAny(candidate any) (*Profile, error) {
	data, err := json.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("profile: encode candidate: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: decode candidate: %w", err)
	}
	return &p, nil
}

// LastSegment returns the final dot-separated segment of a namespaced
// capability name ("dev.ucp.shopping.checkout" -> "checkout").
func LastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
