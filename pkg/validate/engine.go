// Package validate implements the UCP Business Profile validation engine: a
// phased pipeline of structural, protocol-rule, and network checkers that
// emits issues as data and assembles them into a single report per call.
package validate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/agentic-commerce/ucpcheck/pkg/config"
	"github.com/agentic-commerce/ucpcheck/pkg/schemacache"
)

// Engine composes the checkers into selectable validation modes. It holds no
// per-call state; one Engine serves concurrent validations, sharing only the
// schema cache.
type Engine struct {
	cfg     config.Validator
	client  *http.Client
	cache   schemacache.Cache
	limiter *rate.Limiter
	clock   func() time.Time
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default validator configuration.
func WithConfig(cfg config.Validator) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithHTTPClient replaces the HTTP client used for profile and schema
// fetches. Per-fetch timeouts are applied via context, so the client itself
// needs no Timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.client = client }
}

// WithCache replaces the schema cache, overriding whichever backend New
// would select from the configuration. Tests inject a fresh cache per test.
func WithCache(cache schemacache.Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithClock overrides the clock for deterministic testing.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger replaces the default component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine with default configuration. The schema cache is
// in-memory unless the configuration carries a Redis address, which selects
// the shared Redis backend; WithCache overrides either choice.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    config.Default(),
		client: &http.Client{},
		clock:  time.Now,
		logger: slog.Default().With("component", "validate"),
		tracer: otel.Tracer("github.com/agentic-commerce/ucpcheck/pkg/validate"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		if e.cfg.RedisAddr != "" {
			e.cache = schemacache.NewRedis(redis.NewClient(&redis.Options{Addr: e.cfg.RedisAddr}))
		} else {
			e.cache = schemacache.NewMemory()
		}
	}
	fetchRate, fetchBurst := e.cfg.Limits()
	e.limiter = rate.NewLimiter(rate.Limit(fetchRate), fetchBurst)
	return e
}

// Options configures a single validation call. Zero values fall back to the
// engine configuration.
type Options struct {
	// Mode selects the phases to run; empty means full.
	Mode Mode

	// SkipNetworkChecks suppresses the network phase in network/full modes.
	SkipNetworkChecks bool

	// SkipSchemaFetch short-circuits the schema-fetch phase to an empty
	// issue list without touching the network or the cache.
	SkipSchemaFetch bool

	// FetchTimeout and CacheTTL override the engine defaults for this call.
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

// Validate runs the selected phases against a candidate document of unknown
// shape. The structural phase always runs; if it reports any error the later
// phases are skipped entirely, since they assume structural validity and
// would otherwise emit misleading issues from garbage data.
func (e *Engine) Validate(ctx context.Context, candidate any, opts Options) *Report {
	mode := opts.Mode
	if mode == "" {
		mode = ModeFull
	}

	p, issues := checkStructural(candidate)

	report := &Report{ValidationMode: mode}
	if p != nil {
		report.UCPVersion = p.UCP.Version
		if len(p.UCP.Services) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     CodeEmptyServices,
				Path:     "$.ucp.services",
				Message:  "profile declares no services",
			})
		}
	}

	if mode != ModeStructural && !HasErrors(issues) {
		if mode == ModeRules || mode == ModeFull {
			issues = append(issues, checkRules(p)...)
		}
		if (mode == ModeNetwork || mode == ModeFull) && !opts.SkipNetworkChecks {
			issues = append(issues, e.checkNetwork(ctx, p, opts)...)
		}
	}

	if issues == nil {
		issues = []Issue{}
	}
	report.Issues = issues
	report.OK = !HasErrors(issues)
	report.ValidatedAt = e.clock().UTC()
	return report
}

// Quick is the no-I/O entry point: structural plus rules, never network,
// regardless of any caller-supplied mode elsewhere.
func (e *Engine) Quick(ctx context.Context, candidate any) *Report {
	return e.Validate(ctx, candidate, Options{Mode: ModeRules})
}

// Remote fetches a merchant's profile from its well-known location and runs
// the full pipeline on it. Acquisition issues precede validation issues in
// the final report. A failed acquisition still yields a well-formed report:
// ok false, a single fetch issue, no version.
func (e *Engine) Remote(ctx context.Context, domain string, opts Options) *Report {
	opts.Mode = ModeFull

	candidate, profileURL, acqIssues := e.fetchProfile(ctx, domain)
	if candidate == nil {
		return &Report{
			OK:             false,
			Issues:         acqIssues,
			ValidatedAt:    e.clock().UTC(),
			ValidationMode: ModeFull,
		}
	}

	report := e.Validate(ctx, candidate, opts)
	report.ProfileURL = profileURL
	if len(acqIssues) > 0 {
		report.Issues = append(append([]Issue{}, acqIssues...), report.Issues...)
		report.OK = !HasErrors(report.Issues)
	}
	return report
}
