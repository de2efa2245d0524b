// Package directory maintains an in-memory registry of merchants whose
// profiles passed remote validation. Validation is the admission gate: a
// submission is rejected when its report carries any error. The store is
// deliberately in-process only; callers that need durability wrap it.
package directory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/agentic-commerce/ucpcheck/pkg/validate"
)

// ErrRejected is returned when a submitted domain fails validation. The
// accompanying report carries the issues.
var ErrRejected = errors.New("directory: profile failed validation")

// ErrNotFound is returned for lookups of unknown entries.
var ErrNotFound = errors.New("directory: entry not found")

// Entry is one listed merchant.
type Entry struct {
	ID          string           `json:"id"`
	Domain      string           `json:"domain"`
	Report      *validate.Report `json:"report"`
	Fingerprint string           `json:"fingerprint"`
	SubmittedAt time.Time        `json:"submitted_at"`
	RefreshedAt time.Time        `json:"refreshed_at"`
}

// Validator is the slice of the engine the directory needs.
type Validator interface {
	Remote(ctx context.Context, domain string, opts validate.Options) *validate.Report
}

// Directory is safe for concurrent use.
type Directory struct {
	mu       sync.RWMutex
	entries  map[string]*Entry // id -> entry
	byDomain map[string]string // domain -> id

	validator Validator
	clock     func() time.Time
	logger    *slog.Logger
}

// New creates an empty directory gated by the given validator.
func New(validator Validator) *Directory {
	return &Directory{
		entries:   make(map[string]*Entry),
		byDomain:  make(map[string]string),
		validator: validator,
		clock:     time.Now,
		logger:    slog.Default().With("component", "directory"),
	}
}

// WithClock overrides the clock for deterministic testing.
func (d *Directory) WithClock(clock func() time.Time) *Directory {
	d.clock = clock
	return d
}

// Submit validates domain remotely and, on success, lists it. Resubmitting a
// listed domain refreshes its entry in place. The report is returned in both
// outcomes so callers can surface issues either way.
func (d *Directory) Submit(ctx context.Context, domain string) (*Entry, *validate.Report, error) {
	report := d.validator.Remote(ctx, domain, validate.Options{})
	if !report.OK {
		d.logger.Info("submission rejected", "domain", domain, "issues", len(report.Issues))
		return nil, report, fmt.Errorf("%w: %s", ErrRejected, domain)
	}

	fingerprint, err := Fingerprint(report)
	if err != nil {
		return nil, report, fmt.Errorf("directory: fingerprint report: %w", err)
	}

	now := d.clock().UTC()
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byDomain[domain]; ok {
		entry := d.entries[id]
		entry.Report = report
		entry.Fingerprint = fingerprint
		entry.RefreshedAt = now
		return entry.clone(), report, nil
	}

	entry := &Entry{
		ID:          uuid.NewString(),
		Domain:      domain,
		Report:      report,
		Fingerprint: fingerprint,
		SubmittedAt: now,
		RefreshedAt: now,
	}
	d.entries[entry.ID] = entry
	d.byDomain[domain] = entry.ID
	d.logger.Info("merchant listed", "domain", domain, "id", entry.ID)
	return entry.clone(), report, nil
}

// Refresh revalidates a listed entry. A failing revalidation delists it: a
// directory must not keep advertising a merchant that no longer validates.
func (d *Directory) Refresh(ctx context.Context, id string) (*Entry, *validate.Report, error) {
	d.mu.RLock()
	entry, ok := d.entries[id]
	d.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}

	report := d.validator.Remote(ctx, entry.Domain, validate.Options{})
	if !report.OK {
		d.mu.Lock()
		delete(d.byDomain, entry.Domain)
		delete(d.entries, id)
		d.mu.Unlock()
		d.logger.Info("merchant delisted on refresh", "domain", entry.Domain, "id", id)
		return nil, report, fmt.Errorf("%w: %s", ErrRejected, entry.Domain)
	}

	fingerprint, err := Fingerprint(report)
	if err != nil {
		return nil, report, fmt.Errorf("directory: fingerprint report: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	entry.Report = report
	entry.Fingerprint = fingerprint
	entry.RefreshedAt = d.clock().UTC()
	return entry.clone(), report, nil
}

// Get returns the entry with the given id.
func (d *Directory) Get(id string) (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.clone(), nil
}

// GetByDomain returns the entry for a listed domain.
func (d *Directory) GetByDomain(domain string) (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byDomain[domain]
	if !ok {
		return nil, ErrNotFound
	}
	return d.entries[id].clone(), nil
}

// List returns all entries, ordered by domain.
func (d *Directory) List() []*Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Entry, 0, len(d.entries))
	for _, entry := range d.entries {
		out = append(out, entry.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Remove delists an entry.
func (d *Directory) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.entries[id]
	if !ok {
		return ErrNotFound
	}
	delete(d.byDomain, entry.Domain)
	delete(d.entries, id)
	return nil
}

func (e *Entry) clone() *Entry {
	c := *e
	return &c
}

// Fingerprint hashes the stable portion of a report (outcome, version,
// issues) over its JCS canonical form. Two reports for an unchanged profile
// produce the same fingerprint even though validated_at differs, which makes
// change detection a string compare.
func Fingerprint(report *validate.Report) (string, error) {
	stable := struct {
		OK         bool             `json:"ok"`
		UCPVersion string           `json:"ucp_version"`
		Issues     []validate.Issue `json:"issues"`
	}{report.OK, report.UCPVersion, report.Issues}

	data, err := json.Marshal(stable)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
