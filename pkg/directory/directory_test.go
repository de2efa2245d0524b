package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-commerce/ucpcheck/pkg/validate"
)

// fakeValidator maps domains to canned reports; unknown domains fail.
type fakeValidator struct {
	reports map[string]*validate.Report
	calls   int
}

func (f *fakeValidator) Remote(_ context.Context, domain string, _ validate.Options) *validate.Report {
	f.calls++
	if r, ok := f.reports[domain]; ok {
		return r
	}
	return failingReport()
}

func passingReport(version string) *validate.Report {
	return &validate.Report{
		OK:             true,
		UCPVersion:     version,
		Issues:         []validate.Issue{},
		ValidatedAt:    time.Now().UTC(),
		ValidationMode: validate.ModeFull,
	}
}

func failingReport() *validate.Report {
	return &validate.Report{
		OK: false,
		Issues: []validate.Issue{{
			Severity: validate.SeverityError,
			Code:     validate.CodeProfileFetchFailed,
			Path:     "$",
			Message:  "no UCP profile found",
		}},
		ValidatedAt:    time.Now().UTC(),
		ValidationMode: validate.ModeFull,
	}
}

func TestSubmit_ValidProfileIsListed(t *testing.T) {
	fv := &fakeValidator{reports: map[string]*validate.Report{
		"shop.example.com": passingReport("2026-01-11"),
	}}
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	d := New(fv).WithClock(func() time.Time { return now })

	entry, report, err := d.Submit(context.Background(), "shop.example.com")
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "shop.example.com", entry.Domain)
	assert.NotEmpty(t, entry.Fingerprint)
	assert.Equal(t, now, entry.SubmittedAt)
	assert.Equal(t, now, entry.RefreshedAt)

	got, err := d.GetByDomain("shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
}

func TestSubmit_FailingProfileRejected(t *testing.T) {
	d := New(&fakeValidator{})

	entry, report, err := d.Submit(context.Background(), "broken.example.com")
	require.ErrorIs(t, err, ErrRejected)
	assert.Nil(t, entry)
	require.NotNil(t, report, "the rejecting report is returned so callers can surface issues")
	assert.False(t, report.OK)
	assert.Empty(t, d.List())
}

func TestSubmit_ResubmitRefreshesInPlace(t *testing.T) {
	fv := &fakeValidator{reports: map[string]*validate.Report{
		"shop.example.com": passingReport("2026-01-11"),
	}}
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	d := New(fv).WithClock(func() time.Time { return now })

	first, _, err := d.Submit(context.Background(), "shop.example.com")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	second, _, err := d.Submit(context.Background(), "shop.example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "resubmission must not mint a new identity")
	assert.Equal(t, first.SubmittedAt, second.SubmittedAt)
	assert.Equal(t, now, second.RefreshedAt)
	assert.Len(t, d.List(), 1)
}

func TestRefresh_PassingKeepsEntry(t *testing.T) {
	fv := &fakeValidator{reports: map[string]*validate.Report{
		"shop.example.com": passingReport("2026-01-11"),
	}}
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	d := New(fv).WithClock(func() time.Time { return now })

	entry, _, err := d.Submit(context.Background(), "shop.example.com")
	require.NoError(t, err)

	now = now.Add(24 * time.Hour)
	refreshed, report, err := d.Refresh(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, now, refreshed.RefreshedAt)
	assert.Equal(t, entry.SubmittedAt, refreshed.SubmittedAt)
}

func TestRefresh_FailingDelists(t *testing.T) {
	fv := &fakeValidator{reports: map[string]*validate.Report{
		"shop.example.com": passingReport("2026-01-11"),
	}}
	d := New(fv)

	entry, _, err := d.Submit(context.Background(), "shop.example.com")
	require.NoError(t, err)

	// The merchant's profile breaks between submission and refresh.
	delete(fv.reports, "shop.example.com")

	_, report, err := d.Refresh(context.Background(), entry.ID)
	require.ErrorIs(t, err, ErrRejected)
	assert.False(t, report.OK)

	_, err = d.Get(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = d.GetByDomain("shop.example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefresh_UnknownID(t *testing.T) {
	d := New(&fakeValidator{})
	_, _, err := d.Refresh(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_OrderedByDomain(t *testing.T) {
	fv := &fakeValidator{reports: map[string]*validate.Report{
		"zeta.example.com":  passingReport("2026-01-11"),
		"alpha.example.com": passingReport("2026-01-11"),
		"mid.example.com":   passingReport("2026-01-11"),
	}}
	d := New(fv)

	for _, domain := range []string{"zeta.example.com", "alpha.example.com", "mid.example.com"} {
		_, _, err := d.Submit(context.Background(), domain)
		require.NoError(t, err)
	}

	listed := d.List()
	require.Len(t, listed, 3)
	assert.Equal(t, "alpha.example.com", listed[0].Domain)
	assert.Equal(t, "mid.example.com", listed[1].Domain)
	assert.Equal(t, "zeta.example.com", listed[2].Domain)
}

func TestRemove(t *testing.T) {
	fv := &fakeValidator{reports: map[string]*validate.Report{
		"shop.example.com": passingReport("2026-01-11"),
	}}
	d := New(fv)

	entry, _, err := d.Submit(context.Background(), "shop.example.com")
	require.NoError(t, err)

	require.NoError(t, d.Remove(entry.ID))
	assert.ErrorIs(t, d.Remove(entry.ID), ErrNotFound)
	_, err = d.GetByDomain("shop.example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFingerprint_IgnoresValidatedAt(t *testing.T) {
	a := passingReport("2026-01-11")
	b := passingReport("2026-01-11")
	b.ValidatedAt = b.ValidatedAt.Add(48 * time.Hour)

	fpA, err := Fingerprint(a)
	require.NoError(t, err)
	fpB, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fpA, fpB, "timestamps must not perturb the fingerprint")
}

func TestFingerprint_SensitiveToIssues(t *testing.T) {
	a := passingReport("2026-01-11")
	b := passingReport("2026-01-11")
	b.Issues = []validate.Issue{{
		Severity: validate.SeverityWarn,
		Code:     validate.CodeEndpointTrailingSlash,
		Path:     "$.ucp.services.storefront.rest.endpoint",
		Message:  "endpoint has a trailing slash",
	}}

	fpA, err := Fingerprint(a)
	require.NoError(t, err)
	fpB, err := Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fpA, fpB)
}
