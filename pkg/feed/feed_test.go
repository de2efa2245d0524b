package feed

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-commerce/ucpcheck/pkg/config"
	"github.com/agentic-commerce/ucpcheck/pkg/validate"
)

const completeItem = `{"id":"sku-1","title":"Widget","price":"9.99 USD","availability":"in_stock","link":"https://shop.example.com/widget"}`

func serveFeed(t *testing.T, body string) (*Checker, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(config.Default()), server.URL + "/feed.json"
}

func issueCodes(issues []validate.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestCheck_CompleteFeedIsClean(t *testing.T) {
	c, feedURL := serveFeed(t, `[`+completeItem+`]`)
	assert.Empty(t, c.Check(context.Background(), feedURL))
}

func TestCheck_ItemsWrapperObjectAccepted(t *testing.T) {
	c, feedURL := serveFeed(t, `{"updated":"2026-08-01","items":[`+completeItem+`]}`)
	assert.Empty(t, c.Check(context.Background(), feedURL))
}

func TestCheck_IncompleteItemListsMissingFields(t *testing.T) {
	c, feedURL := serveFeed(t, `[{"id":"sku-2","title":"Gadget"}]`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeFeedItemIncomplete, issues[0].Code)
	assert.Equal(t, "$[0]", issues[0].Path)
	assert.Contains(t, issues[0].Message, "price")
	assert.Contains(t, issues[0].Message, "availability")
	assert.Contains(t, issues[0].Message, "link")
}

func TestCheck_EmptyStringCountsAsMissing(t *testing.T) {
	c, feedURL := serveFeed(t, `[{"id":"","title":"Widget","price":"9.99","availability":"in_stock","link":"https://shop.example.com/w"}]`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "id")
}

func TestCheck_InsecureLink(t *testing.T) {
	c, feedURL := serveFeed(t, `[{"id":"sku-3","title":"Thing","price":"1.00","availability":"in_stock","link":"http://shop.example.com/thing"}]`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeFeedInsecureLink, issues[0].Code)
	assert.Equal(t, "$[0].link", issues[0].Path)
}

func TestCheck_NonObjectItem(t *testing.T) {
	c, feedURL := serveFeed(t, `["just a string", `+completeItem+`]`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeFeedItemIncomplete, issues[0].Code)
	assert.Equal(t, "$[0]", issues[0].Path)
}

func TestCheck_EmptyFeed(t *testing.T) {
	for _, body := range []string{`[]`, `{"items":[]}`} {
		c, feedURL := serveFeed(t, body)
		issues := c.Check(context.Background(), feedURL)
		require.Len(t, issues, 1)
		assert.Equal(t, CodeFeedEmpty, issues[0].Code)
		assert.Equal(t, validate.SeverityWarn, issues[0].Severity)
	}
}

func TestCheck_NotJSON(t *testing.T) {
	c, feedURL := serveFeed(t, `<rss version="2.0"></rss>`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeFeedNotJSON, issues[0].Code)
	assert.Equal(t, validate.SeverityError, issues[0].Severity)
}

func TestCheck_ObjectWithoutItemsRejected(t *testing.T) {
	c, feedURL := serveFeed(t, `{"products":[]}`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeFeedNotJSON, issues[0].Code)
}

func TestCheck_ServerErrorIsSingleWarn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New(config.Default())
	issues := c.Check(context.Background(), server.URL+"/feed.json")
	require.Len(t, issues, 1)
	assert.Equal(t, CodeFeedFetchFailed, issues[0].Code)
	assert.Equal(t, validate.SeverityWarn, issues[0].Severity)
}

func TestCheck_FetchFailureLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(config.Default()).WithLogger(logger)

	c.Check(context.Background(), server.URL+"/feed.json")

	assert.Contains(t, buf.String(), "feed fetch failed")
	assert.Contains(t, buf.String(), "status=502")
}

func TestCheck_EachDefectiveItemReported(t *testing.T) {
	c, feedURL := serveFeed(t, `[{"id":"a"},{"id":"b"},`+completeItem+`]`)

	issues := c.Check(context.Background(), feedURL)
	require.Len(t, issues, 2)
	assert.Equal(t, "$[0]", issues[0].Path)
	assert.Equal(t, "$[1]", issues[1].Path)
}
