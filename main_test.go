package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRetriever serves canned feed bodies by URL; unknown URLs fail.
type stubRetriever map[string]string

func (s stubRetriever) FetchText(ctx context.Context, feedURL string) (string, error) {
	body, ok := s[feedURL]
	if !ok {
		return "", errors.New("unreachable")
	}
	return body, nil
}

func testApp(t *testing.T) App {
	t.Helper()
	show, err := os.ReadFile("testdata/show.xml")
	require.NoError(t, err)

	return NewApp(stubRetriever{
		"http://feeds/show":    string(show),
		"http://feeds/garbage": "<rss><channel><title>cut off",
		"http://feeds/html":    "<html><body>not a feed</body></html>",
	}, Mapper{})
}

func TestFetchShow(t *testing.T) {
	app := testApp(t)

	show, err := app.FetchShow(context.Background(), "http://feeds/show")
	require.NoError(t, err)
	assert.Equal(t, "Show A", show.Title)
	assert.Len(t, show.Episodes, 3)
}

func TestFetchShowErrors(t *testing.T) {
	app := testApp(t)

	tests := []struct {
		url string
		op  string
	}{
		{"http://feeds/missing", "fetch"},
		{"http://feeds/garbage", "parse"},
		{"http://feeds/html", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			show, err := app.FetchShow(context.Background(), tt.url)
			assert.Nil(t, show)

			var fpe *FetchOrParseError
			require.ErrorAs(t, err, &fpe)
			assert.Equal(t, tt.op, fpe.Op)
			assert.Equal(t, tt.url, fpe.URL)
		})
	}
}

func TestViewerClearsOnFailure(t *testing.T) {
	v := testApp(t).NewViewer()

	v.Load(context.Background(), "http://feeds/show")
	require.NotNil(t, v.Show)
	assert.Empty(t, v.Error)

	v.Load(context.Background(), "http://feeds/missing")
	assert.Nil(t, v.Show, "no stale show after a failure")
	assert.Equal(t, FetchErrorMessage, v.Error)
	assert.Equal(t, "http://feeds/missing", v.URL)

	v.Load(context.Background(), "http://feeds/show")
	assert.NotNil(t, v.Show)
	assert.Empty(t, v.Error)
}

func TestRoot(t *testing.T) {
	router := testApp(t).Router()

	tests := []struct {
		name     string
		req      *http.Request
		status   int
		contains []string
		excludes []string
	}{
		{
			name:     "empty form",
			req:      httptest.NewRequest(http.MethodGet, "/", nil),
			status:   http.StatusOK,
			contains: []string{"Podcast Viewer", `name="url"`},
			excludes: []string{"alert-danger", "Episodes"},
		},
		{
			name:   "show via query",
			req:    httptest.NewRequest(http.MethodGet, "/?url="+url.QueryEscape("http://feeds/show"), nil),
			status: http.StatusOK,
			contains: []string{
				"<h2>Show A</h2>",
				`src="http://x/itunes.jpg"`,
				"American English",
				"<h4>Ep1</h4>",
				"Published:</strong> 1/1/2024",
				"Duration:</strong> 3600 seconds",
				`href="http://x/ep1.mp3"`,
				"Published:</strong> sometime soon",
			},
		},
		{
			name:     "post empty url",
			req:      formRequest(""),
			status:   http.StatusUnprocessableEntity,
			contains: []string{noURLMessage},
		},
		{
			name:     "post failing url",
			req:      formRequest("http://feeds/garbage"),
			status:   http.StatusBadGateway,
			contains: []string{FetchErrorMessage, `value="http://feeds/garbage"`},
			excludes: []string{"Episodes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req)

			assert.Equal(t, tt.status, w.Code)
			body := w.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestRootLocale(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?url="+url.QueryEscape("http://feeds/show"), nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.5")

	w := httptest.NewRecorder()
	testApp(t).Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Published:</strong> 1.1.2024")
}

func formRequest(feedURL string) *http.Request {
	form := url.Values{}
	form.Set("url", feedURL)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestShowAPI(t *testing.T) {
	router := testApp(t).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/show?url="+url.QueryEscape("http://feeds/show"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))

	var show Show
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &show))
	assert.Equal(t, "Show A", show.Title)
	require.Len(t, show.Episodes, 3)
	assert.Nil(t, show.Episodes[2].Duration)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	ep3 := raw["episodes"].([]interface{})[2].(map[string]interface{})
	assert.NotContains(t, ep3, "duration", "absent, not zero")
	assert.NotContains(t, ep3, "url")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/show?url="+url.QueryEscape("http://feeds/missing"), nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error": "Failed to fetch or parse the podcast RSS feed."}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/show", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error": "no url"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	app := testApp(t)
	_, _ = app.FetchShow(context.Background(), "http://feeds/show")

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `podview_feed_loads_total{result="ok"}`)
}
