package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
)

type echoBody struct {
	Value string `json:"value"`
}

func TestGetDecodesJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	var out echoBody
	err := client.Get(context.Background(), "/anything", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestGetWithParamsEncodesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	var out echoBody
	err := client.GetWithParams(context.Background(), "/search", map[string]string{"q": "the matrix"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "q=the+matrix", gotQuery)
}

func TestNonRetriableStatusFailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	var out echoBody
	err := client.Get(context.Background(), "/missing", &out)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, scraperrors.KindAPI, scraperrors.GetKind(err))
}

func TestServerErrorRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"value":"recovered"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	var out echoBody
	err := client.Get(context.Background(), "/flaky", &out)
	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Value)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRateLimitHonorsRetryAfterHeader(t *testing.T) {
	var calls int32
	var firstCallAt, secondCallAt time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			firstCallAt = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		secondCallAt = time.Now()
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	var out echoBody
	err := client.Get(context.Background(), "/rate-limited", &out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secondCallAt.Sub(firstCallAt), 900*time.Millisecond)
}

func TestPostJSONSendsEncodedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"value":"posted"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, nil)
	var out echoBody
	err := client.PostJSON(context.Background(), "", map[string]string{"query": "x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "posted", out.Value)
}

func TestParseRetryAfterSeconds(t *testing.T) {
	d := parseRetryAfter("5")
	assert.Equal(t, 5*time.Second, d)
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 10*time.Second)
}

func TestParseRetryAfterEmpty(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
}
