package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docfetch/internal/fetch"
)

func TestFromResult_Success(t *testing.T) {
	key := Key{URL: "https://example.com/doc.json", UserAgent: "docfetch/1.0"}
	now := time.Unix(1700000000, 0)
	result := &fetch.Result{Response: &fetch.Response{
		Status: 200,
		Body:   fetch.ResponseBody("hello"),
	}}

	entry := FromResult(key, result, now)

	require.True(t, entry.Valid)
	assert.Equal(t, "https://example.com/doc.json", entry.URL)
	assert.Equal(t, "docfetch/1.0", entry.UserAgent)
	assert.Equal(t, uint16(200), entry.Status)
	assert.Equal(t, []byte("hello"), entry.Body)
	assert.Equal(t, now, entry.FetchedAt)
	assert.Empty(t, entry.ErrorKind)
}

func TestFromResult_ClassifiedFailure(t *testing.T) {
	key := Key{URL: "https://example.com/missing"}
	now := time.Unix(1700000000, 0)
	result := &fetch.Result{Err: &fetch.FetchError{
		URL:        "https://example.com/missing",
		Kind:       fetch.KindStatus,
		StatusCode: 404,
		Detail:     "HTTP 404: 404 Not Found",
	}}

	entry := FromResult(key, result, now)

	require.False(t, entry.Valid)
	assert.Equal(t, "status", entry.ErrorKind)
	assert.Equal(t, uint16(404), entry.ErrorStatusCode)
	assert.Equal(t, "HTTP 404: 404 Not Found", entry.ErrorDetail)
	assert.Empty(t, entry.Body)
}

func TestToResult_RoundTrip(t *testing.T) {
	key := Key{URL: "https://example.com/doc.json", UserAgent: "docfetch/1.0"}
	now := time.Unix(1700000000, 0)

	success := &fetch.Result{Response: &fetch.Response{Status: 201, Body: fetch.ResponseBody("created")}}
	got := FromResult(key, success, now).ToResult()
	require.NotNil(t, got.Response)
	assert.Equal(t, uint16(201), got.Response.Status)
	assert.Equal(t, "created", got.Response.Body.String())
	assert.Nil(t, got.Err)

	failure := &fetch.Result{Err: &fetch.FetchError{
		URL:    "https://example.com/doc.json",
		Kind:   fetch.KindConnect,
		Detail: "dial tcp: connection refused",
	}}
	got = FromResult(key, failure, now).ToResult()
	require.NotNil(t, got.Err)
	assert.Equal(t, fetch.KindConnect, got.Err.Kind)
	assert.Equal(t, "dial tcp: connection refused", got.Err.Detail)
	assert.Equal(t, "https://example.com/doc.json", got.Err.URL)
	assert.Nil(t, got.Response)
}

func TestPolicyFresh(t *testing.T) {
	now := time.Unix(1700000000, 0)
	policy := Policy{TTL: time.Hour, FailureTTL: 10 * time.Minute}

	success := &Entry{Valid: true, FetchedAt: now.Add(-30 * time.Minute)}
	failure := &Entry{Valid: false, FetchedAt: now.Add(-30 * time.Minute)}

	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{"success within TTL", success, true},
		{"success past TTL", &Entry{Valid: true, FetchedAt: now.Add(-2 * time.Hour)}, false},
		{"failure past its shorter TTL", failure, false},
		{"failure within failure TTL", &Entry{Valid: false, FetchedAt: now.Add(-5 * time.Minute)}, true},
		{"nil entry", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Fresh(tt.entry, now))
		})
	}
}

func TestPolicyFresh_ZeroTTLNeverFresh(t *testing.T) {
	now := time.Unix(1700000000, 0)
	policy := Policy{}

	entry := &Entry{Valid: true, FetchedAt: now}
	assert.False(t, policy.Fresh(entry, now))
}
