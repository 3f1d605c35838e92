package cache

import (
	"time"

	"git.home.luguber.info/inful/docfetch/internal/fetch"
)

// Entry is one cached fetch outcome, success or classified failure.
// Hard failures (cancellation, broken body reads) are never stored.
type Entry struct {
	URL             string    `json:"url"`
	UserAgent       string    `json:"user_agent,omitempty"`
	Valid           bool      `json:"valid"`
	Status          uint16    `json:"status,omitempty"`
	Body            []byte    `json:"body,omitempty"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	ErrorStatusCode uint16    `json:"error_status_code,omitempty"`
	ErrorDetail     string    `json:"error_detail,omitempty"`
	FetchedAt       time.Time `json:"fetched_at"`
	FailureCount    int       `json:"failure_count,omitempty"`
	FirstFailedAt   time.Time `json:"first_failed_at,omitempty"`
}

// FromResult captures a completed fetch for the given key, stamped with
// the fetch time.
func FromResult(key Key, result *fetch.Result, now time.Time) *Entry {
	entry := &Entry{
		URL:       key.URL,
		UserAgent: key.UserAgent,
		FetchedAt: now,
	}
	switch {
	case result.Response != nil:
		entry.Valid = true
		entry.Status = result.Response.Status
		entry.Body = []byte(result.Response.Body)
	case result.Err != nil:
		entry.ErrorKind = string(result.Err.Kind)
		entry.ErrorStatusCode = result.Err.StatusCode
		entry.ErrorDetail = result.Err.Detail
	}
	return entry
}

// ToResult rebuilds the fetch outcome this entry captured.
func (e *Entry) ToResult() *fetch.Result {
	if e.Valid {
		return &fetch.Result{Response: &fetch.Response{
			Status: e.Status,
			Body:   fetch.ResponseBody(e.Body),
		}}
	}
	return &fetch.Result{Err: &fetch.FetchError{
		URL:        e.URL,
		Kind:       fetch.ErrorKind(e.ErrorKind),
		StatusCode: e.ErrorStatusCode,
		Detail:     e.ErrorDetail,
	}}
}

// Policy controls how long cached outcomes stay usable. Failures age on
// their own clock so broken resources get re-checked sooner.
type Policy struct {
	TTL        time.Duration
	FailureTTL time.Duration
}

// Fresh reports whether the entry can still be served at the given time.
// A zero or negative TTL means entries of that kind are never fresh.
func (p Policy) Fresh(entry *Entry, now time.Time) bool {
	if entry == nil {
		return false
	}
	ttl := p.TTL
	if !entry.Valid {
		ttl = p.FailureTTL
	}
	if ttl <= 0 {
		return false
	}
	return now.Sub(entry.FetchedAt) < ttl
}
