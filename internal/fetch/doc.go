// Package fetch retrieves remote resources over HTTP for the build
// pipeline.
//
// A fetch is one GET request. The outcome is a Result carrying either
// the response payload or a FetchError classified as connect, timeout,
// status or other. Classified failures are ordinary outcomes: they are
// meant to be cached and reported, not to abort a run. Hard errors are
// reserved for cancellation and for response bodies that break mid-read.
//
// The client takes no caching or retry decisions. Memoization lives in
// the cache package; a failed fetch is repeated only once its cache
// entry expires.
package fetch
