// Package ratelimit provides request pacing for the public Wikidata and
// Wikipedia endpoints.
//
// Both APIs are shared infrastructure; the pacer guarantees a minimum gap
// between consecutive requests regardless of how fast batches complete or
// how retries are scheduled. Retry backoff stacks on top of the pacer, it
// never replaces it.
package ratelimit
