// Package wikidata provides the HTTP surface against the Wikidata SPARQL
// endpoint and the wbgetentities API.
//
// SPARQL results arrive with every scalar wrapped in a provider envelope
// ({type, value, ...}); Normalize flattens those into flat Records with a
// fixed column order. The client applies a courtesy delay before every
// request and bounded retries with a configurable backoff policy on top.
package wikidata
