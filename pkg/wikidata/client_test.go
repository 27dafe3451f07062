package wikidata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emanongen/wiki-project/pkg/config"
	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/ratelimit"
)

// testClient builds a client against a test server with fast retries
func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Wikidata.SPARQLEndpoint = server.URL + "/sparql"
	cfg.Wikidata.APIEndpoint = server.URL + "/w/api.php"
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 10 * time.Millisecond

	client := NewClient(cfg, logger.NewTestLogger())
	client.SetHTTPClient(server.Client())
	client.SetPacer(ratelimit.Noop())
	return client
}

const sparqlResponseBody = `{
	"head": {"vars": ["person", "birthdate"]},
	"results": {"bindings": [
		{
			"person": {"type": "uri", "value": "http://www.wikidata.org/entity/Q1234"},
			"birthdate": {"type": "literal", "value": "1823-01-15T00:00:00Z"}
		},
		{
			"person": {"type": "uri", "value": "http://www.wikidata.org/entity/Q5678"},
			"birthdate": {"type": "literal", "value": "1824-03-02T00:00:00Z"}
		}
	]}
}`

func TestQuerySPARQL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sparql", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("query"))
		assert.Equal(t, "application/sparql-results+json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(sparqlResponseBody))
	}))
	defer server.Close()

	client := testClient(t, server)
	bindings, err := client.QuerySPARQL(context.Background(), "SELECT ?person WHERE { }")
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "http://www.wikidata.org/entity/Q1234", bindings[0]["person"].Value)
	assert.Equal(t, "1824-03-02T00:00:00Z", bindings[1]["birthdate"].Value)
}

func TestQuerySPARQLEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head": {"vars": ["person"]}, "results": {"bindings": []}}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	bindings, err := client.QuerySPARQL(context.Background(), "SELECT ?person WHERE { }")
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestQuerySPARQLRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sparqlResponseBody))
	}))
	defer server.Close()

	client := testClient(t, server)
	bindings, err := client.QuerySPARQL(context.Background(), "SELECT ?person WHERE { }")
	require.NoError(t, err)
	assert.Len(t, bindings, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQuerySPARQLExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.QuerySPARQL(context.Background(), "SELECT ?person WHERE { }")
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeExhaustedRetries, typed.Type)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQuerySPARQLDoesNotRetryMalformedJSON(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`<html>definitely not sparql json</html>`))
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.QuerySPARQL(context.Background(), "SELECT ?person WHERE { }")
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeParsing, typed.Type)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "parsing failures are terminal, not retried")
}

func TestEntityLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wbgetentities", r.URL.Query().Get("action"))
		assert.Equal(t, "Q64|Q1055|Q99999", r.URL.Query().Get("ids"))
		assert.Equal(t, "de", r.URL.Query().Get("languages"))

		w.Write([]byte(`{
			"entities": {
				"Q64": {"labels": {"de": {"language": "de", "value": "Berlin"}}},
				"Q1055": {"labels": {"de": {"language": "de", "value": "Hamburg"}}},
				"Q99999": {"labels": {}}
			}
		}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	labels, err := client.EntityLabels(context.Background(), []string{"Q64", "Q1055", "Q99999"}, "de")
	require.NoError(t, err)

	assert.Equal(t, "Berlin", labels["Q64"])
	assert.Equal(t, "Hamburg", labels["Q1055"])
	_, found := labels["Q99999"]
	assert.False(t, found, "an entity without a label in the language is absent from the result")
}

func TestEntityLabelsEmptyInput(t *testing.T) {
	client := testClient(t, httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty ID list")
	})))

	labels, err := client.EntityLabels(context.Background(), nil, "de")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestEntityLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entities": {"Q64": {"labels": {"de": {"language": "de", "value": "Berlin"}}}}}`))
	}))
	defer server.Close()

	client := testClient(t, server)

	label, ok, err := client.EntityLabel(context.Background(), "Q64", "de")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Berlin", label)
}
