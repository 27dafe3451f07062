package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emanongen/wiki-project/pkg/config"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/ratelimit"
)

func testWikipediaClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client := NewClient(config.DefaultConfig(), logger.NewTestLogger())
	client.SetHTTPClient(server.Client())
	client.SetEndpoints(
		server.URL+"/%s/summary/%s",
		server.URL+"/%s/views/%s/%s/%s",
	)
	client.SetPacer(ratelimit.Noop())
	client.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return client
}

func TestPageStats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/de/summary/Johann_Sebastian_Bach", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Johann Sebastian Bach", "extract": "Deutscher Komponist des Barock."}`))
	})
	mux.HandleFunc("/de/views/Johann_Sebastian_Bach/20150701/20241231", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"views": 120}, {"views": 80}, {"views": 300}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testWikipediaClient(t, server)
	views, description := client.PageStats(context.Background(), "https://de.wikipedia.org/wiki/Johann_Sebastian_Bach")

	assert.Equal(t, int64(500), views)
	assert.Equal(t, "Deutscher Komponist des Barock.", description)
}

func TestPageStatsEnglishEdition(t *testing.T) {
	var summaryWiki string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/en/summary/Ada_Lovelace" {
			summaryWiki = "en"
			w.Write([]byte(`{"extract": "English mathematician."}`))
			return
		}
		w.Write([]byte(`{"items": [{"views": 42}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testWikipediaClient(t, server)
	views, description := client.PageStats(context.Background(), "https://en.wikipedia.org/wiki/Ada_Lovelace")

	assert.Equal(t, "en", summaryWiki)
	assert.Equal(t, int64(42), views)
	assert.Equal(t, "English mathematician.", description)
}

func TestPageStatsUnsupportedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for an unsupported URL, got %s", r.URL.Path)
	}))
	defer server.Close()

	client := testWikipediaClient(t, server)

	for _, url := range []string{"", "No", "https://fr.wikipedia.org/wiki/Paris"} {
		views, description := client.PageStats(context.Background(), url)
		assert.Zero(t, views)
		assert.Equal(t, NoDescription, description)
	}
}

func TestPageStatsDegradesOnFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"type": "not_found"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testWikipediaClient(t, server)
	views, description := client.PageStats(context.Background(), "https://de.wikipedia.org/wiki/Nicht_Da")

	// A page without a summary or pageview data keeps the defaults
	assert.Zero(t, views)
	assert.Equal(t, NoDescription, description)
}

func TestWikiCodeFor(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://de.wikipedia.org/wiki/Berlin", "de"},
		{"https://en.wikipedia.org/wiki/Berlin", "en"},
		{"https://fr.wikipedia.org/wiki/Berlin", ""},
		{"No", ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, wikiCodeFor(test.url), test.url)
	}
}

func TestArticleFor(t *testing.T) {
	assert.Equal(t, "Johann_Sebastian_Bach", articleFor("https://de.wikipedia.org/wiki/Johann_Sebastian_Bach"))
	assert.Equal(t, "plain", articleFor("plain"))
}
