package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/micro-nova/nowplaying/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.IncPolls()
	m.IncAdapterError("list")
	m.IncCommand("next", true)
	m.IncArtFetch(metrics.ArtLoaded)
	m.SetPlayers(3)
	m.SetBound(true)
	m.SetSSE(1, 2)

	h := metrics.RequestMiddleware(nil)(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := metrics.New()
	m.IncPolls()
	m.IncPolls()
	m.IncCommand("play_pause", true)
	m.IncCommand("play_pause", false)
	m.IncArtFetch(metrics.ArtDiscarded)

	body := scrape(t, m)
	for _, want := range []string{
		"nowplaying_polls_total 2",
		`nowplaying_commands_total{command="play_pause",result="ok"} 1`,
		`nowplaying_commands_total{command="play_pause",result="error"} 1`,
		`nowplaying_art_fetches_total{result="discarded"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestHandlerServesAndRefreshes(t *testing.T) {
	m := metrics.New()
	called := false
	srv := httptest.NewServer(m.Handler(func() {
		called = true
		m.SetPlayers(4)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !called {
		t.Error("updateGauges not called before scrape")
	}
	if !strings.Contains(string(body), "nowplaying_players 4") {
		t.Errorf("scrape missing players gauge:\n%s", body)
	}
}

func TestRequestMiddlewareClasses(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	})
	h := metrics.RequestMiddleware(m)(mux)

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	body := scrape(t, m)
	if !strings.Contains(body, `nowplaying_http_requests_total{class="2xx"} 2`) {
		t.Error("expected two 2xx requests")
	}
	if !strings.Contains(body, `nowplaying_http_requests_total{class="4xx"} 1`) {
		t.Error("expected one 4xx request")
	}
}
