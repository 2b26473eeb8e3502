package dirscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/config"
	"pathfinder/internal/core/model"
)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/.env":
			_, _ = w.Write([]byte("DB_PASSWORD=secret"))
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *"))
		case "/admin":
			http.Redirect(w, r, "/admin/login", http.StatusMovedPermanently)
		case "/private":
			w.WriteHeader(http.StatusForbidden)
		case "/.htpasswd":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScanClassifiesResponses(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)

	s := NewScanner(config.DirConfig{Workers: 4, Timeout: time.Second}, "")
	words := []string{"admin", ".env", "robots.txt", "private", ".htpasswd", "missing"}
	report, err := s.Scan(context.Background(), srv.URL+"/", words)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, report.BaseURL)
	assert.Equal(t, len(words), report.Total)
	assert.Equal(t, int32(len(words)), atomic.LoadInt32(&hits))

	require.Len(t, report.Sensitive, 1)
	assert.Equal(t, ".env", report.Sensitive[0].Path)
	assert.Equal(t, model.SeverityCritical, report.Sensitive[0].Risk)

	require.Len(t, report.Found, 2)
	assert.Equal(t, "admin", report.Found[0].Path)
	assert.Equal(t, http.StatusMovedPermanently, report.Found[0].Status)
	assert.Equal(t, "/admin/login", report.Found[0].Redirect)
	assert.Equal(t, "robots.txt", report.Found[1].Path)

	require.Len(t, report.Protected, 2)
	assert.Equal(t, ".htpasswd", report.Protected[0].Path)
	assert.Equal(t, "private", report.Protected[1].Path)

	assert.Equal(t, 2, report.Stats[200])
	assert.Equal(t, 1, report.Stats[301])
	assert.Equal(t, 1, report.Stats[401])
	assert.Equal(t, 1, report.Stats[403])
	assert.Equal(t, 1, report.Stats[404])
}

func TestProbeUsesLevelWordlist(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	s := NewScanner(config.DirConfig{Workers: 8, Timeout: time.Second}, "PathFinder/1.0")
	report, err := s.Probe(context.Background(), u.Hostname(), port, false, LevelQuick)
	require.NoError(t, err)
	assert.Equal(t, len(QuickWordlist), report.Total)
	assert.Equal(t, int32(len(QuickWordlist)), atomic.LoadInt32(&hits))

	report, err = s.Probe(context.Background(), u.Hostname(), port, false, "huge")
	require.NoError(t, err)
	assert.Equal(t, len(QuickWordlist), report.Total)
}

func TestWordlistRejectsUnknownLevel(t *testing.T) {
	_, err := Wordlist("huge")
	assert.Error(t, err)
}

func TestWordlistLevels(t *testing.T) {
	quick, err := Wordlist("")
	require.NoError(t, err)
	medium, err := Wordlist("MEDIUM")
	require.NoError(t, err)

	assert.Greater(t, len(medium), len(quick))
	assert.Equal(t, quick, medium[:len(quick)])
	for path := range SensitiveFiles {
		assert.Contains(t, quick, path)
	}
}

func TestScanHonoursRateLimit(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)

	s := NewScanner(config.DirConfig{Workers: 1, Timeout: time.Second, RatePerSecond: 20}, "")
	start := time.Now()
	_, err := s.Scan(context.Background(), srv.URL, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	// burst 为 worker 数 (1)，之后每 50ms 一个请求
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}
