package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestHTTPProberCollectsMetadata(t *testing.T) {
	var seenUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			seenUA = r.UserAgent()
			w.Header().Set("Server", "Apache/2.4.49 (Ubuntu)")
			w.Header().Set("X-Powered-By", "PHP/7.4.3")
			fmt.Fprintln(w, "<html>home</html>")
		case "/robots.txt":
			fmt.Fprintln(w, "User-agent: *")
		case "/phpmyadmin":
			fmt.Fprintln(w, "<title>phpMyAdmin</title>")
		case "/admin":
			fmt.Fprintln(w, "<form>username password</form>")
		case "/server-status":
			w.WriteHeader(http.StatusForbidden)
		case "/mongo":
			fmt.Fprintln(w, "nothing here")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	ip, port := hostPort(t, ts.URL)
	info, err := NewHTTPProber(2*time.Second, "PathFinder/1.0").Probe(context.Background(), ip, port, false)
	require.NoError(t, err)

	assert.Equal(t, "PathFinder/1.0", seenUA)
	assert.Equal(t, http.StatusOK, info.StatusCode)
	assert.Equal(t, "Apache/2.4.49 (Ubuntu)", info.Server)
	assert.Equal(t, "PHP/7.4.3", info.PoweredBy)
	assert.True(t, info.RobotsTxt)

	base := BuildBaseURL(ip, port, false)
	assert.Equal(t, []string{
		"phpMyAdmin: " + base + "/phpmyadmin",
		"Admin Panel: " + base + "/admin",
		"Protected: " + base + "/server-status (HTTP 403)",
	}, info.AdminPanels)
}

func TestHTTPProberErrorStatusIsStillInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ip, port := hostPort(t, ts.URL)
	info, err := NewHTTPProber(time.Second, "").Probe(context.Background(), ip, port, false)
	require.NoError(t, err)
	assert.Equal(t, 500, info.StatusCode)
	assert.Equal(t, "nginx", info.Server)
	assert.False(t, info.RobotsTxt)
	assert.Empty(t, info.AdminPanels)
}

func TestHTTPProberUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = NewHTTPProber(500*time.Millisecond, "").Probe(context.Background(), "127.0.0.1", port, false)
	assert.Error(t, err)
}

func TestClassifyAdminPage(t *testing.T) {
	target := "http://10.0.0.1/x"
	tests := []struct {
		path, body, want string
	}{
		{"/phpmyadmin", "welcome to phpmyadmin", "phpMyAdmin: " + target},
		{"/phpmyadmin", "it works", ""},
		{"/adminer.php", "login", "Adminer: " + target},
		{"/pgadmin4", "postgresql tools", "pgAdmin: " + target},
		{"/mongo-express", "mongodb", "Mongo-Express: " + target},
		{"/wp-admin", "username", "Admin Panel: " + target},
		{"/wp-admin", "blog", ""},
		{"/kibana", "anything", "Interface: " + target},
		{"/pma", "", "Interface: " + target},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyAdminPage(tt.path, target, tt.body), tt.path)
	}
}

func TestBuildBaseURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.1", BuildBaseURL("10.0.0.1", 80, false))
	assert.Equal(t, "https://10.0.0.1", BuildBaseURL("10.0.0.1", 443, true))
	assert.Equal(t, "https://10.0.0.1:8443", BuildBaseURL("10.0.0.1", 8443, true))
	assert.Equal(t, "http://10.0.0.1:443", BuildBaseURL("10.0.0.1", 443, false))
}

func TestTLSProberReadsCertificate(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	ip, port := hostPort(t, ts.URL)
	info, err := NewTLSProber(2*time.Second).Probe(context.Background(), ip, port)
	require.NoError(t, err)

	leaf := ts.Certificate()
	assert.Equal(t, leaf.NotAfter.UTC(), info.ValidUntil)
	assert.True(t, info.Valid)
	assert.Greater(t, info.ExpiresInDays, 0)
}

func TestCertExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	expired := CertExpiry(now.Add(-36*time.Hour), now, "", "")
	assert.Equal(t, -2, expired.ExpiresInDays)
	assert.False(t, expired.Valid)
	assert.True(t, expired.Expired())

	soon := CertExpiry(now.Add(10*24*time.Hour+time.Hour), now, "host", "ca")
	assert.Equal(t, 10, soon.ExpiresInDays)
	assert.True(t, soon.Valid)

	today := CertExpiry(now.Add(time.Hour), now, "", "")
	assert.Equal(t, 0, today.ExpiresInDays)
	assert.True(t, today.Valid)
}
