package web

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/model"
	"pathfinder/internal/pkg/version"
)

const (
	DefaultHTTPTimeout = 3 * time.Second
	maxBodyBytes       = 64 * 1024
	adminWorkers       = 5
)

// AdminPaths 常见数据库管理与后台入口
var AdminPaths = []string{
	"/phpmyadmin", "/phpMyAdmin", "/pma", "/mysql", "/myadmin", "/dbadmin",
	"/phpmyadmin/index.php", "/pma/index.php",
	"/adminer.php", "/adminer", "/db", "/database",
	"/pgadmin", "/pgadmin4", "/pgsql",
	"/mongo-express", "/mongodb", "/mongo",
	"/phpredisadmin", "/redis",
	"/admin", "/administrator", "/cpanel", "/webadmin", "/admin.php",
	"/admin/login", "/admin/index.php", "/wp-admin", "/wp-login.php",
	"/kibana", "/_plugin/kibana",
	"/manager", "/status", "/server-status",
}

// HTTPProber HTTP(S) 元数据探测：状态码、Server/X-Powered-By、robots.txt 与管理后台
type HTTPProber struct {
	client     *http.Client
	userAgent  string
	adminPaths []string
}

// NewHTTPProber 创建探测器，证书校验关闭
func NewHTTPProber(timeout time.Duration, userAgent string) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	if userAgent == "" {
		userAgent = version.GetUserAgent()
	}
	return &HTTPProber{
		client:     NewInsecureClient(timeout, true),
		userAgent:  userAgent,
		adminPaths: AdminPaths,
	}
}

// NewInsecureClient 创建跳过证书校验、经由全局拨号器的 HTTP 客户端
func NewInsecureClient(timeout time.Duration, followRedirects bool) *http.Client {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		DialContext:         dialer.Get().DialContext,
		MaxIdleConnsPerHost: adminWorkers,
	}
	client := &http.Client{Timeout: timeout, Transport: transport}
	if !followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// BuildBaseURL 生成基础 URL，80/443 省略端口
func BuildBaseURL(ip string, port int, useTLS bool) string {
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	if (port == 80 && !useTLS) || (port == 443 && useTLS) {
		return fmt.Sprintf("%s://%s", scheme, ip)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, ip, port)
}

// Probe 请求根路径，任何 HTTP 响应（包括 4xx/5xx）都视为成功
func (p *HTTPProber) Probe(ctx context.Context, ip string, port int, useTLS bool) (*model.HTTPInfo, error) {
	base := BuildBaseURL(ip, port, useTLS)

	resp, err := p.get(ctx, base+"/")
	if err != nil {
		return nil, fmt.Errorf("http probe %s: %w", base, err)
	}
	resp.Body.Close()

	info := &model.HTTPInfo{
		URL:        base + "/",
		StatusCode: resp.StatusCode,
		Server:     resp.Header.Get("Server"),
		PoweredBy:  resp.Header.Get("X-Powered-By"),
	}

	if robots, err := p.get(ctx, base+"/robots.txt"); err == nil {
		info.RobotsTxt = robots.StatusCode == http.StatusOK
		robots.Body.Close()
	}

	info.AdminPanels = p.detectAdminPanels(ctx, base)
	return info, nil
}

func (p *HTTPProber) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	return p.client.Do(req)
}

// detectAdminPanels 并发请求后台路径，结果保持路径表顺序
func (p *HTTPProber) detectAdminPanels(ctx context.Context, base string) []string {
	hits := make([]string, len(p.adminPaths))
	sem := make(chan struct{}, adminWorkers)
	var wg sync.WaitGroup

	for i, path := range p.adminPaths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			hits[i] = p.checkAdminPath(ctx, base, path)
		}(i, path)
	}
	wg.Wait()

	var panels []string
	for _, h := range hits {
		if h != "" {
			panels = append(panels, h)
		}
	}
	return panels
}

func (p *HTTPProber) checkAdminPath(ctx context.Context, base, path string) string {
	url := base + path
	resp, err := p.get(ctx, url)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return ClassifyAdminPage(path, url, strings.ToLower(string(body)))
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("Protected: %s (HTTP %d)", url, resp.StatusCode)
	}
	return ""
}

// ClassifyAdminPage 根据路径与页面内容确认后台类型，body 需为小写
// 路径匹配某类后台但内容不符时返回空
func ClassifyAdminPage(path, url, body string) string {
	lp := strings.ToLower(path)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(body, w) {
				return true
			}
		}
		return false
	}

	switch {
	case strings.Contains(lp, "phpmyadmin"):
		if has("phpmyadmin", "pma_") {
			return "phpMyAdmin: " + url
		}
	case strings.Contains(lp, "adminer"):
		if has("adminer", "login") {
			return "Adminer: " + url
		}
	case strings.Contains(lp, "pgadmin"):
		if has("pgadmin", "postgresql") {
			return "pgAdmin: " + url
		}
	case strings.Contains(lp, "mongo"):
		if has("mongo") {
			return "Mongo-Express: " + url
		}
	case strings.Contains(lp, "admin"):
		if has("login", "password", "username") {
			return "Admin Panel: " + url
		}
	default:
		return "Interface: " + url
	}
	return ""
}
