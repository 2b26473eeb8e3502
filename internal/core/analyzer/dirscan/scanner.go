package dirscan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pathfinder/internal/config"
	"pathfinder/internal/core/model"
	"pathfinder/internal/core/scanner/web"
	"pathfinder/internal/pkg/logger"
	"pathfinder/internal/pkg/version"
)

const (
	DefaultWorkers = 10
	DefaultTimeout = 2 * time.Second
)

// Scanner 字典式目录探测，不跟随重定向
type Scanner struct {
	client    *http.Client
	workers   int
	limiter   *rate.Limiter
	userAgent string
}

// NewScanner 按配置创建探测器，RatePerSecond 为 0 时不限速
func NewScanner(cfg config.DirConfig, userAgent string) *Scanner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if userAgent == "" {
		userAgent = version.GetUserAgent()
	}
	return &Scanner{
		client:    web.NewInsecureClient(timeout, false),
		workers:   workers,
		limiter:   rate.NewLimiter(limit, workers),
		userAgent: userAgent,
	}
}

// Probe 对 ip:port 执行指定级别的目录探测，未知级别按 quick 处理
func (s *Scanner) Probe(ctx context.Context, ip string, port int, useTLS bool, level string) (*model.DirReport, error) {
	words, err := Wordlist(level)
	if err != nil {
		logger.Warnf("[dirscan] %v, falling back to %s", err, LevelQuick)
		words = QuickWordlist
	}
	return s.Scan(ctx, web.BuildBaseURL(ip, port, useTLS), words)
}

type probeResult struct {
	path     string
	status   int
	size     int64
	location string
}

// Scan 并发请求 baseURL 下的每个路径，结果按路径排序
func (s *Scanner) Scan(ctx context.Context, baseURL string, words []string) (*model.DirReport, error) {
	start := time.Now()
	baseURL = strings.TrimRight(baseURL, "/")
	report := &model.DirReport{
		BaseURL:   baseURL,
		Found:     []model.DirHit{},
		Protected: []model.DirHit{},
		Sensitive: []model.DirHit{},
		Stats:     map[int]int{},
		Total:     len(words),
	}

	jobs := make(chan string)
	results := make(chan probeResult)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := s.limiter.Wait(ctx); err != nil {
					continue
				}
				results <- s.check(ctx, baseURL, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, w := range words {
			select {
			case jobs <- w:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.status == 0 {
			continue
		}
		report.Stats[r.status]++
		classify(report, baseURL, r)
	}

	for _, hits := range [][]model.DirHit{report.Found, report.Protected, report.Sensitive} {
		sort.Slice(hits, func(i, j int) bool { return hits[i].Path < hits[j].Path })
	}

	logger.LogScanOperation("", "dirscan", baseURL, "completed", 100,
		fmt.Sprintf("%d found, %d sensitive, %d protected", len(report.Found), len(report.Sensitive), len(report.Protected)),
		time.Since(start), nil)

	return report, ctx.Err()
}

func (s *Scanner) check(ctx context.Context, baseURL, path string) probeResult {
	res := probeResult{path: path}
	url := baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	res.status = resp.StatusCode
	res.size = resp.ContentLength
	if res.size < 0 {
		res.size = 0
	}
	res.location = resp.Header.Get("Location")
	return res
}

// classify 200 -> found/sensitive，301/302 -> found，401/403 -> protected
func classify(report *model.DirReport, baseURL string, r probeResult) {
	hit := model.DirHit{
		Path:   r.path,
		URL:    baseURL + "/" + strings.TrimLeft(r.path, "/"),
		Status: r.status,
		Size:   r.size,
	}

	switch r.status {
	case http.StatusOK:
		if s, ok := SensitiveFiles[r.path]; ok {
			hit.Risk = s.Risk
			hit.Desc = s.Desc
			report.Sensitive = append(report.Sensitive, hit)
			logger.LogSecurityEvent("sensitive_file", strings.ToLower(s.Risk.String()), "dirscan", hit.URL, "exposed", nil)
			return
		}
		report.Found = append(report.Found, hit)
	case http.StatusMovedPermanently, http.StatusFound:
		hit.Redirect = r.location
		report.Found = append(report.Found, hit)
	case http.StatusUnauthorized, http.StatusForbidden:
		hit.Desc = "Protected - exists but requires authentication"
		report.Protected = append(report.Protected, hit)
	}
}
