package brute

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pathfinder/internal/config"
	"pathfinder/internal/core/lib/network/qos"
	"pathfinder/internal/core/model"
	"pathfinder/internal/pkg/logger"
)

const (
	DefaultMaxAttempts = 10
	DefaultDelay       = 500 * time.Millisecond
	DefaultTimeout     = 3 * time.Second

	// 连续连接失败达到该次数即放弃该服务
	maxConsecutiveConnFailures = 3
)

// QuickCheckServices QuickCheck 覆盖的端口与服务
var QuickCheckServices = map[int]string{
	21:   "ftp",
	22:   "ssh",
	23:   "telnet",
	3306: "mysql",
}

// Request 单个服务的弱口令检测请求
type Request struct {
	IP            string
	Port          int
	Service       string
	MaxAttempts   int
	Delay         time.Duration
	Users         []string
	Passwords     []string
	StopOnSuccess bool
}

// Scanner 弱口令检测器
// 单个服务内串行尝试并强制间隔，多个服务之间由全局限流器控制并发
type Scanner struct {
	mu          sync.RWMutex
	crackers    map[string]Cracker
	globalLimit *qos.AdaptiveLimiter
	maxAttempts int
	delay       time.Duration
	timeout     time.Duration
}

// NewScanner 按配置创建检测器，未注册任何协议
func NewScanner(cfg config.BruteConfig) *Scanner {
	s := &Scanner{
		crackers:    make(map[string]Cracker),
		maxAttempts: cfg.MaxAttempts,
		delay:       cfg.Delay,
		timeout:     cfg.Timeout,
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.delay <= 0 {
		s.delay = DefaultDelay
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 50
	}
	s.globalLimit = qos.NewAdaptiveLimiter(concurrency, 1, concurrency)
	return s
}

// RegisterCracker 注册协议适配器，同名覆盖
func (s *Scanner) RegisterCracker(c Cracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crackers[strings.ToLower(c.Name())] = c
}

// Services 已注册的协议名，按字母序
func (s *Scanner) Services() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.crackers))
	for n := range s.crackers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Scanner) cracker(service string) (Cracker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.crackers[strings.ToLower(service)]
	return c, ok
}

// Attempt 对单个服务执行受控的弱口令尝试
// 尝试次数上限为硬限制，相邻两次尝试之间至少间隔 Delay
func (s *Scanner) Attempt(ctx context.Context, req Request) (*model.BruteReport, error) {
	report := &model.BruteReport{
		Service:     strings.ToLower(req.Service),
		IP:          req.IP,
		Port:        req.Port,
		Credentials: []model.Credential{},
		Status:      model.BruteStatusCompleted,
	}

	cracker, ok := s.cracker(req.Service)
	if !ok {
		report.Status = model.BruteStatusUnsupported
		return report, nil
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.maxAttempts
	}
	delay := req.Delay
	if delay <= 0 {
		delay = s.delay
	}

	if err := s.globalLimit.Acquire(ctx); err != nil {
		report.Status = model.BruteStatusCancelled
		return report, err
	}
	defer s.globalLimit.Release()

	start := time.Now()
	pace := rate.NewLimiter(rate.Every(delay), 1)
	creds := Generate(report.Service, cracker.Mode(), req.Users, req.Passwords)
	connFailures := 0

	for _, auth := range creds {
		if report.Attempts >= maxAttempts {
			report.Status = model.BruteStatusMaxAttempts
			break
		}
		if err := pace.Wait(ctx); err != nil {
			report.Status = model.BruteStatusCancelled
			break
		}

		report.Attempts++
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		success, err := cracker.Check(checkCtx, req.IP, req.Port, auth)
		cancel()

		if errors.Is(err, ErrConnectionFailed) {
			connFailures++
			if connFailures >= maxConsecutiveConnFailures {
				report.Status = model.BruteStatusConnectionFailed
				break
			}
			continue
		}
		connFailures = 0

		if err != nil {
			logger.Debugf("[brute] %s %s:%d user=%q: %v", report.Service, req.IP, req.Port, auth.Username, err)
			continue
		}
		if !success {
			continue
		}

		report.Vulnerable = true
		report.Credentials = append(report.Credentials, model.Credential{
			Username: auth.Username,
			Password: auth.Password,
			Risk:     model.SeverityCritical,
		})
		logger.LogSecurityEvent("weak_credential", "critical", "brute",
			fmt.Sprintf("%s:%d", req.IP, req.Port), "success",
			map[string]interface{}{"service": report.Service, "username": auth.Username})

		if req.StopOnSuccess {
			break
		}
	}

	logger.LogScanOperation("", "brute", fmt.Sprintf("%s:%d", req.IP, req.Port), report.Status, 100,
		fmt.Sprintf("%d credentials", len(report.Credentials)), time.Since(start),
		map[string]interface{}{"service": report.Service, "attempts": report.Attempts})

	if report.Status == model.BruteStatusCancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// QuickCheck 对常见可爆破端口做少量尝试，只返回存在弱口令的结果
func (s *Scanner) QuickCheck(ctx context.Context, ip string, openPorts []int) []*model.BruteReport {
	var results []*model.BruteReport
	for _, port := range openPorts {
		service, ok := QuickCheckServices[port]
		if !ok {
			continue
		}
		report, err := s.Attempt(ctx, Request{
			IP:          ip,
			Port:        port,
			Service:     service,
			MaxAttempts: 5,
			Delay:       300 * time.Millisecond,
		})
		if err != nil {
			logger.Debugf("[brute] quick check %s:%d: %v", ip, port, err)
			continue
		}
		if report.Vulnerable {
			results = append(results, report)
		}
	}
	return results
}
