// 日志管理器
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"pathfinder/internal/config"
)

// TimestampFormat 日志时间戳格式（毫秒精度）
const TimestampFormat = "2006-01-02 15:04:05.000"

// LoggerManager 日志管理器
// 扫描 worker 并发写日志的同时，配置热加载可能修改级别与输出
type LoggerManager struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	config config.LogConfig
}

// LoggerInstance 全局日志实例，未初始化时所有包级函数静默
var LoggerInstance *LoggerManager

// InitLogger 按配置创建 logrus 实例并设为全局日志
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}

	l := logrus.New()
	l.SetLevel(parseLevel(l, cfg.Level))

	formatter, err := newFormatter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set log formatter: %w", err)
	}
	l.SetFormatter(formatter)

	out, err := newWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set log output: %w", err)
	}
	l.SetOutput(out)
	l.SetReportCaller(cfg.Caller)

	lm := &LoggerManager{logger: l, config: *cfg}
	LoggerInstance = lm
	return lm, nil
}

// parseLevel 非法级别退回 info
// CLI 的 "fatal" 用于屏蔽扫描过程日志
func parseLevel(l *logrus.Logger, s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		l.Warnf("Invalid log level '%s', using 'info' as default", s)
		return logrus.InfoLevel
	}
	return level
}

func newFormatter(cfg *config.LogConfig) (logrus.Formatter, error) {
	switch strings.ToLower(cfg.Format) {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat: TimestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		}, nil
	case "text", "":
		return &logrus.TextFormatter{
			TimestampFormat: TimestampFormat,
			FullTimestamp:   true,
			ForceColors:     strings.ToLower(cfg.Output) != "file",
			DisableColors:   strings.ToLower(cfg.Output) == "file",
		}, nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
}

// newWriter 文件输出按 lumberjack 轮转，debug 级别同时写控制台
func newWriter(cfg *config.LogConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file path is required when output is file")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if strings.EqualFold(cfg.Level, "debug") {
			return io.MultiWriter(os.Stdout, rotator), nil
		}
		return rotator, nil
	}
	return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
}

// GetLogger 获取 logrus 实例
func (lm *LoggerManager) GetLogger() *logrus.Logger {
	return lm.logger
}

// GetConfig 当前配置的副本
func (lm *LoggerManager) GetConfig() *config.LogConfig {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	cfg := lm.config
	return &cfg
}

// UpdateConfig 运行时更新日志配置，只重建发生变化的部分
// 任一步失败时保留旧配置
func (lm *LoggerManager) UpdateConfig(newCfg *config.LogConfig) error {
	if newCfg == nil {
		return fmt.Errorf("new config cannot be nil")
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	old := lm.config

	var level logrus.Level
	if newCfg.Level != old.Level {
		var err error
		if level, err = logrus.ParseLevel(newCfg.Level); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}

	var formatter logrus.Formatter
	if newCfg.Format != old.Format || newCfg.Output != old.Output {
		var err error
		if formatter, err = newFormatter(newCfg); err != nil {
			return fmt.Errorf("failed to update log formatter: %w", err)
		}
	}

	var out io.Writer
	if newCfg.Output != old.Output || newCfg.FilePath != old.FilePath {
		var err error
		if out, err = newWriter(newCfg); err != nil {
			return fmt.Errorf("failed to update log output: %w", err)
		}
	}

	if newCfg.Level != old.Level {
		lm.logger.SetLevel(level)
		lm.logger.Infof("Log level updated from %s to %s", old.Level, newCfg.Level)
	}
	if formatter != nil {
		lm.logger.SetFormatter(formatter)
	}
	if out != nil {
		lm.logger.SetOutput(out)
	}
	lm.logger.SetReportCaller(newCfg.Caller)

	lm.config = *newCfg
	return nil
}

func std() *logrus.Logger {
	if LoggerInstance == nil {
		return nil
	}
	return LoggerInstance.logger
}

// Debugf 调试日志
func Debugf(format string, args ...interface{}) {
	if l := std(); l != nil {
		l.Debugf(format, args...)
	}
}

// Infof 信息日志
func Infof(format string, args ...interface{}) {
	if l := std(); l != nil {
		l.Infof(format, args...)
	}
}

// Warnf 警告日志
func Warnf(format string, args ...interface{}) {
	if l := std(); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf 错误日志
func Errorf(format string, args ...interface{}) {
	if l := std(); l != nil {
		l.Errorf(format, args...)
	}
}

// WithFields 带字段的日志条目，未初始化时落到 logrus 标准实例
func WithFields(fields logrus.Fields) *logrus.Entry {
	if l := std(); l != nil {
		return l.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithFields(fields)
}
