package logger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// LogType 日志类型
type LogType string

const (
	// SystemLog 组件启动、配置加载、存储等
	SystemLog LogType = "system"
	// ScanLog 扫描阶段进度
	ScanLog LogType = "scan"
	// SecurityLog 严重发现、弱口令命中
	SecurityLog LogType = "security"
)

// LogLevel 日志级别，调用方无需直接依赖 logrus
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

func mergeFields(fields logrus.Fields, extra map[string]interface{}) logrus.Fields {
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// LogSystemEvent 记录系统事件
func LogSystemEvent(component, event, message string, level LogLevel, extraFields map[string]interface{}) {
	l := std()
	if l == nil {
		return
	}
	fields := mergeFields(logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
	}, extraFields)

	l.WithFields(fields).Log(toLogrusLevel(level), fmt.Sprintf("System event: %s - %s: %s", component, event, message))
}

// LogScanOperation 记录扫描阶段日志
// status: running / completed / failed
func LogScanOperation(scanID, scanType, target, status string, progress int, result string, duration time.Duration, extraFields map[string]interface{}) {
	l := std()
	if l == nil {
		return
	}
	fields := mergeFields(logrus.Fields{
		"type":      ScanLog,
		"scan_id":   scanID,
		"scan_type": scanType,
		"target":    target,
		"status":    status,
		"progress":  progress,
		"result":    result,
		"duration":  duration.Milliseconds(),
	}, extraFields)

	entry := l.WithFields(fields)
	switch status {
	case "completed":
		entry.Infof("Scan completed: %s on %s", scanType, target)
	case "failed":
		entry.Errorf("Scan failed: %s on %s", scanType, target)
	case "running":
		entry.Debugf("Scan running: %s on %s (%d%%)", scanType, target, progress)
	default:
		entry.Infof("Scan %s: %s on %s", status, scanType, target)
	}
}

// LogSecurityEvent 记录安全事件
// severity 使用 critical/high/medium/low
func LogSecurityEvent(eventType, severity, source, target, result string, extraFields map[string]interface{}) {
	l := std()
	if l == nil {
		return
	}
	fields := mergeFields(logrus.Fields{
		"type":       SecurityLog,
		"event_type": eventType,
		"severity":   severity,
		"source":     source,
		"target":     target,
		"result":     result,
	}, extraFields)

	entry := l.WithFields(fields)
	switch severity {
	case "critical", "high":
		entry.Warnf("Security event [%s]: %s on %s - %s", severity, eventType, target, result)
	default:
		entry.Infof("Security event [%s]: %s on %s - %s", severity, eventType, target, result)
	}
}
