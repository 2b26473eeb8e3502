package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pathfinder/internal/config"
	"pathfinder/internal/core/model"
	"pathfinder/internal/pkg/logger"
	"pathfinder/internal/pkg/utils"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	DefaultSQLitePath = "pathfinder_history.db"
	DefaultListLimit  = 10

	// 与 ScanRecord.TargetRange 的列宽一致
	maxTargetRangeLen = 2048
)

// ErrNotFound 指定的快照不存在
var ErrNotFound = errors.New("scan not found")

// PersistenceError 历史存储读写失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store 扫描快照存储，只追加
type Store interface {
	// Save 保存快照并返回分配的 ID
	Save(ctx context.Context, snap *model.ScanSnapshot) (uint64, error)
	// LoadLatest 最近一次快照，为空时返回 nil, nil
	LoadLatest(ctx context.Context) (*model.ScanSnapshot, error)
	// Get 按 ID 读取快照
	Get(ctx context.Context, id uint64) (*model.ScanSnapshot, error)
	// List 最近的快照摘要，新的在前
	List(ctx context.Context, limit int) ([]ScanSummary, error)
	Close() error
}

type gormStore struct {
	db *gorm.DB
}

// Open 按配置打开存储并自动建表
func Open(cfg config.HistoryConfig) (Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		if err := ensureDir(dsn); err != nil {
			return nil, &PersistenceError{Op: "open", Err: err}
		}
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		if cfg.DSN == "" {
			return nil, &PersistenceError{Op: "open", Err: errors.New("mysql dsn is required")}
		}
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, &PersistenceError{Op: "open", Err: fmt.Errorf("unsupported driver %q", cfg.Driver)}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	logger.LogSystemEvent("history", "open", "history store opened", logger.DebugLevel,
		map[string]interface{}{"driver": strings.ToLower(cfg.Driver)})
	return NewStore(db)
}

// ensureDir 为 sqlite 数据库文件创建所在目录，内存库与 file: URI 跳过
func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// NewStore 基于已有连接创建存储
func NewStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&ScanRecord{}, &HostSnapshot{}); err != nil {
		return nil, &PersistenceError{Op: "migrate", Err: err}
	}
	return &gormStore{db: db}, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

// Save 在一个事务内写入快照与主机摘要
func (s *gormStore) Save(ctx context.Context, snap *model.ScanSnapshot) (uint64, error) {
	if snap == nil {
		return 0, &PersistenceError{Op: "save", Err: errors.New("nil snapshot")}
	}

	payload := *snap
	payload.ID = 0
	raw, err := json.Marshal(&payload)
	if err != nil {
		return 0, &PersistenceError{Op: "save", Err: fmt.Errorf("encode snapshot: %w", err)}
	}

	rec := &ScanRecord{
		ScanTime:      snap.Timestamp,
		TargetRange:   utils.Truncate(snap.TargetRange, maxTargetRangeLen),
		TotalHosts:    snap.Statistics.TotalHosts,
		AliveHosts:    snap.Statistics.AliveHosts,
		OpenPorts:     snap.Statistics.TotalOpenPorts,
		CriticalHosts: snap.Statistics.CriticalHosts,
		HighRiskHosts: snap.Statistics.HighRiskHosts,
		Snapshot:      datatypes.JSON(raw),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := uniqueName(tx, snap)
		if err != nil {
			return err
		}
		rec.Name = name

		if err := tx.Create(rec).Error; err != nil {
			return err
		}

		rows := make([]HostSnapshot, 0, len(snap.Hosts))
		for _, h := range snap.Hosts {
			ports, err := json.Marshal(h.OpenPorts)
			if err != nil {
				return err
			}
			rows = append(rows, HostSnapshot{
				ScanID:        rec.ID,
				IP:            h.IP,
				Alive:         h.Alive,
				Hostname:      h.Hostname,
				OSGuess:       h.OSGuess,
				RiskLevel:     h.RiskLevel.String(),
				PriorityScore: h.PriorityScore,
				OpenPorts:     datatypes.JSON(ports),
				CriticalCount: len(h.SecurityRisks.Critical),
			})
		}
		if len(rows) > 0 {
			return tx.CreateInBatches(rows, 100).Error
		}
		return nil
	})
	if err != nil {
		return 0, &PersistenceError{Op: "save", Err: err}
	}

	snap.ID = rec.ID
	logger.Debugf("[history] saved %s (id=%d, hosts=%d)", rec.Name, rec.ID, len(snap.Hosts))
	return rec.ID, nil
}

// uniqueName 同一秒内多次保存时追加序号
func uniqueName(tx *gorm.DB, snap *model.ScanSnapshot) (string, error) {
	base := "scan_" + snap.Timestamp.Format("20060102_150405")
	var n int64
	if err := tx.Model(&ScanRecord{}).Where("name LIKE ?", base+"%").Count(&n).Error; err != nil {
		return "", err
	}
	if n == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s_%d", base, n+1), nil
}

func (s *gormStore) LoadLatest(ctx context.Context) (*model.ScanSnapshot, error) {
	var rec ScanRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(1).Find(&rec).Error
	if err != nil {
		return nil, &PersistenceError{Op: "load latest", Err: err}
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return decode(&rec, "load latest")
}

func (s *gormStore) Get(ctx context.Context, id uint64) (*model.ScanSnapshot, error) {
	var rec ScanRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &PersistenceError{Op: "get", Err: fmt.Errorf("%w: id %d", ErrNotFound, id)}
		}
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return decode(&rec, "get")
}

func (s *gormStore) List(ctx context.Context, limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var recs []ScanRecord
	err := s.db.WithContext(ctx).
		Omit("snapshot").
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}

	out := make([]ScanSummary, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].summary())
	}
	return out, nil
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &PersistenceError{Op: "close", Err: err}
	}
	return sqlDB.Close()
}

func decode(rec *ScanRecord, op string) (*model.ScanSnapshot, error) {
	var snap model.ScanSnapshot
	if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
		return nil, &PersistenceError{Op: op, Err: fmt.Errorf("decode snapshot %d: %w", rec.ID, err)}
	}
	snap.ID = rec.ID
	if snap.Hosts == nil {
		snap.Hosts = []model.HostRecord{}
	}
	return &snap, nil
}
