package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 全局数据库连接，联系表单的提交记录写在这里
var DB *gorm.DB

// Config 数据库配置
type Config struct {
	Type         string        // 数据库类型，目前只支持 sqlite
	DSN          string        // 数据源名称，":memory:" 表示内存库
	MaxOpenConns int           // 最大打开连接数
	MaxIdleConns int           // 最大空闲连接数
	MaxLifetime  time.Duration // 连接最大生命周期
	BusyTimeout  time.Duration // 写锁等待时间，请求和邮件worker会并发写入
}

// DefaultConfig 返回默认数据库配置
func DefaultConfig() *Config {
	return &Config{
		Type:         "sqlite",
		DSN:          "data/site.db",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		MaxLifetime:  time.Hour,
		BusyTimeout:  5 * time.Second,
	}
}

// Setup 打开数据库并设置为全局连接
func Setup(cfg *Config, log *logrus.Logger) error {
	db, err := Open(cfg, log)
	if err != nil {
		return err
	}
	DB = db
	log.WithField("dsn", cfg.DSN).Info("Database connection established successfully")
	return nil
}

// Open 打开数据库连接并完成迁移，不修改全局连接
func Open(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	inMemory := strings.Contains(cfg.DSN, ":memory:")
	if !inMemory {
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: logger.New(&logrusWriter{log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// 内存库每个连接都是独立的数据库，只能用一个连接
	if inMemory {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
		}
		for _, p := range pragmas {
			if err := db.Exec(p).Error; err != nil {
				return nil, fmt.Errorf("failed to apply %q: %w", p, err)
			}
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	return db, nil
}

// MustDB 返回全局数据库连接，未初始化时panic
func MustDB() *gorm.DB {
	if DB == nil {
		panic("database not initialized, call database.Setup first")
	}
	return DB
}

// Ping 检查全局连接是否可用，供健康检查使用
func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// AutoMigrate 自动迁移数据库模型
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ContactSubmission{})
}

// logrusWriter 将GORM日志转发到logrus
// GORM 只在慢查询和错误时输出，统一按 warn 级别记录
type logrusWriter struct {
	logger *logrus.Logger
}

func (w *logrusWriter) Printf(format string, args ...interface{}) {
	w.logger.Warnf(format, args...)
}
