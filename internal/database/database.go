package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"querystack/internal/models"
)

// Config selects the driver and sizing of the connection pool.
type Config struct {
	Driver       string // "postgres" or "sqlite"
	DSN          string
	MaxOpenConns int
	LogLevel     gormlogger.LogLevel
}

// Pool is the process-wide connection pool. It connects and migrates on
// first use and is safe for concurrent callers; a failed connect is retried
// on the next call.
type Pool struct {
	cfg    Config
	logger *zap.Logger

	mu sync.Mutex
	db *gorm.DB
}

func New(cfg Config, logger *zap.Logger) *Pool {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = gormlogger.Warn
	}
	return &Pool{cfg: cfg, logger: logger}
}

// DB returns the shared handle, opening it if needed.
func (p *Pool) DB(ctx context.Context) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db.WithContext(ctx), nil
	}

	db, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.db = db
	return db.WithContext(ctx), nil
}

// Ping verifies the pool can reach the database.
func (p *Pool) Ping(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases every connection. The pool may be reopened afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	p.logger.Info("closing database connection pool")
	sqlDB, err := p.db.DB()
	p.db = nil
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}

func (p *Pool) open(ctx context.Context) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch p.cfg.Driver {
	case "postgres":
		dialector = postgres.Open(p.cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(p.cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver %q", p.cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(p.logger), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  p.cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if p.cfg.Driver == "sqlite" {
		// A single connection serializes writers and keeps in-memory
		// databases alive for the lifetime of the pool.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		maxOpen := p.cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 25
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen / 5)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(20 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", p.cfg.Driver, err)
	}

	if err := Migrate(db.WithContext(ctx)); err != nil {
		sqlDB.Close()
		return nil, err
	}

	p.logger.Info("database connection established",
		zap.String("driver", p.cfg.Driver),
		zap.Int("max_open_conns", sqlDB.Stats().MaxOpenConnections),
	)
	return db, nil
}

// Migrate creates or updates every table and index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
