package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Handle holds whichever connection the database URL selected.
// Exactly one of Pool and Gorm is set.
type Handle struct {
	Dialect Dialect
	Pool    *pgxpool.Pool
	Gorm    *gorm.DB
}

// ParseURL picks the dialect from the URL scheme and returns the DSN to open.
func ParseURL(url string) (Dialect, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite url needs a file path")
		}
		return DialectSQLite, "file:" + path, nil
	case strings.HasPrefix(url, "file:"):
		return DialectSQLite, url, nil
	}
	return "", "", fmt.Errorf("unsupported database url scheme in %q", url)
}

func Open(ctx context.Context, url string) (*Handle, error) {
	dialect, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	switch dialect {
	case DialectPostgres:
		pool, err := Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &Handle{Dialect: dialect, Pool: pool}, nil
	default:
		gdb, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return &Handle{Dialect: dialect, Gorm: gdb}, nil
	}
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// OpenSQLite opens dsn through the pure-Go modernc driver with foreign keys
// on and a busy timeout so concurrent writers wait instead of failing.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        sqliteDSN(dsn),
	}, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
}

// sqliteDSN appends the connection pragmas. Transactions begin IMMEDIATE so
// a read-then-write transaction holds the write lock from its first statement.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func (h *Handle) Ping(ctx context.Context) error {
	if h.Pool != nil {
		return h.Pool.Ping(ctx)
	}
	sqlDB, err := h.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *Handle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
		return
	}
	if h.Gorm != nil {
		if sqlDB, err := h.Gorm.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
