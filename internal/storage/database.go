package storage

import (
	"database/sql"
	"fmt"

	"pdf2slides/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured SQL database used for job records.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[config.NormalizeDriver(dbType)]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch config.NormalizeDriver(dbType) {
	case "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// a single connection keeps :memory: databases coherent
		db.SetMaxOpenConns(1)
	case "mysql":
		dsn := dbCfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
				dbCfg.Username,
				dbCfg.Password,
				dbCfg.Host,
				dbCfg.Port,
				dbCfg.DBName,
			)
			if dbCfg.Params != "" {
				dsn += "?" + dbCfg.Params
			}
		}
		// job timestamps are scanned into time.Time
		mc, perr := mysql.ParseDSN(dsn)
		if perr != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", perr)
		}
		mc.ParseTime = true
		db, err = sql.Open("mysql", mc.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}


// Migrate ensures the jobs table is present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch config.NormalizeDriver(driver) {
	case "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS jobs (
				id TEXT PRIMARY KEY,
				file_name TEXT NOT NULL,
				page_count INTEGER NOT NULL DEFAULT 0,
				extracted_text TEXT NOT NULL,
				slides TEXT NOT NULL,
				structuring_error TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_jobs_expiry ON jobs(expires_at)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS jobs (
				id VARCHAR(64) NOT NULL,
				file_name VARCHAR(255) NOT NULL,
				page_count INT NOT NULL DEFAULT 0,
				extracted_text MEDIUMTEXT NOT NULL,
				slides MEDIUMTEXT NOT NULL,
				structuring_error TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_jobs_expiry (expires_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
