package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch config.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", config.SQLitePath)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dbType: config.Type}

	// Only create tables for SQLite
	if config.Type == "sqlite" {
		// Camera loops write concurrently; a single pooled connection
		// serializes writes and avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
		if err := db.createTables(); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		camera_name TEXT NOT NULL,
		room TEXT NOT NULL,
		activity TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		category TEXT,
		category_confidence REAL,
		person_name TEXT,
		person_detected INTEGER NOT NULL DEFAULT 0,
		detection_confidence REAL NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		skip_reason TEXT,
		tokens_used INTEGER,
		cost REAL,
		duration_minutes INTEGER,
		image_path TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_activities_camera ON activities(camera_name);
	CREATE INDEX IF NOT EXISTS idx_activities_room ON activities(room);
	CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category);

	CREATE TABLE IF NOT EXISTS cost_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		daily_cap REAL NOT NULL,
		notification_threshold REAL NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_streaks (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_activity_date DATETIME,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := db.conn.Exec(query)
	return err
}

// rebind rewrites ? placeholders to $1..$n for postgres. SQLite queries
// pass through untouched.
func (db *DB) rebind(query string) string {
	if db.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) RunMigrations(migrationsPath string) error {
	migrator := NewMigrator(db.conn, db.dbType)
	return migrator.Run(migrationsPath)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
