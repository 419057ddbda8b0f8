package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type Migration struct {
	Version string
	Name    string
	SQL     string
}

// Migrator applies versioned .sql files to a postgres database. SQLite
// schemas are created inline by DB.createTables instead.
type Migrator struct {
	db     *sql.DB
	dbType string
}

func NewMigrator(db *sql.DB, dbType string) *Migrator {
	return &Migrator{
		db:     db,
		dbType: dbType,
	}
}

func (m *Migrator) Initialize() error {
	if m.dbType != "postgres" {
		return nil
	}

	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) GetAppliedMigrations() (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, nil
}

func (m *Migrator) LoadMigrations(migrationsPath string) ([]Migration, error) {
	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		// Filename format: 001_create_activities.sql
		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			zap.L().Warn("skipping invalid migration filename", zap.String("file", entry.Name()))
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsPath, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: parts[0],
			Name:    entry.Name(),
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func (m *Migrator) ApplyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.Name, err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version) VALUES ($1)",
		migration.Version,
	); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", migration.Name, err)
	}

	zap.L().Info("applied migration", zap.String("name", migration.Name))
	return nil
}

func (m *Migrator) Run(migrationsPath string) error {
	if m.dbType != "postgres" {
		return nil
	}

	if err := m.Initialize(); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}

	migrations, err := m.LoadMigrations(migrationsPath)
	if err != nil {
		return err
	}

	pending := 0
	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.ApplyMigration(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		pending++
	}

	zap.L().Info("migrations complete", zap.Int("applied", pending))
	return nil
}
