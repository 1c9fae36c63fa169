package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_TYPE", "DB_HOST", "DB_PORT", "DB_DATABASE", "DB_USER",
		"DB_PASSWORD", "DB_CONNECTION_LIMIT", "DB_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

// TestLoadDefaults tests the defaults applied to an otherwise empty environment
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DATABASE", "bibliotheque")
	t.Setenv("DB_USER", "biblio")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBType != "mysql" {
		t.Errorf("Expected DBType mysql, got %s", cfg.DBType)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("Expected DBHost localhost, got %s", cfg.DBHost)
	}
	if cfg.DBPort != "3306" {
		t.Errorf("Expected DBPort 3306, got %s", cfg.DBPort)
	}
	if cfg.DBConnectionLimit != 5 {
		t.Errorf("Expected DBConnectionLimit 5, got %d", cfg.DBConnectionLimit)
	}
	if cfg.DBLogLevel != "warn" {
		t.Errorf("Expected DBLogLevel warn, got %s", cfg.DBLogLevel)
	}
}

// TestLoadDialectPort tests that the default port follows the database type
func TestLoadDialectPort(t *testing.T) {
	tests := []struct {
		dbType string
		port   string
	}{
		{"mariadb", "3306"},
		{"postgres", "5432"},
		{"postgresql", "5432"},
		{"sqlserver", "1433"},
		{"mssql", "1433"},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_TYPE", tt.dbType)
			t.Setenv("DB_DATABASE", "bibliotheque")
			t.Setenv("DB_USER", "biblio")

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.DBPort != tt.port {
				t.Errorf("Expected port %s, got %s", tt.port, cfg.DBPort)
			}
		})
	}
}

// TestLoadRequired tests the required field checks
func TestLoadRequired(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Error("Expected an error without DB_DATABASE")
	}

	t.Setenv("DB_DATABASE", "bibliotheque")
	if _, err := Load(); err == nil {
		t.Error("Expected an error without DB_USER")
	}

	// SQLite needs no credentials
	t.Setenv("DB_TYPE", "sqlite-modernc")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed for sqlite: %v", err)
	}
	if !cfg.IsSQLite() {
		t.Error("Expected IsSQLite for sqlite-modernc")
	}
	if cfg.DBPort != "" {
		t.Errorf("Expected no port for sqlite, got %s", cfg.DBPort)
	}
}

// TestLoadInvalidValues tests rejection of malformed settings
func TestLoadInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_DATABASE", "biblio.db")

	t.Setenv("DB_LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Error("Expected an error for an unknown log level")
	}

	t.Setenv("DB_LOG_LEVEL", "info")
	t.Setenv("DB_CONNECTION_LIMIT", "0")
	if _, err := Load(); err == nil {
		t.Error("Expected an error for a zero connection limit")
	}

	// Unparseable numbers fall back to the default
	t.Setenv("DB_CONNECTION_LIMIT", "many")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBConnectionLimit != 5 {
		t.Errorf("Expected DBConnectionLimit 5, got %d", cfg.DBConnectionLimit)
	}
}

// TestLoadFile tests loading settings from an env file
func TestLoadFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are set, even to empty
	for _, key := range []string{"DB_TYPE", "DB_DATABASE", "DB_CONNECTION_LIMIT"} {
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "DB_TYPE=sqlite-modernc\nDB_DATABASE=/tmp/biblio.db\nDB_CONNECTION_LIMIT=3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() {
		for _, key := range []string{"DB_TYPE", "DB_DATABASE", "DB_CONNECTION_LIMIT"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.DBType != "sqlite-modernc" {
		t.Errorf("Expected DBType sqlite-modernc, got %s", cfg.DBType)
	}
	if cfg.DBDatabase != "/tmp/biblio.db" {
		t.Errorf("Expected DBDatabase /tmp/biblio.db, got %s", cfg.DBDatabase)
	}
	if cfg.DBConnectionLimit != 3 {
		t.Errorf("Expected DBConnectionLimit 3, got %d", cfg.DBConnectionLimit)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected an error for a missing env file")
	}
}
