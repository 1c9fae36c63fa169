package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/localnerve/bibliodb/internal/config"
	"github.com/localnerve/bibliodb/internal/database"
	"github.com/localnerve/bibliodb/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Schema       string            `json:"schema"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck checks that the database is reachable and holds every table
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	fail := func(msg string) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
		log.Printf("Health check failed - %s", msg)
	}

	if err := utils.PingDatabase(cfg); err != nil {
		result.Database = "unreachable"
		result.Schema = "unknown"
		result.Details["database_dial_error"] = err.Error()
		fail(fmt.Sprintf("Database server unreachable: %v", err))
		return result
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Schema = "unknown"
		result.Details["database_error"] = err.Error()
		fail(fmt.Sprintf("Database connection error: %v", err))
		return result
	}
	if err := sqlDB.Ping(); err != nil {
		result.Database = "unreachable"
		result.Schema = "unknown"
		result.Details["database_ping_error"] = err.Error()
		fail(fmt.Sprintf("Database ping failed: %v", err))
		return result
	}
	result.Database = "ok"
	result.Details["database_type"] = cfg.DBType
	result.Details["database_name"] = cfg.DBDatabase

	// Check the schema
	var missing []string
	migrator := db.Migrator()
	for _, table := range database.Tables() {
		if !migrator.HasTable(table) {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		result.Schema = "incomplete"
		result.Details["missing_tables"] = strings.Join(missing, ",")
		fail(fmt.Sprintf("Schema is missing %d table(s)", len(missing)))
	} else {
		result.Schema = "ok"
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - database and schema ready")
	}

	return result
}
