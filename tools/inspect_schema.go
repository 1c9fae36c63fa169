package main

import (
	"fmt"
	"log"

	"github.com/localnerve/bibliodb/internal/config"
	"github.com/localnerve/bibliodb/internal/database"
)

func main() {
	db, err := database.Connect(&config.Config{
		DBType:            "sqlite-modernc",
		DBDatabase:        ":memory:",
		DBConnectionLimit: 1,
		DBLogLevel:        "silent",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	// Auto-migrate to see what GORM creates
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	for _, table := range database.Tables() {
		fmt.Printf("\n=== Table: %s ===\n", table)

		var statements []string
		err := db.Raw("SELECT sql FROM sqlite_master WHERE tbl_name = ? AND sql IS NOT NULL ORDER BY type DESC, name", table).
			Scan(&statements).Error
		if err != nil {
			log.Fatalf("Failed to read the schema of %s: %v", table, err)
		}
		for _, statement := range statements {
			fmt.Println(statement + ";")
		}
	}
}
