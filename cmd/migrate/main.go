// main.go
//
// Schema and data access for a library management database
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of bibliodb.
// bibliodb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// bibliodb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with bibliodb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/bibliodb/internal/config"
	"github.com/localnerve/bibliodb/internal/database"
	"github.com/localnerve/bibliodb/internal/store"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Create or update the library schema in the configured database.

Usage:

migrate [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  migrate -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if envFilename != "" {
		log.Printf("Loading environment variables from %s", envFilename)
		cfg, err = config.LoadFile(envFilename)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Fails when a foreign key declaration cannot be parsed
	s, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to build the store: %v", err)
	}
	if s.ChecksReferences() {
		log.Printf("Foreign keys are not created on %s; the store enforces them", cfg.DBType)
	}

	log.Printf("Schema ready: %d tables", len(database.Tables()))
}
