// migrate.go
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

package database

import (
	"fmt"
	"log"

	"github.com/localnerve/bibliodb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// optionalUnique is a unique column that may hold any number of NULLs
type optionalUnique struct {
	model  models.Record
	column string
	name   string
}

var optionalUniques = []optionalUnique{
	{&models.Document{}, "isbn", "document_isbn_key"},
	{&models.Member{}, "email", "membre_email_key"},
}

// Models returns one prototype per entity, parents before children
func Models() []models.Record {
	return []models.Record{
		&models.Author{},
		&models.Category{},
		&models.Publisher{},
		&models.SystemUser{},
		&models.Document{},
		&models.DocumentAuthor{},
		&models.Location{},
		&models.MemberType{},
		&models.Copy{},
		&models.Member{},
		&models.Loan{},
		&models.Penalty{},
		&models.Permission{},
		&models.Reservation{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRole{},
	}
}

// Tables returns the table names of every entity
func Tables() []string {
	records := Models()
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.TableName())
	}
	return names
}

// AutoMigrate runs automatic migrations for all models, then adds the unique
// indexes that must ignore NULL values
func AutoMigrate(db *gorm.DB) error {
	records := Models()
	values := make([]interface{}, 0, len(records))
	for _, record := range records {
		values = append(values, record)
	}
	if err := db.AutoMigrate(values...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, idx := range optionalUniques {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}
		if err := createOptionalUnique(db, idx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Printf("Created index %s on %s(%s)", idx.name, idx.model.TableName(), idx.column)
	}

	return nil
}

func createOptionalUnique(db *gorm.DB, idx optionalUnique) error {
	args := []interface{}{
		clause.Column{Name: idx.name},
		clause.Table{Name: idx.model.TableName()},
		clause.Column{Name: idx.column},
	}

	// SQL Server allows a single NULL in a unique index unless it is filtered
	// The other engines treat NULLs as distinct
	if db.Dialector.Name() == "sqlserver" {
		args = append(args, clause.Column{Name: idx.column})
		return db.Exec("CREATE UNIQUE INDEX ? ON ? (?) WHERE ? IS NOT NULL", args...).Error
	}
	return db.Exec("CREATE UNIQUE INDEX ? ON ? (?)", args...).Error
}
