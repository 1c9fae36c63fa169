// Package data holds the SQL run against a fresh database server before the
// schema is created.
package data

import (
	_ "embed"
)

//go:embed initdb/mariadb/001-server.sql
var InitdbMariaDBServer string
