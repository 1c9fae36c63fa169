package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localnerve/bibliodb/internal/types"
	mssql "github.com/microsoft/go-mssqldb"
	"gorm.io/gorm"
)

// classify maps a database error onto the constraint taxonomy.
// Errors that match no kind are returned unchanged.
func classify(table string, err error) error {
	if err == nil {
		return nil
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}

	// Translated by the dialector (gorm.Config.TranslateError)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &types.Error{Kind: types.KindNotFound, Table: table, Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &types.Error{Kind: types.KindUniqueViolation, Table: table, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &types.Error{Kind: types.KindForeignKeyViolation, Table: table, Err: err}
	}

	if kind, column, ok := driverKind(err); ok {
		return &types.Error{Kind: kind, Table: table, Column: column, Err: err}
	}

	return err
}

func notFound(table string, id uint64) error {
	return &types.Error{
		Kind:    types.KindNotFound,
		Table:   table,
		Message: fmt.Sprintf("id %d", id),
		Err:     gorm.ErrRecordNotFound,
	}
}

// driverKind reads the engine's own error codes, for the errors the
// dialectors leave untranslated
func driverKind(err error) (types.Kind, string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return types.KindUniqueViolation, "", true
		case 1451, 1452:
			return types.KindForeignKeyViolation, "", true
		case 1048, 1364:
			return types.KindNotNullViolation, quoted(myErr.Message), true
		case 1406, 1264:
			return types.KindOutOfBounds, quoted(myErr.Message), true
		}
		return 0, "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return types.KindUniqueViolation, pgErr.ColumnName, true
		case "23503":
			return types.KindForeignKeyViolation, pgErr.ColumnName, true
		case "23502":
			return types.KindNotNullViolation, pgErr.ColumnName, true
		case "22001", "22003":
			return types.KindOutOfBounds, pgErr.ColumnName, true
		}
		return 0, "", false
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case 2627, 2601:
			return types.KindUniqueViolation, "", true
		case 547:
			return types.KindForeignKeyViolation, "", true
		case 515:
			return types.KindNotNullViolation, quoted(msErr.Message), true
		case 8152, 2628:
			return types.KindOutOfBounds, "", true
		}
		return 0, "", false
	}

	// SQLite reports constraint failures in the message text only
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return types.KindUniqueViolation, afterTable(msg), true
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return types.KindForeignKeyViolation, "", true
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return types.KindNotNullViolation, afterTable(msg), true
	}

	return 0, "", false
}

// quoted returns the first single-quoted name in a driver message
func quoted(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// afterTable returns the column of a "table.column" suffix, the first one
// when several columns are listed
func afterTable(msg string) string {
	i := strings.LastIndex(msg, ": ")
	if i < 0 {
		return ""
	}
	ref := msg[i+2:]
	if comma := strings.IndexByte(ref, ','); comma >= 0 {
		ref = ref[:comma]
	}
	dot := strings.IndexByte(ref, '.')
	if dot < 0 {
		return ""
	}
	column, _, _ := strings.Cut(ref[dot+1:], " ")
	return column
}
