// error.go
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

package types

import (
	"errors"
	"fmt"
)

// Kind classifies a data-access failure
type Kind int

const (
	KindUniqueViolation Kind = iota + 1
	KindForeignKeyViolation
	KindNotNullViolation
	KindNotFound
	KindOutOfBounds
)

// Sentinels matched by errors.Is against any *Error of the same kind
var (
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrNotNullViolation    = errors.New("not null violation")
	ErrNotFound            = errors.New("not found")
	ErrOutOfBounds         = errors.New("value out of bounds")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUniqueViolation:
		return ErrUniqueViolation
	case KindForeignKeyViolation:
		return ErrForeignKeyViolation
	case KindNotNullViolation:
		return ErrNotNullViolation
	case KindNotFound:
		return ErrNotFound
	case KindOutOfBounds:
		return ErrOutOfBounds
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// Error is a constraint or lookup failure on a table
type Error struct {
	Kind    Kind
	Table   string
	Column  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Column != "" {
		return fmt.Sprintf("%s: %s [table: %s, column: %s]", e.Kind, msg, e.Table, e.Column)
	}
	return fmt.Sprintf("%s: %s [table: %s]", e.Kind, msg, e.Table)
}

// Unwrap returns the underlying driver error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
