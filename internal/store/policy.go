// policy.go
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

package store

import (
	"fmt"
	"reflect"

	"github.com/localnerve/bibliodb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// deleteRows deletes ids from table after applying the policy of every
// foreign key that references them: restricting rows block the delete,
// set-null rows lose their reference and cascading rows are deleted the
// same way. seen holds the rows already scheduled, per table.
func (r *registry) deleteRows(tx *gorm.DB, table string, ids []uint64, seen map[string]map[uint64]bool) error {
	if seen[table] == nil {
		seen[table] = make(map[uint64]bool)
	}
	pending := ids[:0:0]
	for _, id := range ids {
		if !seen[table][id] {
			seen[table][id] = true
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	edges := r.children[table]

	for _, edge := range edges {
		if edge.OnDelete != Restrict {
			continue
		}
		var total int64
		for _, batch := range batches(pending) {
			var n int64
			if err := tx.Table(edge.Child).Where(in(edge.Column, batch)).Count(&n).Error; err != nil {
				return err
			}
			total += n
		}
		if total > 0 {
			return &types.Error{
				Kind:    types.KindForeignKeyViolation,
				Table:   table,
				Column:  edge.Column,
				Message: fmt.Sprintf("referenced by %d %s row(s) through %s", total, edge.Child, edge.Column),
			}
		}
	}

	for _, edge := range edges {
		if edge.OnDelete != SetNull {
			continue
		}
		for _, batch := range batches(pending) {
			if err := tx.Table(edge.Child).Where(in(edge.Column, batch)).Update(edge.Column, nil).Error; err != nil {
				return err
			}
		}
	}

	for _, edge := range edges {
		if edge.OnDelete != Cascade {
			continue
		}
		var childIDs []uint64
		for _, batch := range batches(pending) {
			var ids []uint64
			if err := tx.Table(edge.Child).Where(in(edge.Column, batch)).Pluck("id", &ids).Error; err != nil {
				return err
			}
			childIDs = append(childIDs, ids...)
		}
		if len(childIDs) == 0 {
			continue
		}
		if err := r.deleteRows(tx, edge.Child, childIDs, seen); err != nil {
			return err
		}
	}

	for _, batch := range batches(pending) {
		if err := tx.Where(in("id", batch)).Delete(r.proto(table)).Error; err != nil {
			return err
		}
	}
	return nil
}

// checkReferences verifies that every foreign key set on rec points at an
// existing row. It only runs when the database holds no foreign key constraints.
func (r *registry) checkReferences(tx *gorm.DB, table string, rec interface{}) error {
	if !r.checkRefs {
		return nil
	}

	value := reflect.Indirect(reflect.ValueOf(rec))
	for _, edge := range r.parents[table] {
		ref, zero := edge.field.ValueOf(tx.Statement.Context, value)
		if zero {
			continue
		}
		ref = reflect.Indirect(reflect.ValueOf(ref)).Interface()

		var n int64
		if err := tx.Table(edge.Parent).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: ref}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return &types.Error{
				Kind:    types.KindForeignKeyViolation,
				Table:   table,
				Column:  edge.Column,
				Message: fmt.Sprintf("%s %v does not exist", edge.Parent, ref),
			}
		}
	}

	return nil
}

// maxBatch bounds the ids bound into one IN list. SQL Server accepts at most
// 2100 parameters per statement.
var maxBatch = 1000

func batches(ids []uint64) [][]uint64 {
	var out [][]uint64
	for len(ids) > maxBatch {
		out = append(out, ids[:maxBatch])
		ids = ids[maxBatch:]
	}
	return append(out, ids)
}

func in(column string, ids []uint64) clause.Expression {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return clause.IN{Column: clause.Column{Name: column}, Values: values}
}
