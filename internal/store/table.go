// table.go
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
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/localnerve/bibliodb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query selects rows of one table. Filter keys are column names; a nil value
// matches NULL. OrderBy defaults to the primary key; a zero Limit means no limit.
type Query struct {
	Filter  map[string]interface{}
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Page is one page of a listing and the number of rows matching the filter
type Page[T any] struct {
	Items []T
	Total int64
}

// Table gives typed access to the rows of one entity
type Table[T models.Record] struct {
	s     *Store
	table string
}

func newTable[T models.Record](s *Store) *Table[T] {
	var zero T
	return &Table[T]{s: s, table: zero.TableName()}
}

// Name returns the table name
func (t *Table[T]) Name() string {
	return t.table
}

// Create validates rec, assigns its creation values and inserts it.
// Associations set on rec are not written.
func (t *Table[T]) Create(ctx context.Context, rec *T) error {
	db := t.s.db.WithContext(ctx)
	if stamper, ok := any(rec).(models.Stamper); ok {
		stamper.StampCreate(db.NowFunc())
	}
	if err := t.s.reg.check(t.table, rec); err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := t.s.reg.checkReferences(tx, t.table, rec); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(rec).Error
	})
	return classify(t.table, err)
}

// Get reads the row with the given id
func (t *Table[T]) Get(ctx context.Context, id uint64) (*T, error) {
	var rec T
	if err := t.s.db.WithContext(ctx).Where(byID(id)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(t.table, id)
		}
		return nil, classify(t.table, err)
	}
	return &rec, nil
}

// GetBy reads the first row, by primary key, whose column equals value
func (t *Table[T]) GetBy(ctx context.Context, column string, value interface{}) (*T, error) {
	return t.FindOne(ctx, map[string]interface{}{column: value})
}

// FindOne reads the first row, by primary key, matching filter
func (t *Table[T]) FindOne(ctx context.Context, filter map[string]interface{}) (*T, error) {
	scope, err := t.filter(filter)
	if err != nil {
		return nil, err
	}

	var rec T
	err = t.s.db.WithContext(ctx).
		Scopes(scope).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, classify(t.table, fmt.Errorf("no row where %v: %w", filter, err))
		}
		return nil, classify(t.table, err)
	}
	return &rec, nil
}

// List returns the rows matching q and the total count ignoring paging
func (t *Table[T]) List(ctx context.Context, q Query) (*Page[T], error) {
	filter, err := t.filter(q.Filter)
	if err != nil {
		return nil, err
	}
	order := "id"
	if q.OrderBy != "" {
		if order, err = t.column(q.OrderBy); err != nil {
			return nil, err
		}
	}

	db := t.s.db.WithContext(ctx)
	page := &Page[T]{Items: []T{}}
	if err := db.Model(new(T)).Scopes(filter).Count(&page.Total).Error; err != nil {
		return nil, classify(t.table, err)
	}

	tx := db.Scopes(filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: order}, Desc: q.Desc})
	if order != "id" {
		// Keep pages stable when the order column has duplicates
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if err := tx.Find(&page.Items).Error; err != nil {
		return nil, classify(t.table, err)
	}

	return page, nil
}

// Count returns the number of rows matching filter
func (t *Table[T]) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	scope, err := t.filter(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := t.s.db.WithContext(ctx).Model(new(T)).Scopes(scope).Count(&n).Error; err != nil {
		return 0, classify(t.table, err)
	}
	return n, nil
}

// Update reads the row, applies mutate and writes every column back in one
// transaction. The modification stamp is set; the primary key cannot change.
func (t *Table[T]) Update(ctx context.Context, id uint64, mutate func(*T) error) (*T, error) {
	var out *T

	err := t.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec T
		if err := lockForUpdate(tx).Where(byID(id)).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(t.table, id)
			}
			return err
		}

		if err := mutate(&rec); err != nil {
			return err
		}
		if pk := t.s.reg.primaryKey(ctx, t.table, &rec); pk != id {
			return fmt.Errorf("%s: primary key cannot change from %d to %d", t.table, id, pk)
		}

		if toucher, ok := any(&rec).(models.Toucher); ok {
			toucher.Touch(tx.NowFunc())
		}
		if err := t.s.reg.check(t.table, &rec); err != nil {
			return err
		}
		if err := t.s.reg.checkReferences(tx, t.table, &rec); err != nil {
			return err
		}

		if err := tx.Model(&rec).Select("*").Omit(clause.Associations).Updates(&rec).Error; err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, classify(t.table, err)
	}

	return out, nil
}

// Delete removes the row and applies the deletion policy of every foreign key
// that references it, all in one transaction. Nothing changes when a restricting
// row exists.
func (t *Table[T]) Delete(ctx context.Context, id uint64) error {
	err := t.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table(t.table).Where(byID(id)).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(t.table, id)
		}
		return t.s.reg.deleteRows(tx, t.table, []uint64{id}, make(map[string]map[uint64]bool))
	})
	return classify(t.table, err)
}

// column resolves a column or Go field name of the table to its column name
func (t *Table[T]) column(name string) (string, error) {
	field := t.s.reg.schemas[t.table].LookUpField(name)
	if field == nil || field.DBName == "" {
		return "", fmt.Errorf("%s: unknown column %q", t.table, name)
	}
	return field.DBName, nil
}

func (t *Table[T]) filter(filter map[string]interface{}) (func(*gorm.DB) *gorm.DB, error) {
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		name, err := t.column(key)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: name}, Value: filter[key]})
	}

	return func(tx *gorm.DB) *gorm.DB {
		if len(exprs) == 0 {
			return tx
		}
		return tx.Where(clause.And(exprs...))
	}, nil
}

func byID(id uint64) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "id"}, Value: id}
}

// lockForUpdate takes a row lock where the dialect has SELECT ... FOR UPDATE
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
