// Package store provides typed data access over the library schema. Writes are
// validated and stamped before they reach the database, and deletes follow the
// cascade, restrict and set-null policies declared on the models.
package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/bibliodb/internal/database"
	"github.com/localnerve/bibliodb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Deletion policies, as declared in the models' constraint tags
const (
	Cascade  = "CASCADE"
	Restrict = "RESTRICT"
	SetNull  = "SET NULL"
)

// Edge is a foreign key from a child table to a parent table
type Edge struct {
	Child    string
	Column   string
	Parent   string
	OnDelete string

	field *schema.Field
}

// registry holds what the store derives once from the models
type registry struct {
	schemas   map[string]*schema.Schema
	children  map[string][]Edge // by parent table
	parents   map[string][]Edge // by child table
	validate  *validator.Validate
	checkRefs bool
}

// Store gives typed access to every table. A Store is safe for concurrent use.
type Store struct {
	db  *gorm.DB
	reg *registry

	Authors         *Table[models.Author]
	Categories      *Categories
	Publishers      *Table[models.Publisher]
	SystemUsers     *SystemUsers
	Documents       *Documents
	DocumentAuthors *Table[models.DocumentAuthor]
	Locations       *Table[models.Location]
	MemberTypes     *Table[models.MemberType]
	Copies          *Copies
	Members         *Members
	Loans           *Table[models.Loan]
	Penalties       *Table[models.Penalty]
	Permissions     *Table[models.Permission]
	Reservations    *Table[models.Reservation]
	Roles           *Roles
	RolePermissions *Table[models.RolePermission]
	UserRoles       *Table[models.UserRole]
}

// New parses the models and derives the deletion policy graph from their
// foreign key constraints. The schema must already exist (database.AutoMigrate).
func New(db *gorm.DB) (*Store, error) {
	reg := &registry{
		schemas:  make(map[string]*schema.Schema),
		children: make(map[string][]Edge),
		parents:  make(map[string][]Edge),
		validate: newValidator(),
		// Without foreign key DDL the database cannot reject dangling references
		checkRefs: db.Config.DisableForeignKeyConstraintWhenMigrating,
	}

	for _, model := range database.Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		reg.schemas[stmt.Schema.Table] = stmt.Schema
	}

	for _, model := range database.Models() {
		sch := reg.schemas[model.TableName()]
		for _, rel := range sch.Relationships.BelongsTo {
			constraint := rel.ParseConstraint()
			if constraint == nil || len(constraint.ForeignKeys) != 1 {
				continue
			}
			edge := Edge{
				Child:    sch.Table,
				Column:   constraint.ForeignKeys[0].DBName,
				Parent:   constraint.ReferenceSchema.Table,
				OnDelete: policy(constraint.OnDelete),
				field:    constraint.ForeignKeys[0],
			}
			reg.parents[edge.Child] = append(reg.parents[edge.Child], edge)
			reg.children[edge.Parent] = append(reg.children[edge.Parent], edge)
		}
	}

	return reg.bind(db), nil
}

// policy normalizes a constraint action; an undeclared action blocks the delete
func policy(action string) string {
	switch action = strings.ToUpper(strings.TrimSpace(action)); action {
	case Cascade, SetNull:
		return action
	}
	return Restrict
}

func (r *registry) bind(db *gorm.DB) *Store {
	s := &Store{db: db, reg: r}
	s.Authors = newTable[models.Author](s)
	s.Categories = &Categories{newTable[models.Category](s)}
	s.Publishers = newTable[models.Publisher](s)
	s.SystemUsers = &SystemUsers{newTable[models.SystemUser](s)}
	s.Documents = &Documents{newTable[models.Document](s)}
	s.DocumentAuthors = newTable[models.DocumentAuthor](s)
	s.Locations = newTable[models.Location](s)
	s.MemberTypes = newTable[models.MemberType](s)
	s.Copies = &Copies{newTable[models.Copy](s)}
	s.Members = &Members{newTable[models.Member](s)}
	s.Loans = newTable[models.Loan](s)
	s.Penalties = newTable[models.Penalty](s)
	s.Permissions = newTable[models.Permission](s)
	s.Reservations = newTable[models.Reservation](s)
	s.Roles = &Roles{newTable[models.Role](s)}
	s.RolePermissions = newTable[models.RolePermission](s)
	s.UserRoles = newTable[models.UserRole](s)
	return s
}

// DB returns the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.reg.bind(tx))
	})
}

// WithClock returns a Store whose creation and modification stamps come from now
func (s *Store) WithClock(now func() time.Time) *Store {
	return s.reg.bind(s.db.Session(&gorm.Session{NowFunc: now}))
}

// Children returns the foreign keys that reference table
func (s *Store) Children(table string) []Edge {
	return append([]Edge(nil), s.reg.children[table]...)
}

// Parents returns the foreign keys held by table
func (s *Store) Parents(table string) []Edge {
	return append([]Edge(nil), s.reg.parents[table]...)
}

// ChecksReferences reports whether the store verifies foreign keys itself
func (s *Store) ChecksReferences() bool {
	return s.reg.checkRefs
}

// proto returns a new zero value of the model stored in table
func (r *registry) proto(table string) interface{} {
	return reflect.New(r.schemas[table].ModelType).Interface()
}

// primaryKey reads the id of rec, a pointer to a model stored in table
func (r *registry) primaryKey(ctx context.Context, table string, rec interface{}) uint64 {
	field := r.schemas[table].PrioritizedPrimaryField
	value, _ := field.ValueOf(ctx, reflect.Indirect(reflect.ValueOf(rec)))
	id, _ := value.(uint64)
	return id
}
