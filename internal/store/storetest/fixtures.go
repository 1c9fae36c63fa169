// Package storetest builds fixture rows and runs the constraint checks shared
// by the unit tests (SQLite) and the integration tests (MariaDB, PostgreSQL).
package storetest

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/bibliodb/internal/config"
	"github.com/localnerve/bibliodb/internal/database"
	"github.com/localnerve/bibliodb/internal/models"
	"github.com/localnerve/bibliodb/internal/store"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Fixtures creates valid rows through a store, failing the test on any error
type Fixtures struct {
	T     testing.TB
	Ctx   context.Context
	Store *store.Store
}

// New returns fixtures bound to s
func New(t testing.TB, s *store.Store) *Fixtures {
	return &Fixtures{T: t, Ctx: context.Background(), Store: s}
}

// OpenMemory opens a migrated in-memory SQLite database and its store
func OpenMemory(t testing.TB) *store.Store {
	t.Helper()

	db, err := database.Connect(&config.Config{
		DBType:            "sqlite-modernc",
		DBDatabase:        ":memory:",
		DBConnectionLimit: 1,
		DBLogLevel:        "silent",
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	s, err := store.New(db)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

// Unique returns prefix followed by a random suffix, at most max characters long
func Unique(prefix string, max int) string {
	value := prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(value) > max {
		value = value[:max]
	}
	return value
}

// ISBN returns a random 13 digit ISBN-shaped value
func ISBN() string {
	id := uuid.New()
	return fmt.Sprintf("978%010d", binary.BigEndian.Uint64(id[:8])%10000000000)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

func (f *Fixtures) create(table string, err error) {
	f.T.Helper()
	if err != nil {
		f.T.Fatalf("Failed to create %s fixture: %v", table, err)
	}
}

func (f *Fixtures) SystemUser() *models.SystemUser {
	f.T.Helper()
	name := Unique("staff", 50)
	user := &models.SystemUser{
		Username:   name,
		Email:      name + "@bibliotheque.test",
		LastName:   "Diallo",
		GivenNames: "Awa",
	}
	if err := user.SetPassword("correct horse battery staple"); err != nil {
		f.T.Fatalf("Failed to hash password: %v", err)
	}
	f.create("utilisateur_sys", f.Store.SystemUsers.Create(f.Ctx, user))
	return user
}

func (f *Fixtures) Author() *models.Author {
	f.T.Helper()
	author := &models.Author{
		LastName:    "Hugo",
		GivenNames:  Ptr("Victor"),
		Nationality: Ptr("française"),
		BirthDate:   Ptr(datatypes.Date(time.Date(1802, 2, 26, 0, 0, 0, 0, time.UTC))),
	}
	f.create("auteur", f.Store.Authors.Create(f.Ctx, author))
	return author
}

// Category creates a category under parent, or a root category when parent is nil
func (f *Fixtures) Category(parent *models.Category) *models.Category {
	f.T.Helper()
	category := &models.Category{
		Label:       Unique("categorie", 100),
		Description: models.NewText("Romans et nouvelles"),
	}
	if parent != nil {
		category.ParentID = Ptr(parent.ID)
	}
	f.create("categorie", f.Store.Categories.Create(f.Ctx, category))
	return category
}

func (f *Fixtures) Publisher() *models.Publisher {
	f.T.Helper()
	publisher := &models.Publisher{Label: Unique("editeur", 150), City: Ptr("Paris")}
	f.create("editeur", f.Store.Publishers.Create(f.Ctx, publisher))
	return publisher
}

func (f *Fixtures) Location() *models.Location {
	f.T.Helper()
	location := &models.Location{ShelfCode: Unique("R", 50), Description: Ptr("Rayon romans")}
	f.create("emplacement", f.Store.Locations.Create(f.Ctx, location))
	return location
}

func (f *Fixtures) MemberType() *models.MemberType {
	f.T.Helper()
	memberType := &models.MemberType{
		Label:            Unique("adulte", 50),
		MaxLoans:         5,
		LoanDurationDays: 21,
		DailyPenaltyRate: decimal.RequireFromString("0.25"),
	}
	f.create("type_membre", f.Store.MemberTypes.Create(f.Ctx, memberType))
	return memberType
}

// Document creates a document with its own category and publisher, and the
// given ISBN (nil for none)
func (f *Fixtures) Document(creator *models.SystemUser, isbn *string) *models.Document {
	f.T.Helper()
	return f.DocumentIn(f.Category(nil), f.Publisher(), creator, isbn)
}

func (f *Fixtures) DocumentIn(category *models.Category, publisher *models.Publisher, creator *models.SystemUser, isbn *string) *models.Document {
	f.T.Helper()
	document := &models.Document{
		Title:           "Les Misérables",
		PublicationYear: Ptr(int32(1862)),
		ISBN:            isbn,
		Summary:         models.NewText("Jean Valjean, ancien forçat."),
		CategoryID:      category.ID,
		PublisherID:     publisher.ID,
		CreatedByID:     creator.ID,
	}
	f.create("document", f.Store.Documents.Create(f.Ctx, document))
	return document
}

func (f *Fixtures) Copy(document *models.Document, location *models.Location, addedBy *models.SystemUser) *models.Copy {
	f.T.Helper()
	item := &models.Copy{
		InventoryNumber: Unique("INV", 50),
		Condition:       "bon",
		Status:          "disponible",
		InServiceDate:   datatypes.Date(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)),
		LocationID:      location.ID,
		DocumentID:      document.ID,
		AddedByID:       addedBy.ID,
	}
	f.create("exemplaire", f.Store.Copies.Create(f.Ctx, item))
	return item
}

func (f *Fixtures) Member(memberType *models.MemberType) *models.Member {
	f.T.Helper()
	member := &models.Member{
		LastName:     "Martin",
		GivenNames:   "Louise",
		Email:        Ptr(Unique("membre", 80) + "@exemple.test"),
		MemberTypeID: memberType.ID,
	}
	f.create("membre", f.Store.Members.Create(f.Ctx, member))
	return member
}

func (f *Fixtures) Loan(member *models.Member, item *models.Copy, issuedBy *models.SystemUser) *models.Loan {
	f.T.Helper()
	loan := &models.Loan{
		DueAt:      time.Now().UTC().Add(21 * 24 * time.Hour).Truncate(time.Second),
		MemberID:   member.ID,
		CopyID:     item.ID,
		IssuedByID: issuedBy.ID,
	}
	f.create("emprunt", f.Store.Loans.Create(f.Ctx, loan))
	return loan
}

// Penalty creates a penalty for member, tied to loan when it is not nil
func (f *Fixtures) Penalty(member *models.Member, loan *models.Loan, createdBy *models.SystemUser) *models.Penalty {
	f.T.Helper()
	penalty := &models.Penalty{
		AmountDue:   decimal.RequireFromString("4.50"),
		AmountPaid:  decimal.Zero,
		Reason:      "retard",
		Status:      "impayee",
		MemberID:    member.ID,
		CreatedByID: createdBy.ID,
	}
	if loan != nil {
		penalty.LoanID = Ptr(loan.ID)
	}
	f.create("penalite", f.Store.Penalties.Create(f.Ctx, penalty))
	return penalty
}

func (f *Fixtures) Reservation(member *models.Member, document *models.Document) *models.Reservation {
	f.T.Helper()
	reservation := &models.Reservation{
		Status:     "en_attente",
		MemberID:   member.ID,
		DocumentID: document.ID,
	}
	f.create("reservation", f.Store.Reservations.Create(f.Ctx, reservation))
	return reservation
}

func (f *Fixtures) Role() *models.Role {
	f.T.Helper()
	role := &models.Role{Label: Unique("bibliothecaire", 50)}
	f.create("role", f.Store.Roles.Create(f.Ctx, role))
	return role
}

func (f *Fixtures) Permission() *models.Permission {
	f.T.Helper()
	permission := &models.Permission{Label: Unique("emprunt.creer", 100)}
	f.create("permission", f.Store.Permissions.Create(f.Ctx, permission))
	return permission
}
