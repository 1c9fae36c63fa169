// suite.go
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

package storetest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/bibliodb/internal/models"
	"github.com/localnerve/bibliodb/internal/store"
	"github.com/localnerve/bibliodb/internal/types"
	"github.com/shopspring/decimal"
)

// Run checks the uniqueness, deletion policy, timestamp and error taxonomy
// guarantees of the store against whatever database s is connected to
func Run(t *testing.T, s *store.Store) {
	t.Run("UniqueViolations", func(t *testing.T) { testUniqueViolations(t, s) })
	t.Run("OptionalUniques", func(t *testing.T) { testOptionalUniques(t, s) })
	t.Run("RestrictBlocksDelete", func(t *testing.T) { testRestrictBlocksDelete(t, s) })
	t.Run("DocumentCascade", func(t *testing.T) { testDocumentCascade(t, s) })
	t.Run("MemberCascade", func(t *testing.T) { testMemberCascade(t, s) })
	t.Run("ReturningUserNullified", func(t *testing.T) { testReturningUserNullified(t, s) })
	t.Run("LoanNullifiedOnPenalty", func(t *testing.T) { testLoanNullifiedOnPenalty(t, s) })
	t.Run("ParentCategoryNullified", func(t *testing.T) { testParentCategoryNullified(t, s) })
	t.Run("ModificationStamps", func(t *testing.T) { testModificationStamps(t, s) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, s) })
	t.Run("NotNullAndBounds", func(t *testing.T) { testNotNullAndBounds(t, s) })
	t.Run("AssociationsNotWritten", func(t *testing.T) { testAssociationsNotWritten(t, s) })
	t.Run("ActiveByDefault", func(t *testing.T) { testActiveByDefault(t, s) })
	t.Run("DanglingReference", func(t *testing.T) { testDanglingReference(t, s) })
	t.Run("TransactionRollback", func(t *testing.T) { testTransactionRollback(t, s) })
}

func expectKind(t *testing.T, err error, want error, what string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected %v, got success", what, want)
		return
	}
	if !errors.Is(err, want) {
		t.Errorf("%s: expected %v, got %v", what, want, err)
	}
}

func expectTable(t *testing.T, err error, table string) {
	t.Helper()
	var typed *types.Error
	if !errors.As(err, &typed) {
		t.Errorf("Expected a *types.Error, got %T", err)
		return
	}
	if typed.Table != table {
		t.Errorf("Expected the error on table %s, got %s", table, typed.Table)
	}
}

func testUniqueViolations(t *testing.T, s *store.Store) {
	shared := New(t, s)
	ctx := shared.Ctx
	staff := shared.SystemUser()
	document := shared.Document(staff, Ptr(ISBN()))
	author := shared.Author()
	role := shared.Role()
	permission := shared.Permission()

	tests := []struct {
		name  string
		table string
		dup   func(f *Fixtures) error
	}{
		{"category label", "categorie", func(f *Fixtures) error {
			c := f.Category(nil)
			return s.Categories.Create(ctx, &models.Category{Label: c.Label})
		}},
		{"publisher label", "editeur", func(f *Fixtures) error {
			p := f.Publisher()
			return s.Publishers.Create(ctx, &models.Publisher{Label: p.Label})
		}},
		{"staff username", "utilisateur_sys", func(f *Fixtures) error {
			u := f.SystemUser()
			dup := &models.SystemUser{Username: u.Username, PasswordHash: u.PasswordHash, Email: Unique("x", 40) + "@t.test", LastName: "A", GivenNames: "B"}
			return s.SystemUsers.Create(ctx, dup)
		}},
		{"staff email", "utilisateur_sys", func(f *Fixtures) error {
			u := f.SystemUser()
			dup := &models.SystemUser{Username: Unique("other", 50), PasswordHash: u.PasswordHash, Email: u.Email, LastName: "A", GivenNames: "B"}
			return s.SystemUsers.Create(ctx, dup)
		}},
		{"shelf code", "emplacement", func(f *Fixtures) error {
			l := f.Location()
			return s.Locations.Create(ctx, &models.Location{ShelfCode: l.ShelfCode})
		}},
		{"member type label", "type_membre", func(f *Fixtures) error {
			mt := f.MemberType()
			return s.MemberTypes.Create(ctx, &models.MemberType{Label: mt.Label, DailyPenaltyRate: decimal.Zero})
		}},
		{"inventory number", "exemplaire", func(f *Fixtures) error {
			c := f.Copy(document, f.Location(), staff)
			dup := *c
			dup.ID = 0
			return s.Copies.Create(ctx, &dup)
		}},
		{"permission label", "permission", func(f *Fixtures) error {
			return s.Permissions.Create(ctx, &models.Permission{Label: permission.Label})
		}},
		{"role label", "role", func(f *Fixtures) error {
			return s.Roles.Create(ctx, &models.Role{Label: role.Label})
		}},
		{"document author pair", "document_auteur", func(f *Fixtures) error {
			if _, err := s.Documents.AddAuthor(ctx, document.ID, author.ID); err != nil {
				f.T.Fatalf("Failed to link author: %v", err)
			}
			_, err := s.Documents.AddAuthor(ctx, document.ID, author.ID)
			return err
		}},
		{"role permission pair", "role_permission", func(f *Fixtures) error {
			if _, err := s.Roles.Grant(ctx, role.ID, permission.ID); err != nil {
				f.T.Fatalf("Failed to grant permission: %v", err)
			}
			_, err := s.Roles.Grant(ctx, role.ID, permission.ID)
			return err
		}},
		{"user role pair", "utilisateur_role", func(f *Fixtures) error {
			if _, err := s.SystemUsers.AssignRole(ctx, staff.ID, role.ID); err != nil {
				f.T.Fatalf("Failed to assign role: %v", err)
			}
			_, err := s.SystemUsers.AssignRole(ctx, staff.ID, role.ID)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dup(New(t, s))
			expectKind(t, err, types.ErrUniqueViolation, tt.name)
			if err != nil {
				expectTable(t, err, tt.table)
			}
		})
	}
}

func testOptionalUniques(t *testing.T, s *store.Store) {
	f := New(t, s)
	staff := f.SystemUser()

	// Absent ISBNs never collide
	f.Document(staff, nil)
	f.Document(staff, nil)

	isbn := ISBN()
	f.Document(staff, &isbn)
	dup := &models.Document{
		Title:       "Quatrevingt-treize",
		ISBN:        &isbn,
		CategoryID:  f.Category(nil).ID,
		PublisherID: f.Publisher().ID,
		CreatedByID: staff.ID,
	}
	expectKind(t, s.Documents.Create(f.Ctx, dup), types.ErrUniqueViolation, "duplicate ISBN")

	found, err := s.Documents.ByISBN(f.Ctx, isbn)
	if err != nil {
		t.Fatalf("ByISBN failed: %v", err)
	}
	if found.ISBN == nil || *found.ISBN != isbn {
		t.Errorf("ByISBN returned the wrong document: %+v", found)
	}

	memberType := f.MemberType()
	for i := 0; i < 2; i++ {
		member := &models.Member{LastName: "Sans", GivenNames: "Courriel", MemberTypeID: memberType.ID}
		if err := s.Members.Create(f.Ctx, member); err != nil {
			t.Fatalf("Failed to create member without email: %v", err)
		}
	}

	member := f.Member(memberType)
	dupMember := &models.Member{LastName: "Autre", GivenNames: "Membre", Email: member.Email, MemberTypeID: memberType.ID}
	expectKind(t, s.Members.Create(f.Ctx, dupMember), types.ErrUniqueViolation, "duplicate member email")
}

func testRestrictBlocksDelete(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	staff := f.SystemUser()
	category := f.Category(nil)
	publisher := f.Publisher()
	document := f.DocumentIn(category, publisher, staff, nil)
	location := f.Location()
	item := f.Copy(document, location, staff)
	memberType := f.MemberType()
	member := f.Member(memberType)
	loan := f.Loan(member, item, staff)

	tests := []struct {
		name   string
		delete func() error
	}{
		{"category with documents", func() error { return s.Categories.Delete(ctx, category.ID) }},
		{"publisher with documents", func() error { return s.Publishers.Delete(ctx, publisher.ID) }},
		{"location with copies", func() error { return s.Locations.Delete(ctx, location.ID) }},
		{"member type with members", func() error { return s.MemberTypes.Delete(ctx, memberType.ID) }},
		{"staff user with documents", func() error { return s.SystemUsers.Delete(ctx, staff.ID) }},
		{"copy with loans", func() error { return s.Copies.Delete(ctx, item.ID) }},
		// The cascade to copies reaches a restricting loan
		{"document with lent copies", func() error { return s.Documents.Delete(ctx, document.ID) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectKind(t, tt.delete(), types.ErrForeignKeyViolation, tt.name)
		})
	}

	// Every dependent row is unchanged
	if _, err := s.Documents.Get(ctx, document.ID); err != nil {
		t.Errorf("Document should remain: %v", err)
	}
	if _, err := s.Copies.Get(ctx, item.ID); err != nil {
		t.Errorf("Copy should remain: %v", err)
	}
	if _, err := s.Members.Get(ctx, member.ID); err != nil {
		t.Errorf("Member should remain: %v", err)
	}
	got, err := s.Loans.Get(ctx, loan.ID)
	if err != nil {
		t.Fatalf("Loan should remain: %v", err)
	}
	if got.CopyID != item.ID || got.IssuedByID != staff.ID {
		t.Errorf("Loan references changed: %+v", got)
	}
}

func testDocumentCascade(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	staff := f.SystemUser()
	document := f.Document(staff, Ptr(ISBN()))
	location := f.Location()
	copies := []*models.Copy{f.Copy(document, location, staff), f.Copy(document, location, staff)}
	author := f.Author()
	link, err := s.Documents.AddAuthor(ctx, document.ID, author.ID)
	if err != nil {
		t.Fatalf("Failed to link author: %v", err)
	}
	member := f.Member(f.MemberType())
	reservation := f.Reservation(member, document)

	if err := s.Documents.Delete(ctx, document.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, item := range copies {
		_, err := s.Copies.Get(ctx, item.ID)
		expectKind(t, err, types.ErrNotFound, "cascaded copy")
	}
	_, err = s.DocumentAuthors.Get(ctx, link.ID)
	expectKind(t, err, types.ErrNotFound, "cascaded author link")
	_, err = s.Reservations.Get(ctx, reservation.ID)
	expectKind(t, err, types.ErrNotFound, "cascaded reservation")

	// Parents of the document are untouched
	if _, err := s.Authors.Get(ctx, author.ID); err != nil {
		t.Errorf("Author should remain: %v", err)
	}
	if _, err := s.Locations.Get(ctx, location.ID); err != nil {
		t.Errorf("Location should remain: %v", err)
	}
	if _, err := s.Members.Get(ctx, member.ID); err != nil {
		t.Errorf("Member should remain: %v", err)
	}
}

func testMemberCascade(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	staff := f.SystemUser()
	document := f.Document(staff, nil)
	item := f.Copy(document, f.Location(), staff)
	member := f.Member(f.MemberType())
	loan := f.Loan(member, item, staff)
	penalty := f.Penalty(member, loan, staff)
	reservation := f.Reservation(member, document)

	if err := s.Members.Delete(ctx, member.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := s.Loans.Get(ctx, loan.ID)
	expectKind(t, err, types.ErrNotFound, "cascaded loan")
	_, err = s.Penalties.Get(ctx, penalty.ID)
	expectKind(t, err, types.ErrNotFound, "cascaded penalty")
	_, err = s.Reservations.Get(ctx, reservation.ID)
	expectKind(t, err, types.ErrNotFound, "cascaded reservation")

	// With its loan gone the copy can be deleted
	if err := s.Copies.Delete(ctx, item.ID); err != nil {
		t.Errorf("Copy delete failed after its loans were removed: %v", err)
	}
}

func testReturningUserNullified(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	staff := f.SystemUser()
	returner := f.SystemUser()
	item := f.Copy(f.Document(staff, nil), f.Location(), staff)
	loan := f.Loan(f.Member(f.MemberType()), item, staff)

	returned, err := s.Loans.Update(ctx, loan.ID, func(l *models.Loan) error {
		now := time.Now().UTC().Truncate(time.Second)
		l.ReturnedAt = &now
		l.ReturnedByID = &returner.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to record the return: %v", err)
	}
	if returned.ReturnedByID == nil || *returned.ReturnedByID != returner.ID {
		t.Fatalf("Return not recorded: %+v", returned)
	}

	if err := s.SystemUsers.Delete(ctx, returner.ID); err != nil {
		t.Fatalf("Deleting the returning user failed: %v", err)
	}

	got, err := s.Loans.Get(ctx, loan.ID)
	if err != nil {
		t.Fatalf("Loan should survive: %v", err)
	}
	if got.ReturnedByID != nil {
		t.Errorf("Expected the returning user to be cleared, got %d", *got.ReturnedByID)
	}
	if got.ReturnedAt == nil {
		t.Error("Return date should be kept")
	}
	if got.IssuedByID != staff.ID {
		t.Errorf("Issuing user changed to %d", got.IssuedByID)
	}
}

func testLoanNullifiedOnPenalty(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	staff := f.SystemUser()
	member := f.Member(f.MemberType())
	item := f.Copy(f.Document(staff, nil), f.Location(), staff)
	loan := f.Loan(member, item, staff)
	penalty := f.Penalty(member, loan, staff)

	if err := s.Loans.Delete(ctx, loan.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Penalties.Get(ctx, penalty.ID)
	if err != nil {
		t.Fatalf("Penalty should survive: %v", err)
	}
	if got.LoanID != nil {
		t.Errorf("Expected the loan reference to be cleared, got %d", *got.LoanID)
	}
	if !got.AmountDue.Equal(penalty.AmountDue) {
		t.Errorf("Amount changed from %s to %s", penalty.AmountDue, got.AmountDue)
	}
}

func testParentCategoryNullified(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	parent := f.Category(nil)
	child := f.Category(parent)
	grandchild := f.Category(child)

	if err := s.Categories.Delete(ctx, child.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Categories.Get(ctx, grandchild.ID)
	if err != nil {
		t.Fatalf("Grandchild should survive: %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("Expected the parent to be cleared, got %d", *got.ParentID)
	}
	if _, err := s.Categories.Get(ctx, parent.ID); err != nil {
		t.Errorf("Parent should remain: %v", err)
	}
}

// stepClock returns a clock that moves one second per call
func stepClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func testModificationStamps(t *testing.T, s *store.Store) {
	clocked := s.WithClock(stepClock(time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)))
	f := New(t, clocked)
	ctx := f.Ctx

	reservation := f.Reservation(f.Member(f.MemberType()), f.Document(f.SystemUser(), nil))
	created := reservation.ModifiedAt
	if created.IsZero() {
		t.Fatal("Reservation modification stamp should be set on create")
	}

	first, err := clocked.Reservations.Update(ctx, reservation.ID, func(r *models.Reservation) error {
		r.Status = "disponible"
		return nil
	})
	if err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	second, err := clocked.Reservations.Update(ctx, reservation.ID, func(r *models.Reservation) error {
		r.Status = "retiree"
		return nil
	})
	if err != nil {
		t.Fatalf("Second update failed: %v", err)
	}
	if !first.ModifiedAt.After(created) {
		t.Errorf("First update should move the stamp: %v -> %v", created, first.ModifiedAt)
	}
	if !second.ModifiedAt.After(first.ModifiedAt) {
		t.Errorf("Second update should move the stamp: %v -> %v", first.ModifiedAt, second.ModifiedAt)
	}

	stored, err := clocked.Reservations.Get(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !stored.ModifiedAt.Equal(second.ModifiedAt) {
		t.Errorf("Stored stamp %v, returned %v", stored.ModifiedAt, second.ModifiedAt)
	}

	// Other entities have no modification stamp until their first update
	author := f.Author()
	if author.ModifiedAt != nil {
		t.Errorf("Author should have no modification stamp on create, got %v", author.ModifiedAt)
	}
	updated, err := clocked.Authors.Update(ctx, author.ID, func(a *models.Author) error {
		a.Nationality = Ptr("belge")
		return nil
	})
	if err != nil {
		t.Fatalf("Author update failed: %v", err)
	}
	if updated.ModifiedAt == nil || !updated.ModifiedAt.After(author.CreatedAt) {
		t.Errorf("Author update should set the stamp after creation, got %v", updated.ModifiedAt)
	}

	// The penalty stamp is never empty
	staff := f.SystemUser()
	penalty := f.Penalty(f.Member(f.MemberType()), nil, staff)
	if !penalty.ModifiedAt.Equal(penalty.CreatedAt) {
		t.Errorf("Penalty stamps should match on create: %v, %v", penalty.CreatedAt, penalty.ModifiedAt)
	}
}

func testNotFound(t *testing.T, s *store.Store) {
	f := New(t, s)
	ctx := f.Ctx
	const missing = uint64(987654321)

	_, err := s.Authors.Get(ctx, missing)
	expectKind(t, err, types.ErrNotFound, "get")
	_, err = s.Authors.Update(ctx, missing, func(*models.Author) error { return nil })
	expectKind(t, err, types.ErrNotFound, "update")
	expectKind(t, s.Authors.Delete(ctx, missing), types.ErrNotFound, "delete")
	_, err = s.SystemUsers.ByUsername(ctx, Unique("nobody", 50))
	expectKind(t, err, types.ErrNotFound, "lookup by username")
	_, err = s.Members.Loans(ctx, missing)
	expectKind(t, err, types.ErrNotFound, "loans of a missing member")
}

func testNotNullAndBounds(t *testing.T, s *store.Store) {
	shared := New(t, s)
	ctx := shared.Ctx
	staff := shared.SystemUser()

	tests := []struct {
		name   string
		want   error
		column string
		create func(f *Fixtures) error
	}{
		{"empty author name", types.ErrNotNullViolation, "nom", func(f *Fixtures) error {
			return s.Authors.Create(ctx, &models.Author{})
		}},
		{"document without category", types.ErrNotNullViolation, "categorie_id", func(f *Fixtures) error {
			return s.Documents.Create(ctx, &models.Document{Title: "Sans rayon", PublisherID: f.Publisher().ID, CreatedByID: staff.ID})
		}},
		{"copy without service date", types.ErrNotNullViolation, "date_mise_en_service", func(f *Fixtures) error {
			return s.Copies.Create(ctx, &models.Copy{
				InventoryNumber: Unique("INV", 50), Condition: "bon", Status: "disponible",
				LocationID: f.Location().ID, DocumentID: f.Document(staff, nil).ID, AddedByID: staff.ID,
			})
		}},
		{"loan without due date", types.ErrNotNullViolation, "date_retour_prevue", func(f *Fixtures) error {
			item := f.Copy(f.Document(staff, nil), f.Location(), staff)
			return s.Loans.Create(ctx, &models.Loan{
				MemberID: f.Member(f.MemberType()).ID, CopyID: item.ID, IssuedByID: staff.ID,
			})
		}},
		{"author name too long", types.ErrOutOfBounds, "nom", func(f *Fixtures) error {
			return s.Authors.Create(ctx, &models.Author{LastName: strings.Repeat("a", 101)})
		}},
		{"isbn too long", types.ErrOutOfBounds, "isbn", func(f *Fixtures) error {
			return s.Documents.Create(ctx, &models.Document{
				Title: "Trop long", ISBN: Ptr("97800000000000"),
				CategoryID: f.Category(nil).ID, PublisherID: f.Publisher().ID, CreatedByID: staff.ID,
			})
		}},
		{"penalty rate overflow", types.ErrOutOfBounds, "taux_penalite_jour", func(f *Fixtures) error {
			return s.MemberTypes.Create(ctx, &models.MemberType{Label: Unique("mt", 50), DailyPenaltyRate: decimal.RequireFromString("100.00")})
		}},
		{"amount with three decimals", types.ErrOutOfBounds, "montant_du", func(f *Fixtures) error {
			return s.Penalties.Create(ctx, &models.Penalty{
				AmountDue: decimal.RequireFromString("1.005"), Reason: "retard", Status: "impayee",
				MemberID: f.Member(f.MemberType()).ID, CreatedByID: staff.ID,
			})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.create(New(t, s))
			expectKind(t, err, tt.want, tt.name)
			var typed *types.Error
			if errors.As(err, &typed) && typed.Column != tt.column {
				t.Errorf("Expected column %s, got %s", tt.column, typed.Column)
			}
		})
	}

	// The largest values that fit are accepted
	mt := &models.MemberType{Label: Unique("max", 50), DailyPenaltyRate: decimal.RequireFromString("99.99")}
	if err := s.MemberTypes.Create(ctx, mt); err != nil {
		t.Errorf("99.99 should fit decimal(4,2): %v", err)
	}
}

func testAssociationsNotWritten(t *testing.T, s *store.Store) {
	f := New(t, s)
	staff := f.SystemUser()
	category := f.Category(nil)

	// Association structs are neither validated nor saved; only the keys count
	document := &models.Document{
		Title:       "Avec rayon",
		CategoryID:  category.ID,
		Category:    &models.Category{ID: category.ID},
		PublisherID: f.Publisher().ID,
		Publisher:   &models.Publisher{},
		CreatedByID: staff.ID,
	}
	if err := s.Documents.Create(f.Ctx, document); err != nil {
		t.Fatalf("Failed to create a document carrying association structs: %v", err)
	}

	stored, err := s.Categories.Get(f.Ctx, category.ID)
	if err != nil {
		t.Fatalf("Failed to read category: %v", err)
	}
	if stored.Label != category.Label {
		t.Errorf("Expected category label %q to be untouched, got %q", category.Label, stored.Label)
	}
}

func testActiveByDefault(t *testing.T, s *store.Store) {
	f := New(t, s)
	memberType := f.MemberType()

	member := &models.Member{LastName: "Leroy", GivenNames: "Paul", MemberTypeID: memberType.ID}
	if err := s.Members.Create(f.Ctx, member); err != nil {
		t.Fatalf("Failed to create member: %v", err)
	}
	stored, err := s.Members.Get(f.Ctx, member.ID)
	if err != nil {
		t.Fatalf("Failed to read member: %v", err)
	}
	if stored.Active == nil || !*stored.Active {
		t.Errorf("Expected a new member to be active, got %v", stored.Active)
	}

	suspended := &models.Member{LastName: "Petit", GivenNames: "Anne", Active: Ptr(false), MemberTypeID: memberType.ID}
	if err := s.Members.Create(f.Ctx, suspended); err != nil {
		t.Fatalf("Failed to create inactive member: %v", err)
	}
	stored, err = s.Members.Get(f.Ctx, suspended.ID)
	if err != nil {
		t.Fatalf("Failed to read member: %v", err)
	}
	if stored.Active == nil || *stored.Active {
		t.Errorf("Expected the member to stay inactive, got %v", stored.Active)
	}

	_, err = s.Members.Update(f.Ctx, member.ID, func(m *models.Member) error {
		m.Active = nil
		return nil
	})
	expectKind(t, err, types.ErrNotNullViolation, "clearing the active flag")
}

func testDanglingReference(t *testing.T, s *store.Store) {
	f := New(t, s)
	staff := f.SystemUser()

	document := &models.Document{
		Title:       "Orphelin",
		CategoryID:  987654321,
		PublisherID: f.Publisher().ID,
		CreatedByID: staff.ID,
	}
	expectKind(t, s.Documents.Create(f.Ctx, document), types.ErrForeignKeyViolation, "missing category")

	existing := f.Document(staff, nil)
	_, err := s.Documents.Update(f.Ctx, existing.ID, func(d *models.Document) error {
		d.PublisherID = 987654321
		return nil
	})
	expectKind(t, err, types.ErrForeignKeyViolation, "update to a missing publisher")
}

func testTransactionRollback(t *testing.T, s *store.Store) {
	f := New(t, s)
	var created uint64
	sentinel := errors.New("abandon")

	err := s.Transaction(f.Ctx, func(tx *store.Store) error {
		author := &models.Author{LastName: "Zola"}
		if err := tx.Authors.Create(f.Ctx, author); err != nil {
			return err
		}
		created = author.ID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected the transaction error, got %v", err)
	}

	_, err = s.Authors.Get(f.Ctx, created)
	expectKind(t, err, types.ErrNotFound, "rolled back author")
}
