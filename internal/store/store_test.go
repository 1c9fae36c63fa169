package store_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/bibliodb/internal/config"
	"github.com/localnerve/bibliodb/internal/database"
	"github.com/localnerve/bibliodb/internal/models"
	"github.com/localnerve/bibliodb/internal/store"
	"github.com/localnerve/bibliodb/internal/store/storetest"
	"github.com/localnerve/bibliodb/internal/types"
	"gorm.io/gorm"
)

func TestSuite(t *testing.T) {
	s := storetest.OpenMemory(t)
	if s.ChecksReferences() {
		t.Error("SQLite enforces foreign keys; the store should not check them")
	}
	storetest.Run(t, s)
}

// TestSuiteWithoutForeignKeys runs the same checks against a schema migrated
// without foreign key DDL, as on SQL Server, so every policy is applied by the store
func TestSuiteWithoutForeignKeys(t *testing.T) {
	s := openWithoutForeignKeys(t)
	if !s.ChecksReferences() {
		t.Fatal("Expected the store to check references")
	}
	storetest.Run(t, s)
}

func openWithoutForeignKeys(t *testing.T) *store.Store {
	t.Helper()
	cfg := &config.Config{DBType: "sqlite-modernc", DBDatabase: ":memory:", DBLogLevel: "silent"}
	gormConfig := database.GormConfig(cfg)
	gormConfig.DisableForeignKeyConstraintWhenMigrating = true

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	s, err := store.New(db)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

// TestDeleteInBatches tests cascades and restrict checks whose id lists span
// several IN batches
func TestDeleteInBatches(t *testing.T) {
	defer store.SetMaxBatch(2)()

	s := openWithoutForeignKeys(t)
	f := storetest.New(t, s)
	ctx := f.Ctx
	staff := f.SystemUser()
	location := f.Location()

	document := f.Document(staff, nil)
	var copies []*models.Copy
	for i := 0; i < 5; i++ {
		copies = append(copies, f.Copy(document, location, staff))
	}

	// A loan on the last copy blocks the whole cascade
	loan := f.Loan(f.Member(f.MemberType()), copies[4], staff)
	err := s.Documents.Delete(ctx, document.ID)
	if !errors.Is(err, types.ErrForeignKeyViolation) {
		t.Fatalf("Expected a restrict violation from the fifth copy, got %v", err)
	}
	if n, _ := s.Copies.Count(ctx, map[string]interface{}{"document_id": document.ID}); n != 5 {
		t.Fatalf("Expected all 5 copies to remain, got %d", n)
	}

	if err := s.Loans.Delete(ctx, loan.ID); err != nil {
		t.Fatalf("Failed to delete loan: %v", err)
	}
	if err := s.Documents.Delete(ctx, document.ID); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}
	if n, _ := s.Copies.Count(ctx, map[string]interface{}{"document_id": document.ID}); n != 0 {
		t.Errorf("Expected the copies to be deleted with the document, got %d", n)
	}
}

func TestPolicyGraph(t *testing.T) {
	s := storetest.OpenMemory(t)

	want := map[string]string{
		"categorie.parent_categorie_id":       store.SetNull,
		"document.categorie_id":               store.Restrict,
		"document.editeur_id":                 store.Restrict,
		"document.utilisateur_creation_id":    store.Restrict,
		"document_auteur.document_id":         store.Cascade,
		"document_auteur.auteur_id":           store.Cascade,
		"exemplaire.emplacement_id":           store.Restrict,
		"exemplaire.document_id":              store.Cascade,
		"exemplaire.utilisateur_ajout_id":     store.Restrict,
		"membre.type_membre_id":               store.Restrict,
		"emprunt.membre_id":                   store.Cascade,
		"emprunt.exemplaire_id":               store.Restrict,
		"emprunt.utilisateur_emprunt_id":      store.Restrict,
		"emprunt.utilisateur_retour_id":       store.SetNull,
		"penalite.membre_id":                  store.Cascade,
		"penalite.emprunt_id":                 store.SetNull,
		"penalite.utilisateur_creation_id":    store.Restrict,
		"reservation.membre_id":               store.Cascade,
		"reservation.document_id":             store.Cascade,
		"role_permission.role_id":             store.Cascade,
		"role_permission.permission_id":       store.Cascade,
		"utilisateur_role.utilisateur_sys_id": store.Cascade,
		"utilisateur_role.role_id":            store.Cascade,
	}

	got := make(map[string]string)
	for _, table := range database.Tables() {
		for _, edge := range s.Parents(table) {
			got[edge.Child+"."+edge.Column] = edge.OnDelete
		}
	}

	if len(got) != len(want) {
		t.Errorf("Expected %d foreign keys, got %d: %v", len(want), len(got), got)
	}
	for key, policy := range want {
		if got[key] != policy {
			t.Errorf("%s: expected %s, got %q", key, policy, got[key])
		}
	}

	var referencing []string
	for _, edge := range s.Children("utilisateur_sys") {
		if edge.Parent != "utilisateur_sys" {
			t.Errorf("Edge %+v does not reference utilisateur_sys", edge)
		}
		referencing = append(referencing, edge.Child+"."+edge.Column)
	}
	sort.Strings(referencing)
	wantReferencing := []string{
		"document.utilisateur_creation_id",
		"emprunt.utilisateur_emprunt_id",
		"emprunt.utilisateur_retour_id",
		"exemplaire.utilisateur_ajout_id",
		"penalite.utilisateur_creation_id",
		"utilisateur_role.utilisateur_sys_id",
	}
	if len(referencing) != len(wantReferencing) {
		t.Fatalf("Expected %v, got %v", wantReferencing, referencing)
	}
	for i := range referencing {
		if referencing[i] != wantReferencing[i] {
			t.Errorf("Expected %s, got %s", wantReferencing[i], referencing[i])
		}
	}

	if edges := s.Children("auteur"); len(edges) != 1 || edges[0].Child != "document_auteur" {
		t.Errorf("Expected only document_auteur to reference auteur, got %+v", edges)
	}
}

func TestCategoryTree(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)
	ctx := f.Ctx

	root := f.Category(nil)
	left := f.Category(root)
	right := f.Category(root)
	leaf := f.Category(left)

	children, err := s.Categories.Children(ctx, root.ID)
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if ids := categoryIDs(children); len(ids) != 2 || ids[0] != left.ID || ids[1] != right.ID {
		t.Errorf("Expected children [%d %d], got %v", left.ID, right.ID, ids)
	}

	tree, err := s.Categories.Subtree(ctx, root.ID)
	if err != nil {
		t.Fatalf("Subtree failed: %v", err)
	}
	want := []uint64{root.ID, left.ID, right.ID, leaf.ID}
	if ids := categoryIDs(tree); !equalIDs(ids, want) {
		t.Errorf("Expected subtree %v, got %v", want, ids)
	}

	path, err := s.Categories.Ancestors(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("Ancestors failed: %v", err)
	}
	if ids := categoryIDs(path); !equalIDs(ids, []uint64{left.ID, root.ID}) {
		t.Errorf("Expected ancestors [%d %d], got %v", left.ID, root.ID, ids)
	}

	path, err = s.Categories.Ancestors(ctx, root.ID)
	if err != nil {
		t.Fatalf("Ancestors of root failed: %v", err)
	}
	if len(path) != 0 {
		t.Errorf("Root should have no ancestors, got %v", categoryIDs(path))
	}

	// Roots are listed by filtering on a NULL parent
	page, err := s.Categories.List(ctx, store.Query{Filter: map[string]interface{}{"parent_categorie_id": nil}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != root.ID {
		t.Errorf("Expected only the root, got %v", categoryIDs(page.Items))
	}

	_, err = s.Categories.Subtree(ctx, 987654321)
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestCategoryCycle(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)
	ctx := f.Ctx

	a := f.Category(nil)
	b := f.Category(a)
	if _, err := s.Categories.Update(ctx, a.ID, func(c *models.Category) error {
		c.ParentID = &b.ID
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	tree, err := s.Categories.Subtree(ctx, a.ID)
	if err != nil {
		t.Fatalf("Subtree failed: %v", err)
	}
	if ids := categoryIDs(tree); !equalIDs(ids, []uint64{a.ID, b.ID}) {
		t.Errorf("Expected [%d %d], got %v", a.ID, b.ID, ids)
	}

	path, err := s.Categories.Ancestors(ctx, a.ID)
	if err != nil {
		t.Fatalf("Ancestors failed: %v", err)
	}
	if ids := categoryIDs(path); !equalIDs(ids, []uint64{b.ID}) {
		t.Errorf("Expected [%d], got %v", b.ID, ids)
	}
}

func TestDocumentRelations(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)
	ctx := f.Ctx

	staff := f.SystemUser()
	document := f.Document(staff, nil)
	other := f.Document(staff, nil)
	hugo := f.Author()
	dumas := f.Author()
	for _, author := range []*models.Author{hugo, dumas} {
		if _, err := s.Documents.AddAuthor(ctx, document.ID, author.ID); err != nil {
			t.Fatalf("AddAuthor failed: %v", err)
		}
	}
	if _, err := s.Documents.AddAuthor(ctx, other.ID, hugo.ID); err != nil {
		t.Fatalf("AddAuthor failed: %v", err)
	}

	authors, err := s.Documents.Authors(ctx, document.ID)
	if err != nil {
		t.Fatalf("Authors failed: %v", err)
	}
	if len(authors) != 2 || authors[0].ID != hugo.ID || authors[1].ID != dumas.ID {
		t.Errorf("Expected both authors, got %+v", authors)
	}

	if err := s.Documents.RemoveAuthor(ctx, document.ID, hugo.ID); err != nil {
		t.Fatalf("RemoveAuthor failed: %v", err)
	}
	authors, err = s.Documents.Authors(ctx, document.ID)
	if err != nil {
		t.Fatalf("Authors failed: %v", err)
	}
	if len(authors) != 1 || authors[0].ID != dumas.ID {
		t.Errorf("Expected only the remaining author, got %+v", authors)
	}
	if err := s.Documents.RemoveAuthor(ctx, document.ID, hugo.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Removing a missing link: expected not found, got %v", err)
	}

	// The other document keeps its link
	authors, err = s.Documents.Authors(ctx, other.ID)
	if err != nil || len(authors) != 1 {
		t.Errorf("Other document lost its author: %v %+v", err, authors)
	}

	location := f.Location()
	item := f.Copy(document, location, staff)
	f.Copy(other, location, staff)
	copies, err := s.Documents.Copies(ctx, document.ID)
	if err != nil {
		t.Fatalf("Copies failed: %v", err)
	}
	if len(copies) != 1 || copies[0].ID != item.ID {
		t.Errorf("Expected the document's copy, got %+v", copies)
	}

	found, err := s.Copies.ByInventoryNumber(ctx, item.InventoryNumber)
	if err != nil || found.ID != item.ID {
		t.Errorf("ByInventoryNumber: %v %+v", err, found)
	}

	member := f.Member(f.MemberType())
	loan := f.Loan(member, item, staff)
	loans, err := s.Copies.Loans(ctx, item.ID)
	if err != nil || len(loans) != 1 || loans[0].ID != loan.ID {
		t.Errorf("Copy loans: %v %+v", err, loans)
	}

	reservation := f.Reservation(member, document)
	reservations, err := s.Documents.Reservations(ctx, document.ID)
	if err != nil || len(reservations) != 1 || reservations[0].ID != reservation.ID {
		t.Errorf("Document reservations: %v %+v", err, reservations)
	}

	_, err = s.Documents.Authors(ctx, 987654321)
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Authors of a missing document: expected not found, got %v", err)
	}
}

func TestMemberRelations(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)
	ctx := f.Ctx

	staff := f.SystemUser()
	document := f.Document(staff, nil)
	item := f.Copy(document, f.Location(), staff)
	memberType := f.MemberType()
	member := f.Member(memberType)
	other := f.Member(memberType)

	loan := f.Loan(member, item, staff)
	f.Loan(other, item, staff)
	penalty := f.Penalty(member, loan, staff)
	reservation := f.Reservation(member, document)

	found, err := s.Members.ByEmail(ctx, *member.Email)
	if err != nil || found.ID != member.ID {
		t.Fatalf("ByEmail: %v %+v", err, found)
	}
	if found.JoinedAt.IsZero() {
		t.Error("Join date should be set on create")
	}

	loans, err := s.Members.Loans(ctx, member.ID)
	if err != nil || len(loans) != 1 || loans[0].ID != loan.ID {
		t.Errorf("Loans: %v %+v", err, loans)
	}
	penalties, err := s.Members.Penalties(ctx, member.ID)
	if err != nil || len(penalties) != 1 || penalties[0].ID != penalty.ID {
		t.Errorf("Penalties: %v %+v", err, penalties)
	}
	reservations, err := s.Members.Reservations(ctx, member.ID)
	if err != nil || len(reservations) != 1 || reservations[0].ID != reservation.ID {
		t.Errorf("Reservations: %v %+v", err, reservations)
	}

	loans, err = s.Members.Loans(ctx, f.Member(memberType).ID)
	if err != nil || len(loans) != 0 {
		t.Errorf("A new member should have no loans: %v %+v", err, loans)
	}
}

func TestAccessControl(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)
	ctx := f.Ctx

	staff := f.SystemUser()
	librarian := f.Role()
	manager := f.Role()
	lend := f.Permission()
	catalogue := f.Permission()

	// Both roles grant lend; it is reported once
	for _, grant := range []struct{ role, permission uint64 }{
		{librarian.ID, lend.ID},
		{manager.ID, lend.ID},
		{manager.ID, catalogue.ID},
	} {
		if _, err := s.Roles.Grant(ctx, grant.role, grant.permission); err != nil {
			t.Fatalf("Grant failed: %v", err)
		}
	}
	for _, role := range []*models.Role{librarian, manager} {
		if _, err := s.SystemUsers.AssignRole(ctx, staff.ID, role.ID); err != nil {
			t.Fatalf("AssignRole failed: %v", err)
		}
	}

	roles, err := s.SystemUsers.Roles(ctx, staff.ID)
	if err != nil {
		t.Fatalf("Roles failed: %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("Expected 2 roles, got %+v", roles)
	}

	permissions, err := s.SystemUsers.Permissions(ctx, staff.ID)
	if err != nil {
		t.Fatalf("Permissions failed: %v", err)
	}
	if len(permissions) != 2 || permissions[0].ID != lend.ID || permissions[1].ID != catalogue.ID {
		t.Errorf("Expected distinct permissions [%d %d], got %+v", lend.ID, catalogue.ID, permissions)
	}

	if err := s.Roles.Revoke(ctx, manager.ID, catalogue.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	granted, err := s.Roles.Permissions(ctx, manager.ID)
	if err != nil || len(granted) != 1 || granted[0].ID != lend.ID {
		t.Errorf("Manager permissions after revoke: %v %+v", err, granted)
	}

	if err := s.SystemUsers.UnassignRole(ctx, staff.ID, librarian.ID); err != nil {
		t.Fatalf("UnassignRole failed: %v", err)
	}
	roles, err = s.SystemUsers.Roles(ctx, staff.ID)
	if err != nil || len(roles) != 1 || roles[0].ID != manager.ID {
		t.Errorf("Roles after unassign: %v %+v", err, roles)
	}

	// Deleting a role removes its grants and assignments
	if err := s.Roles.Delete(ctx, manager.ID); err != nil {
		t.Fatalf("Role delete failed: %v", err)
	}
	permissions, err = s.SystemUsers.Permissions(ctx, staff.ID)
	if err != nil || len(permissions) != 0 {
		t.Errorf("Expected no permissions left, got %v %+v", err, permissions)
	}
	if n, err := s.RolePermissions.Count(ctx, map[string]interface{}{"role_id": manager.ID}); err != nil || n != 0 {
		t.Errorf("Grants of the deleted role remain: %v %d", err, n)
	}
	if _, err := s.Permissions.Get(ctx, lend.ID); err != nil {
		t.Errorf("Permission should remain: %v", err)
	}
}

func TestRecordLogin(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)

	staff := f.SystemUser()
	at, err := s.SystemUsers.RecordLogin(f.Ctx, staff.ID)
	if err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}

	got, err := s.SystemUsers.ByUsername(f.Ctx, staff.Username)
	if err != nil {
		t.Fatalf("ByUsername failed: %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("Expected last login %v, got %v", at, got.LastLoginAt)
	}
	if got.ModifiedAt != nil {
		t.Errorf("Recording a login should not touch the modification stamp, got %v", got.ModifiedAt)
	}
	if !got.CheckPassword("correct horse battery staple") {
		t.Error("Stored password hash should verify")
	}

	_, err = s.SystemUsers.RecordLogin(f.Ctx, 987654321)
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := storetest.OpenMemory(t)
	ctx := context.Background()

	names := []string{"Verne", "Balzac", "Sand", "Balzac", "Zola"}
	for _, name := range names {
		if err := s.Authors.Create(ctx, &models.Author{LastName: name}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, err := s.Authors.List(ctx, store.Query{OrderBy: "nom", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Expected total 5, got %d", page.Total)
	}
	if len(page.Items) != 2 || page.Items[0].LastName != "Balzac" || page.Items[1].LastName != "Sand" {
		t.Errorf("Unexpected page %+v", page.Items)
	}

	// Go field names resolve to columns
	page, err = s.Authors.List(ctx, store.Query{OrderBy: "LastName", Desc: true, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].LastName != "Zola" {
		t.Errorf("Expected Zola first, got %+v", page.Items)
	}

	page, err = s.Authors.List(ctx, store.Query{Filter: map[string]interface{}{"nom": "Balzac"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 || page.Items[0].ID >= page.Items[1].ID {
		t.Errorf("Expected both Balzac rows by id, got %+v", page.Items)
	}

	page, err = s.Authors.List(ctx, store.Query{Filter: map[string]interface{}{"nom": "Proust"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 0 || page.Items == nil || len(page.Items) != 0 {
		t.Errorf("Expected an empty page, got %+v", page)
	}

	n, err := s.Authors.Count(ctx, nil)
	if err != nil || n != 5 {
		t.Errorf("Count: %v %d", err, n)
	}

	if _, err := s.Authors.List(ctx, store.Query{OrderBy: "pseudonyme"}); err == nil {
		t.Error("Expected an error ordering by an unknown column")
	}
	if _, err := s.Authors.GetBy(ctx, "pseudonyme", "x"); err == nil {
		t.Error("Expected an error filtering by an unknown column")
	}
}

func TestUpdate(t *testing.T) {
	s := storetest.OpenMemory(t)
	f := storetest.New(t, s)
	ctx := f.Ctx
	author := f.Author()

	_, err := s.Authors.Update(ctx, author.ID, func(a *models.Author) error {
		a.ID++
		return nil
	})
	if err == nil {
		t.Error("Expected an error changing the primary key")
	}

	stop := errors.New("stop")
	_, err = s.Authors.Update(ctx, author.ID, func(a *models.Author) error {
		a.LastName = "Dumas"
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Expected the mutate error, got %v", err)
	}

	_, err = s.Authors.Update(ctx, author.ID, func(a *models.Author) error {
		a.LastName = ""
		return nil
	})
	if !errors.Is(err, types.ErrNotNullViolation) {
		t.Errorf("Expected a not null violation, got %v", err)
	}

	// Clearing an optional column is written
	updated, err := s.Authors.Update(ctx, author.ID, func(a *models.Author) error {
		a.GivenNames = nil
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := s.Authors.Get(ctx, author.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.GivenNames != nil || got.LastName != author.LastName {
		t.Errorf("Unexpected row after update: %+v", got)
	}
	if !got.CreatedAt.Equal(author.CreatedAt) || updated.ModifiedAt == nil {
		t.Errorf("Stamps: created %v -> %v, modified %v", author.CreatedAt, got.CreatedAt, updated.ModifiedAt)
	}
}

func categoryIDs(categories []models.Category) []uint64 {
	ids := make([]uint64, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
