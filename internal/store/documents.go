package store

import (
	"context"

	"github.com/localnerve/bibliodb/internal/models"
)

// Documents is the catalogue of titles
type Documents struct {
	*Table[models.Document]
}

// ByISBN reads the document with the given ISBN
func (d *Documents) ByISBN(ctx context.Context, isbn string) (*models.Document, error) {
	return d.GetBy(ctx, "isbn", isbn)
}

// AddAuthor links an author to a document. Linking the same pair twice is a
// unique violation.
func (d *Documents) AddAuthor(ctx context.Context, documentID, authorID uint64) (*models.DocumentAuthor, error) {
	link := &models.DocumentAuthor{DocumentID: documentID, AuthorID: authorID}
	if err := d.s.DocumentAuthors.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// RemoveAuthor removes the link between a document and an author
func (d *Documents) RemoveAuthor(ctx context.Context, documentID, authorID uint64) error {
	return unlink(ctx, d.s.DocumentAuthors, map[string]interface{}{
		"document_id": documentID,
		"auteur_id":   authorID,
	})
}

// Authors returns the authors of a document
func (d *Documents) Authors(ctx context.Context, documentID uint64) ([]models.Author, error) {
	if _, err := d.Get(ctx, documentID); err != nil {
		return nil, err
	}

	db := d.s.db.WithContext(ctx)
	linked := db.Model(&models.DocumentAuthor{}).Select("auteur_id").Where("document_id = ?", documentID)

	var authors []models.Author
	err := db.Where("id IN (?)", linked).
		Order("id").
		Find(&authors).Error
	if err != nil {
		return nil, classify(d.s.Authors.table, err)
	}
	return authors, nil
}

// Copies returns the physical copies of a document
func (d *Documents) Copies(ctx context.Context, documentID uint64) ([]models.Copy, error) {
	return childRows(ctx, d.Table, d.s.Copies.Table, "document_id", documentID)
}

// Reservations returns the reservations placed on a document
func (d *Documents) Reservations(ctx context.Context, documentID uint64) ([]models.Reservation, error) {
	return childRows(ctx, d.Table, d.s.Reservations, "document_id", documentID)
}

// Copies is the inventory of physical copies
type Copies struct {
	*Table[models.Copy]
}

// ByInventoryNumber reads the copy with the given inventory number
func (c *Copies) ByInventoryNumber(ctx context.Context, number string) (*models.Copy, error) {
	return c.GetBy(ctx, "numero_inventaire", number)
}

// Loans returns every loan of a copy
func (c *Copies) Loans(ctx context.Context, copyID uint64) ([]models.Loan, error) {
	return childRows(ctx, c.Table, c.s.Loans, "exemplaire_id", copyID)
}

// childRows lists the rows of child whose column references the parent row id.
// A missing parent is reported as not found rather than as an empty list.
func childRows[P, C models.Record](ctx context.Context, parent *Table[P], child *Table[C], column string, id uint64) ([]C, error) {
	if _, err := parent.Get(ctx, id); err != nil {
		return nil, err
	}
	page, err := child.List(ctx, Query{Filter: map[string]interface{}{column: id}})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// unlink deletes the single join row matching filter
func unlink[T models.Record](ctx context.Context, joins *Table[T], filter map[string]interface{}) error {
	link, err := joins.FindOne(ctx, filter)
	if err != nil {
		return err
	}
	return joins.Delete(ctx, joins.s.reg.primaryKey(ctx, joins.table, link))
}
