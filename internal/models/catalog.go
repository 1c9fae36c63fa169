package models

import (
	"gorm.io/datatypes"
)

// Author writes documents; linked to them through DocumentAuthor
type Author struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	LastName    string          `gorm:"column:nom;size:100;not null" validate:"required,max=100"`
	GivenNames  *string         `gorm:"column:prenoms;size:100" validate:"omitempty,max=100"`
	Nationality *string         `gorm:"column:nationalite;size:50" validate:"omitempty,max=50"`
	BirthDate   *datatypes.Date `gorm:"column:date_naissance"`
	DeathDate   *datatypes.Date `gorm:"column:date_deces"`
	Timestamps
}

// Category is a node in the category tree. Deleting a parent detaches its children.
type Category struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Label       string `gorm:"column:libelle;size:100;not null;uniqueIndex" validate:"required,max=100"`
	Description Text   `gorm:"column:description"`
	Timestamps
	ParentID *uint64   `gorm:"column:parent_categorie_id;index"`
	Parent   *Category `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" validate:"-"`
}

// Publisher issues documents
type Publisher struct {
	ID    uint64  `gorm:"primaryKey;autoIncrement"`
	Label string  `gorm:"column:libelle;size:150;not null;uniqueIndex" validate:"required,max=150"`
	City  *string `gorm:"column:ville;size:100" validate:"omitempty,max=100"`
	Timestamps
}

// Document is a catalogued title. Its ISBN is unique when present; see database.AutoMigrate.
type Document struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	Title           string  `gorm:"column:titre;size:255;not null" validate:"required,max=255"`
	PublicationYear *int32  `gorm:"column:annee_publication"`
	ISBN            *string `gorm:"column:isbn;size:13" validate:"omitempty,max=13"`
	Summary         Text    `gorm:"column:resume"`
	Timestamps

	CategoryID  uint64      `gorm:"column:categorie_id;not null;index" validate:"required"`
	Category    *Category   `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" validate:"-"`
	PublisherID uint64      `gorm:"column:editeur_id;not null;index" validate:"required"`
	Publisher   *Publisher  `gorm:"foreignKey:PublisherID;constraint:OnDelete:RESTRICT" validate:"-"`
	CreatedByID uint64      `gorm:"column:utilisateur_creation_id;not null;index" validate:"required"`
	CreatedBy   *SystemUser `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" validate:"-"`
}

// DocumentAuthor joins documents and authors, one row per pair
type DocumentAuthor struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	DocumentID uint64    `gorm:"column:document_id;not null;uniqueIndex:document_auteur_document_id_auteur_id_uniq,priority:1" validate:"required"`
	Document   *Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" validate:"-"`
	AuthorID   uint64    `gorm:"column:auteur_id;not null;index;uniqueIndex:document_auteur_document_id_auteur_id_uniq,priority:2" validate:"required"`
	Author     *Author   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" validate:"-"`
	Created
}

func (Author) TableName() string {
	return "auteur"
}

func (Category) TableName() string {
	return "categorie"
}

func (Publisher) TableName() string {
	return "editeur"
}

func (Document) TableName() string {
	return "document"
}

func (DocumentAuthor) TableName() string {
	return "document_auteur"
}
