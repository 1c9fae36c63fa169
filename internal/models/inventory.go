package models

import (
	"gorm.io/datatypes"
)

// Location is a shelf holding copies
type Location struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement"`
	ShelfCode   string  `gorm:"column:code_rayon;size:50;not null;uniqueIndex" validate:"required,max=50"`
	Description *string `gorm:"column:description;size:255" validate:"omitempty,max=255"`
	Timestamps
}

// Copy is a physical, individually tracked instance of a Document
type Copy struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	InventoryNumber string         `gorm:"column:numero_inventaire;size:50;not null;uniqueIndex" validate:"required,max=50"`
	Condition       string         `gorm:"column:etat;size:50;not null" validate:"required,max=50"`
	Status          string         `gorm:"column:statut;size:50;not null" validate:"required,max=50"`
	InServiceDate   datatypes.Date `gorm:"column:date_mise_en_service;not null" validate:"required"`
	Timestamps

	LocationID uint64      `gorm:"column:emplacement_id;not null;index" validate:"required"`
	Location   *Location   `gorm:"foreignKey:LocationID;constraint:OnDelete:RESTRICT" validate:"-"`
	DocumentID uint64      `gorm:"column:document_id;not null;index" validate:"required"`
	Document   *Document   `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" validate:"-"`
	AddedByID  uint64      `gorm:"column:utilisateur_ajout_id;not null;index" validate:"required"`
	AddedBy    *SystemUser `gorm:"foreignKey:AddedByID;constraint:OnDelete:RESTRICT" validate:"-"`
}

func (Location) TableName() string {
	return "emplacement"
}

func (Copy) TableName() string {
	return "exemplaire"
}
