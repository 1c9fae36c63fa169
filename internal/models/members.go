package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberType sets the borrowing terms of a class of members
type MemberType struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement"`
	Label            string          `gorm:"column:libelle;size:50;not null;uniqueIndex" validate:"required,max=50"`
	MaxLoans         int32           `gorm:"column:max_emprunt;not null"`
	LoanDurationDays int32           `gorm:"column:duree_emprunt;not null"`
	DailyPenaltyRate decimal.Decimal `gorm:"column:taux_penalite_jour;type:decimal(4,2);not null" validate:"decimal=4.2"`
	Timestamps
}

// Member is a library patron. Email is unique when present; see database.AutoMigrate.
type Member struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	LastName   string     `gorm:"column:nom;size:100;not null" validate:"required,max=100"`
	GivenNames string     `gorm:"column:prenoms;size:100;not null" validate:"required,max=100"`
	Address    *string    `gorm:"column:adresse;size:255" validate:"omitempty,max=255"`
	Phone      *string    `gorm:"column:telephone;size:20" validate:"omitempty,max=20"`
	Email      *string    `gorm:"column:email;size:100" validate:"omitempty,max=100"`
	Active     *bool      `gorm:"column:est_actif;not null" validate:"required"`
	JoinedAt   time.Time  `gorm:"column:date_adhesion;not null"`
	ModifiedAt *time.Time `gorm:"column:date_modification"`

	MemberTypeID uint64      `gorm:"column:type_membre_id;not null;index" validate:"required"`
	MemberType   *MemberType `gorm:"foreignKey:MemberTypeID;constraint:OnDelete:RESTRICT" validate:"-"`
}

func (m *Member) StampCreate(now time.Time) {
	m.JoinedAt = now
	m.ModifiedAt = nil
	defaultActive(&m.Active)
}

func (m *Member) Touch(now time.Time) {
	m.ModifiedAt = &now
}

func (MemberType) TableName() string {
	return "type_membre"
}

func (Member) TableName() string {
	return "membre"
}
