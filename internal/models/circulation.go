// circulation.go
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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan records a copy lent to a member
type Loan struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	LoanedAt   time.Time  `gorm:"column:date_emprunt;not null"`
	DueAt      time.Time  `gorm:"column:date_retour_prevue;not null" validate:"required"`
	ReturnedAt *time.Time `gorm:"column:date_retour_reelle"`
	Created

	MemberID     uint64      `gorm:"column:membre_id;not null;index" validate:"required"`
	Member       *Member     `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" validate:"-"`
	CopyID       uint64      `gorm:"column:exemplaire_id;not null;index" validate:"required"`
	Copy         *Copy       `gorm:"foreignKey:CopyID;constraint:OnDelete:RESTRICT" validate:"-"`
	IssuedByID   uint64      `gorm:"column:utilisateur_emprunt_id;not null;index" validate:"required"`
	IssuedBy     *SystemUser `gorm:"foreignKey:IssuedByID;constraint:OnDelete:RESTRICT" validate:"-"`
	ReturnedByID *uint64     `gorm:"column:utilisateur_retour_id;index"`
	ReturnedBy   *SystemUser `gorm:"foreignKey:ReturnedByID;constraint:OnDelete:SET NULL" validate:"-"`
}

func (l *Loan) StampCreate(now time.Time) {
	l.LoanedAt = now
	l.CreatedAt = now
}

// Penalty is an amount owed by a member, optionally tied to a loan
type Penalty struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	AmountDue  decimal.Decimal `gorm:"column:montant_du;type:decimal(6,2);not null" validate:"decimal=6.2"`
	AmountPaid decimal.Decimal `gorm:"column:montant_paye;type:decimal(6,2);not null" validate:"decimal=6.2"`
	CreatedAt  time.Time       `gorm:"column:date_creation;not null"`
	Reason     string          `gorm:"column:motif;size:50;not null" validate:"required,max=50"`
	Status     string          `gorm:"column:statut;size:50;not null" validate:"required,max=50"`
	ModifiedAt time.Time       `gorm:"column:date_modification;not null"`

	MemberID    uint64      `gorm:"column:membre_id;not null;index" validate:"required"`
	Member      *Member     `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" validate:"-"`
	LoanID      *uint64     `gorm:"column:emprunt_id;index"`
	Loan        *Loan       `gorm:"foreignKey:LoanID;constraint:OnDelete:SET NULL" validate:"-"`
	CreatedByID uint64      `gorm:"column:utilisateur_creation_id;not null;index" validate:"required"`
	CreatedBy   *SystemUser `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" validate:"-"`
}

// StampCreate sets both stamps; the modification stamp is never empty
func (p *Penalty) StampCreate(now time.Time) {
	p.CreatedAt = now
	p.ModifiedAt = now
}

func (p *Penalty) Touch(now time.Time) {
	p.ModifiedAt = now
}

// Reservation holds a document for a member. Its modification stamp moves on
// every save, including saves that do not go through the store.
type Reservation struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement"`
	ReservedAt    time.Time  `gorm:"column:date_reservation;not null"`
	AvailableAt   *time.Time `gorm:"column:date_disponibilite"`
	Status        string     `gorm:"column:statut;size:50;not null" validate:"required,max=50"`
	ModifiedAt    time.Time  `gorm:"column:date_modification;not null;autoUpdateTime"`
	HoldExpiresAt *time.Time `gorm:"column:date_expiration_mise_de_cote"`

	MemberID   uint64    `gorm:"column:membre_id;not null;index" validate:"required"`
	Member     *Member   `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" validate:"-"`
	DocumentID uint64    `gorm:"column:document_id;not null;index" validate:"required"`
	Document   *Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (r *Reservation) StampCreate(now time.Time) {
	r.ReservedAt = now
	r.ModifiedAt = now
}

func (r *Reservation) Touch(now time.Time) {
	r.ModifiedAt = now
}

func (Loan) TableName() string {
	return "emprunt"
}

func (Penalty) TableName() string {
	return "penalite"
}

func (Reservation) TableName() string {
	return "reservation"
}
