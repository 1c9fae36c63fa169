package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SystemUser is a staff account. Most catalogue and circulation rows record the
// staff user who wrote them.
type SystemUser struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"column:username;size:50;not null;uniqueIndex" validate:"required,max=50"`
	PasswordHash string `gorm:"column:password;size:255;not null" validate:"required,max=255"`
	Active       *bool  `gorm:"column:est_actif;not null" validate:"required"`
	Timestamps
	LastLoginAt *time.Time `gorm:"column:date_derniere_connexion"`
	Email       string     `gorm:"column:email;size:100;not null;uniqueIndex" validate:"required,max=100"`
	LastName    string     `gorm:"column:nom;size:100;not null" validate:"required,max=100"`
	GivenNames  string     `gorm:"column:prenoms;size:100;not null" validate:"required,max=100"`
	Address     *string    `gorm:"column:adresse;size:255" validate:"omitempty,max=255"`
	Phone       *string    `gorm:"column:telephone;size:20" validate:"omitempty,max=20"`
}

// StampCreate sets the creation stamp; a new account is active unless the caller says otherwise
func (u *SystemUser) StampCreate(now time.Time) {
	u.Timestamps.StampCreate(now)
	defaultActive(&u.Active)
}

// SetPassword stores the bcrypt hash of password
func (u *SystemUser) SetPassword(password string) error {
	if password == "" {
		return errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *SystemUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

type Permission struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Label string `gorm:"column:libelle;size:100;not null;uniqueIndex" validate:"required,max=100"`
	Timestamps
}

type Role struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Label string `gorm:"column:libelle;size:50;not null;uniqueIndex" validate:"required,max=50"`
	Timestamps
}

// RolePermission grants a permission to a role, one row per pair
type RolePermission struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement"`
	RoleID       uint64      `gorm:"column:role_id;not null;uniqueIndex:role_permission_role_id_permission_id_uniq,priority:1" validate:"required"`
	Role         *Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" validate:"-"`
	PermissionID uint64      `gorm:"column:permission_id;not null;index;uniqueIndex:role_permission_role_id_permission_id_uniq,priority:2" validate:"required"`
	Permission   *Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" validate:"-"`
	Created
}

// UserRole assigns a role to a staff user, one row per pair
type UserRole struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement"`
	SystemUserID uint64      `gorm:"column:utilisateur_sys_id;not null;uniqueIndex:utilisateur_role_utilisateur_sys_id_role_id_uniq,priority:1" validate:"required"`
	SystemUser   *SystemUser `gorm:"foreignKey:SystemUserID;constraint:OnDelete:CASCADE" validate:"-"`
	RoleID       uint64      `gorm:"column:role_id;not null;index;uniqueIndex:utilisateur_role_utilisateur_sys_id_role_id_uniq,priority:2" validate:"required"`
	Role         *Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" validate:"-"`
	Created
}

func (SystemUser) TableName() string {
	return "utilisateur_sys"
}

func (Permission) TableName() string {
	return "permission"
}

func (Role) TableName() string {
	return "role"
}

func (RolePermission) TableName() string {
	return "role_permission"
}

func (UserRole) TableName() string {
	return "utilisateur_role"
}
