package store

import (
	"context"
	"time"

	"github.com/localnerve/bibliodb/internal/models"
)

// SystemUsers is the register of staff accounts
type SystemUsers struct {
	*Table[models.SystemUser]
}

// ByUsername reads the staff user with the given username
func (u *SystemUsers) ByUsername(ctx context.Context, username string) (*models.SystemUser, error) {
	return u.GetBy(ctx, "username", username)
}

// AssignRole gives a role to a staff user
func (u *SystemUsers) AssignRole(ctx context.Context, userID, roleID uint64) (*models.UserRole, error) {
	link := &models.UserRole{SystemUserID: userID, RoleID: roleID}
	if err := u.s.UserRoles.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// UnassignRole takes a role away from a staff user
func (u *SystemUsers) UnassignRole(ctx context.Context, userID, roleID uint64) error {
	return unlink(ctx, u.s.UserRoles, map[string]interface{}{
		"utilisateur_sys_id": userID,
		"role_id":            roleID,
	})
}

// Roles returns the roles assigned to a staff user
func (u *SystemUsers) Roles(ctx context.Context, userID uint64) ([]models.Role, error) {
	if _, err := u.Get(ctx, userID); err != nil {
		return nil, err
	}

	db := u.s.db.WithContext(ctx)
	assigned := db.Model(&models.UserRole{}).Select("role_id").Where("utilisateur_sys_id = ?", userID)

	var roles []models.Role
	err := db.Where("id IN (?)", assigned).
		Order("id").
		Find(&roles).Error
	if err != nil {
		return nil, classify(u.s.Roles.table, err)
	}
	return roles, nil
}

// Permissions returns the distinct permissions a staff user holds through
// their roles. It reads the grants; it does not decide access.
func (u *SystemUsers) Permissions(ctx context.Context, userID uint64) ([]models.Permission, error) {
	if _, err := u.Get(ctx, userID); err != nil {
		return nil, err
	}

	db := u.s.db.WithContext(ctx)
	assigned := db.Model(&models.UserRole{}).Select("role_id").Where("utilisateur_sys_id = ?", userID)
	granted := db.Model(&models.RolePermission{}).Select("permission_id").Where("role_id IN (?)", assigned)

	var permissions []models.Permission
	err := db.Where("id IN (?)", granted).
		Order("id").
		Find(&permissions).Error
	if err != nil {
		return nil, classify(u.s.Permissions.table, err)
	}
	return permissions, nil
}

// RecordLogin sets the last-login time of a staff user to now. The
// modification stamp is left alone.
func (u *SystemUsers) RecordLogin(ctx context.Context, userID uint64) (time.Time, error) {
	db := u.s.db.WithContext(ctx)
	now := db.NowFunc()

	result := db.Model(&models.SystemUser{}).
		Where(byID(userID)).
		UpdateColumn("date_derniere_connexion", now)
	if result.Error != nil {
		return time.Time{}, classify(u.table, result.Error)
	}
	if result.RowsAffected == 0 {
		return time.Time{}, notFound(u.table, userID)
	}
	return now, nil
}

// Roles is the set of roles
type Roles struct {
	*Table[models.Role]
}

// Grant gives a permission to a role
func (r *Roles) Grant(ctx context.Context, roleID, permissionID uint64) (*models.RolePermission, error) {
	link := &models.RolePermission{RoleID: roleID, PermissionID: permissionID}
	if err := r.s.RolePermissions.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Revoke takes a permission away from a role
func (r *Roles) Revoke(ctx context.Context, roleID, permissionID uint64) error {
	return unlink(ctx, r.s.RolePermissions, map[string]interface{}{
		"role_id":       roleID,
		"permission_id": permissionID,
	})
}

// Permissions returns the permissions granted to a role
func (r *Roles) Permissions(ctx context.Context, roleID uint64) ([]models.Permission, error) {
	if _, err := r.Get(ctx, roleID); err != nil {
		return nil, err
	}

	db := r.s.db.WithContext(ctx)
	granted := db.Model(&models.RolePermission{}).Select("permission_id").Where("role_id = ?", roleID)

	var permissions []models.Permission
	err := db.Where("id IN (?)", granted).
		Order("id").
		Find(&permissions).Error
	if err != nil {
		return nil, classify(r.s.Permissions.table, err)
	}
	return permissions, nil
}
