package store

import (
	"context"

	"github.com/localnerve/bibliodb/internal/models"
)

// Members is the register of patrons
type Members struct {
	*Table[models.Member]
}

// ByEmail reads the member with the given email address
func (m *Members) ByEmail(ctx context.Context, email string) (*models.Member, error) {
	return m.GetBy(ctx, "email", email)
}

// Loans returns every loan of a member, returned or not
func (m *Members) Loans(ctx context.Context, memberID uint64) ([]models.Loan, error) {
	return childRows(ctx, m.Table, m.s.Loans, "membre_id", memberID)
}

// Penalties returns every penalty of a member
func (m *Members) Penalties(ctx context.Context, memberID uint64) ([]models.Penalty, error) {
	return childRows(ctx, m.Table, m.s.Penalties, "membre_id", memberID)
}

// Reservations returns every reservation of a member
func (m *Members) Reservations(ctx context.Context, memberID uint64) ([]models.Reservation, error) {
	return childRows(ctx, m.Table, m.s.Reservations, "membre_id", memberID)
}
