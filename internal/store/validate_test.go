package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/localnerve/bibliodb/internal/models"
	"github.com/localnerve/bibliodb/internal/types"
	"github.com/shopspring/decimal"
)

func TestParseDigits(t *testing.T) {
	precision, scale, err := parseDigits("6.2")
	if err != nil || precision != 6 || scale != 2 {
		t.Errorf("Expected 6, 2, got %d, %d, %v", precision, scale, err)
	}
	for _, bad := range []string{"6", "a.2", "6.b", "2.4"} {
		if _, _, err := parseDigits(bad); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestCheck(t *testing.T) {
	reg := &registry{validate: newValidator()}

	tests := []struct {
		name   string
		rec    interface{}
		want   error
		column string
	}{
		{"valid rate", &models.MemberType{Label: "adulte", DailyPenaltyRate: decimal.RequireFromString("99.99")}, nil, ""},
		{"negative rate", &models.MemberType{Label: "adulte", DailyPenaltyRate: decimal.RequireFromString("-99.99")}, nil, ""},
		{"rate overflow", &models.MemberType{Label: "adulte", DailyPenaltyRate: decimal.RequireFromString("100")}, types.ErrOutOfBounds, "taux_penalite_jour"},
		{"rate scale", &models.MemberType{Label: "adulte", DailyPenaltyRate: decimal.RequireFromString("0.125")}, types.ErrOutOfBounds, "taux_penalite_jour"},
		{"missing label", &models.MemberType{DailyPenaltyRate: decimal.Zero}, types.ErrNotNullViolation, "libelle"},
		{"label too long", &models.MemberType{Label: strings.Repeat("x", 51), DailyPenaltyRate: decimal.Zero}, types.ErrOutOfBounds, "libelle"},
		{"optional column absent", &models.Author{LastName: "Colette"}, nil, ""},
		{"optional column too long", &models.Author{LastName: "Colette", Nationality: storePtr(strings.Repeat("x", 51))}, types.ErrOutOfBounds, "nationalite"},
		{"missing reference", &models.Copy{InventoryNumber: "INV-1", Condition: "bon", Status: "disponible", LocationID: 1, AddedByID: 1}, types.ErrNotNullViolation, "document_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.check("t", tt.rec)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			var typed *types.Error
			if errors.As(err, &typed) && typed.Column != tt.column {
				t.Errorf("Expected column %s, got %s", tt.column, typed.Column)
			}
		})
	}
}

func storePtr[T any](v T) *T {
	return &v
}
