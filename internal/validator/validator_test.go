package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

func init() {
	Register()
}

func TestIsFieldTitle(t *testing.T) {
	valid := []string{"Rent", "wi-fi", "Gas2024"}
	invalid := []string{"", "Rent Money", "rent_money", "rent!"}
	for _, s := range valid {
		if !IsFieldTitle(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if IsFieldTitle(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestIsItemName(t *testing.T) {
	if !IsItemName("rice_5kg-bag") {
		t.Error("expected underscores and hyphens to be allowed")
	}
	if IsItemName("rice bag") {
		t.Error("expected spaces to be rejected")
	}
}

func TestIsQuantityUnit(t *testing.T) {
	if !IsQuantityUnit("Kg") {
		t.Error("expected letters to be allowed")
	}
	if IsQuantityUnit("kg2") {
		t.Error("expected digits to be rejected")
	}
}

type mealPayload struct {
	MealToday *decimal.Decimal          `binding:"required,gte=0,lte=99.99"`
	Auto      *decimal.Decimal          `binding:"omitempty,gte=0,lte=99.99"`
	Amounts   map[string]decimal.Decimal `binding:"omitempty,dive,gte=0"`
	Title     string                    `binding:"omitempty,field_title"`
	Role      int                       `binding:"member_role"`
}

func TestBindingRules(t *testing.T) {
	zero := decimal.Zero
	two := decimal.NewFromInt(2)
	negative := decimal.NewFromInt(-1)
	huge := decimal.NewFromInt(100)

	tests := []struct {
		name    string
		payload mealPayload
		wantErr bool
	}{
		{"zero_meal_is_present", mealPayload{MealToday: &zero}, false},
		{"valid", mealPayload{MealToday: &two, Auto: &two, Title: "Rent"}, false},
		{"missing_meal", mealPayload{}, true},
		{"negative_meal", mealPayload{MealToday: &negative}, true},
		{"meal_too_large", mealPayload{MealToday: &huge}, true},
		{"negative_amount", mealPayload{MealToday: &two, Amounts: map[string]decimal.Decimal{"rent": negative}}, true},
		{"bad_title", mealPayload{MealToday: &two, Title: "bad title"}, true},
		{"bad_role", mealPayload{MealToday: &two, Role: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.payload)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
