package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type location struct {
	City string `json:"city" validate:"notblank"`
}

type sample struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"required,phone"`
	Urgency  string   `json:"urgency" validate:"required,oneof=Normal Urgent Emergency"`
	Location location `json:"serviceLocation"`
}

func TestStruct_Valid(t *testing.T) {
	s := sample{
		Name:     "Asha",
		Email:    "asha@example.com",
		Phone:    "+91 98765 43210",
		Urgency:  "Urgent",
		Location: location{City: "Pune"},
	}
	assert.NoError(t, Struct(s))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	s := sample{
		Name:     "Asha",
		Email:    "not-an-email",
		Phone:    "12",
		Urgency:  "Whenever",
		Location: location{City: "   "},
	}

	err := Struct(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "phone must be a valid phone number")
	assert.Contains(t, err.Error(), "urgency must be one of: Normal, Urgent, Emergency")
	assert.Contains(t, err.Error(), "serviceLocation.city is required")
}

type profilePatch struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=10"`
}

type signupForm struct {
	ServiceType string `form:"serviceType" validate:"notblank"`
}

func TestStruct_NotBlank(t *testing.T) {
	blank, name := "  ", "Ravi"

	tests := []struct {
		name    string
		input   interface{}
		wantErr string
	}{
		{"nil pointer skipped", profilePatch{}, ""},
		{"set pointer passes", profilePatch{Name: &name}, ""},
		{"blank pointer rejected", profilePatch{Name: &blank}, "name is required"},
		{"form field passes", signupForm{ServiceType: "Plumber"}, ""},
		{"blank form field rejected", signupForm{ServiceType: "\t"}, "serviceType is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { err = Struct(tt.input) })
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
